package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/chenhom/gugo-screener/internal/scoring"
	"github.com/chenhom/gugo-screener/internal/storage"
)

var (
	listStocksMarket     string
	listStocksIndustry   string
	listStocksLimit      int
	listStocksMinScore   float64
	listStocksShowScores bool
	listStocksExport     string
)

var listStocksCmd = &cobra.Command{
	Use:   "list-stocks",
	Short: "List the universe catalog, optionally filtered and scored",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		rows, err := a.store.Fundamentals.ListUniverse()
		if err != nil {
			return fmt.Errorf("list universe: %w", err)
		}

		filtered := make([]storage.Ticker, 0, len(rows))
		for _, t := range rows {
			if !t.Active {
				continue
			}
			if listStocksMarket != "" && t.Market != listStocksMarket {
				continue
			}
			if listStocksIndustry != "" && t.Industry != listStocksIndustry {
				continue
			}
			filtered = append(filtered, t)
		}

		scores := map[string]domain.ScoredRank{}
		if listStocksShowScores || listStocksMinScore > 0 {
			tickers := make([]string, len(filtered))
			for i, t := range filtered {
				tickers[i] = t.Ticker
			}
			engine := scoring.New(scoring.NewStoreDataSource(a.store), a.momentum)
			ranks, err := engine.ScoreAll(tickers, time.Now())
			if err != nil {
				return fmt.Errorf("score universe: %w", err)
			}
			for _, r := range ranks {
				scores[r.Ticker] = r
			}
			if listStocksMinScore > 0 {
				kept := filtered[:0]
				for _, t := range filtered {
					if scores[t.Ticker].Total >= listStocksMinScore {
						kept = append(kept, t)
					}
				}
				filtered = kept
			}
		}

		sort.Slice(filtered, func(i, j int) bool { return filtered[i].Ticker < filtered[j].Ticker })
		if listStocksLimit > 0 && len(filtered) > listStocksLimit {
			filtered = filtered[:listStocksLimit]
		}

		switch listStocksExport {
		case "csv":
			return exportStocksCSV(os.Stdout, filtered, scores, listStocksShowScores)
		case "json":
			return exportStocksJSON(os.Stdout, filtered, scores, listStocksShowScores)
		case "":
			for _, t := range filtered {
				if listStocksShowScores {
					fmt.Printf("%-8s %-20s %-10s score=%.2f\n", t.Ticker, t.Name, t.Market, scores[t.Ticker].Total)
				} else {
					fmt.Printf("%-8s %-20s %-10s\n", t.Ticker, t.Name, t.Market)
				}
			}
			return nil
		default:
			return fmt.Errorf("%w: --export must be csv or json, got %q", domain.ErrUserInput, listStocksExport)
		}
	},
}

func exportStocksCSV(w *os.File, rows []storage.Ticker, scores map[string]domain.ScoredRank, showScores bool) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"ticker", "name", "industry", "market"}
	if showScores {
		header = append(header, "score")
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, t := range rows {
		record := []string{t.Ticker, t.Name, t.Industry, t.Market}
		if showScores {
			record = append(record, strconv.FormatFloat(scores[t.Ticker].Total, 'f', 2, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

type stockExportRow struct {
	Ticker   string   `json:"ticker"`
	Name     string   `json:"name"`
	Industry string   `json:"industry"`
	Market   string   `json:"market"`
	Score    *float64 `json:"score,omitempty"`
}

func exportStocksJSON(w *os.File, rows []storage.Ticker, scores map[string]domain.ScoredRank, showScores bool) error {
	out := make([]stockExportRow, len(rows))
	for i, t := range rows {
		out[i] = stockExportRow{Ticker: t.Ticker, Name: t.Name, Industry: t.Industry, Market: t.Market}
		if showScores {
			score := scores[t.Ticker].Total
			out[i].Score = &score
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	listStocksCmd.Flags().StringVar(&listStocksMarket, "market", "", "filter by market (上市|上櫃|興櫃)")
	listStocksCmd.Flags().StringVar(&listStocksIndustry, "industry", "", "filter by industry")
	listStocksCmd.Flags().IntVar(&listStocksLimit, "limit", 0, "max rows to print (0 = all)")
	listStocksCmd.Flags().Float64Var(&listStocksMinScore, "min-score", 0, "drop tickers below this total score")
	listStocksCmd.Flags().BoolVar(&listStocksShowScores, "show-scores", false, "compute and show the composite score")
	listStocksCmd.Flags().StringVar(&listStocksExport, "export", "", "csv|json (default: plain text to stdout)")
}
