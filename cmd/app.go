package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/chenhom/gugo-screener/internal/cache"
	"github.com/chenhom/gugo-screener/internal/config"
	"github.com/chenhom/gugo-screener/internal/factors/fundflow"
	"github.com/chenhom/gugo-screener/internal/factors/growth"
	"github.com/chenhom/gugo-screener/internal/factors/momentum"
	"github.com/chenhom/gugo-screener/internal/factors/price"
	"github.com/chenhom/gugo-screener/internal/factors/quality"
	"github.com/chenhom/gugo-screener/internal/factors/valuation"
	"github.com/chenhom/gugo-screener/internal/storage"
	"github.com/chenhom/gugo-screener/internal/universe"
	"github.com/chenhom/gugo-screener/internal/upstream"
	"github.com/chenhom/gugo-screener/pkg/logger"
)

// app bundles every long-lived handle a CLI command needs: configuration,
// the three SQLite stores, the cached primary/fallback sources, and the
// per-factor fetchers built on top of them. Each command's RunE builds one
// with newApp() and releases it with close() when it returns.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *storage.Store

	primary  upstream.Source
	fallback upstream.Source

	valuation *valuation.Fetcher
	growth    *growth.Fetcher
	quality   *quality.Fetcher
	fundFlow  *fundflow.Fetcher
	momentum  *momentum.Fetcher
	price     *price.Fetcher
	universe  *universe.Service
}

// newApp loads configuration, opens the three databases, and wires the
// cached upstream sources and every per-factor fetcher. The caller must
// call close() when done.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	store, err := storage.Open(storage.Paths{
		Fundamentals: cfg.FundamentalsDBPath(),
		Quality:      cfg.QualityDBPath(),
		Price:        cfg.PriceDBPath(),
	})
	if err != nil {
		return nil, fmt.Errorf("open databases: %w", err)
	}

	respCache, err := cache.New(cfg.CacheDir(), time.Duration(cfg.CacheTTLHours)*time.Hour)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open response cache: %w", err)
	}

	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	rawPrimary := upstream.NewPrimary(upstream.DefaultPrimaryBaseURL, timeout, log)
	rawFallback := upstream.NewFallback(upstream.DefaultFallbackBaseURL, cfg.FinMindToken, timeout, log)

	primary := upstream.NewCachedSource(rawPrimary, respCache)
	fallback := upstream.NewCachedSource(rawFallback, respCache)

	a := &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		primary:  primary,
		fallback: fallback,
	}

	a.valuation = valuation.New(primary, fallback, store.Fundamentals, log)
	a.growth = growth.New(primary, fallback, store.Fundamentals, log)
	a.quality = quality.New(primary, fallback, store.Quality, log)
	a.fundFlow = fundflow.New(primary, fallback, store.Fundamentals, log)
	a.momentum = momentum.New(store.Price, log)
	a.price = price.New(primary, fallback, store.Price, log)
	a.universe = universe.New(primary, fallback, store.Fundamentals, log)

	return a, nil
}

// close releases every long-lived handle the app holds.
func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// ledgerDir is where the batch executor's resumable progress files live,
// named "progress_<task>.json", one file per task name.
func (a *app) ledgerDir() string {
	return a.cfg.DataDir
}

// hasPrice, hasValuation, hasQuality, and hasFundFlow back the "already
// cached" skip in each fetch-* command: when the window is already on
// disk and --force was not given, the fetcher is not invoked at all. A
// storage error here is treated as "not cached" so the fetch proceeds
// and any real problem surfaces from the fetch itself.
func (a *app) hasPrice(ticker string, from, to time.Time) bool {
	bars, err := a.store.Price.Series(ticker, from, to)
	return err == nil && len(bars) > 0
}

func (a *app) hasValuation(ticker string, from, to time.Time) bool {
	ok, err := a.store.Fundamentals.HasValuation(ticker, from, to)
	return err == nil && ok
}

func (a *app) hasQuality(ticker string, from, to time.Time) bool {
	ok, err := a.store.Quality.HasQuality(ticker, from, to)
	return err == nil && ok
}

func (a *app) hasFundFlow(ticker string, asOf time.Time, days int) bool {
	rows, err := a.store.Fundamentals.FundFlowWindow(ticker, asOf, days)
	return err == nil && len(rows) > 0
}

func (a *app) hasGrowth(ticker string, months int) bool {
	rows, err := a.store.Fundamentals.GrowthSeries(ticker, months)
	return err == nil && len(rows) > 0
}
