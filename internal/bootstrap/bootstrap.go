// Package bootstrap estimates a confidence interval on maximum drawdown by
// resampling a back-test's per-period returns.
package bootstrap

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// defaultIterations is the default resample count.
const defaultIterations = 1000

// Result is the empirical MDD distribution's confidence interval.
type Result struct {
	Lower2_5  float64
	Upper97_5 float64
	Samples   []float64
}

// Run draws |returns| returns with replacement for iterations rounds
// (default 1000 if iterations <= 0), reconstructs an equity path from 1
// for each resample, and reports the 2.5th/97.5th percentiles of the
// resulting MDD distribution. rng drives every draw so the result is
// reproducible given a seeded source.
func Run(returns []float64, iterations int, rng *rand.Rand) Result {
	if iterations <= 0 {
		iterations = defaultIterations
	}
	if len(returns) == 0 {
		return Result{}
	}

	samples := make([]float64, iterations)
	for i := 0; i < iterations; i++ {
		samples[i] = resampleMDD(returns, rng)
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	return Result{
		Lower2_5:  stat.Quantile(0.025, stat.Empirical, sorted, nil),
		Upper97_5: stat.Quantile(0.975, stat.Empirical, sorted, nil),
		Samples:   samples,
	}
}

// resampleMDD draws len(returns) returns with replacement from returns,
// walks an equity path starting at 1, and returns that path's maximum
// drawdown.
func resampleMDD(returns []float64, rng *rand.Rand) float64 {
	equity := 1.0
	peak := 1.0
	worst := 0.0
	for i := 0; i < len(returns); i++ {
		idx := rng.Intn(len(returns))
		equity *= 1 + returns[idx]
		if equity > peak {
			peak = equity
		}
		if dd := equity/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}
