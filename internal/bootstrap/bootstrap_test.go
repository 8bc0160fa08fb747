package bootstrap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_ZeroReturnsYieldsZeroDrawdownInterval(t *testing.T) {
	returns := []float64{0, 0, 0, 0}
	result := Run(returns, 200, rand.New(rand.NewSource(1)))
	assert.Equal(t, 0.0, result.Lower2_5)
	assert.Equal(t, 0.0, result.Upper97_5)
}

func TestRun_NegativeReturnsProduceNonZeroDrawdown(t *testing.T) {
	returns := []float64{-0.05, -0.03, 0.01, -0.02}
	result := Run(returns, 500, rand.New(rand.NewSource(7)))
	assert.Less(t, result.Lower2_5, 0.0)
	assert.LessOrEqual(t, result.Upper97_5, 0.0)
}

func TestRun_EmptyReturnsYieldsZeroValueResult(t *testing.T) {
	result := Run(nil, 100, rand.New(rand.NewSource(1)))
	assert.Nil(t, result.Samples)
}

func TestRun_DefaultsIterationsWhenNonPositive(t *testing.T) {
	returns := []float64{0.01, -0.01}
	result := Run(returns, 0, rand.New(rand.NewSource(1)))
	assert.Len(t, result.Samples, defaultIterations)
}
