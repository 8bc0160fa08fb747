package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostModel_Apply_MatchesSeedArithmetic(t *testing.T) {
	c := CostModel{Brokerage: 0.001, Tax: 0.002, Slippage: 0.001}
	assert.InDelta(t, 100.2001001, c.Apply(100, Buy), 1e-6)
	assert.InDelta(t, 99.6003, c.Apply(100, Sell), 1e-6)
}

func TestCostModel_Monotonicity(t *testing.T) {
	c := DefaultCostModel()
	assert.Greater(t, c.Apply(100, Buy), 100.0)
	assert.Less(t, c.Apply(100, Sell), 100.0)
}

func TestZeroCostModel_IsIdentity(t *testing.T) {
	c := ZeroCostModel()
	assert.Equal(t, 100.0, c.Apply(100, Buy))
	assert.Equal(t, 100.0, c.Apply(100, Sell))
}
