package upstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseROCDate(t *testing.T) {
	d, err := parseROCDate("113/01/02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), d)
}

func TestParseROCDate_Invalid(t *testing.T) {
	_, err := parseROCDate("not-a-date")
	assert.Error(t, err)
}

func TestParseCommaFloat(t *testing.T) {
	v, ok := parseCommaFloat("1,234.56")
	require.True(t, ok)
	assert.InDelta(t, 1234.56, v, 1e-9)

	_, ok = parseCommaFloat("--")
	assert.False(t, ok)

	_, ok = parseCommaFloat("")
	assert.False(t, ok)
}

func TestParseCommaInt(t *testing.T) {
	v, ok := parseCommaInt("12,345")
	require.True(t, ok)
	assert.Equal(t, int64(12345), v)
}
