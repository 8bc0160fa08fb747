package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Value int `json:"value"`
}

func TestCache_StoreAndGetIfFresh(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour)
	require.NoError(t, err)

	key := Key("price", map[string]string{"ticker": "2330", "from": "2024-01-01"})
	require.NoError(t, c.Store(key, samplePayload{Value: 42}))

	var out samplePayload
	fresh := c.GetIfFresh(key, &out)
	require.True(t, fresh)
	assert.Equal(t, 42, out.Value)
}

func TestCache_KeyIsOrderIndependent(t *testing.T) {
	a := Key("price", map[string]string{"ticker": "2330", "from": "2024-01-01"})
	b := Key("price", map[string]string{"from": "2024-01-01", "ticker": "2330"})
	assert.Equal(t, a, b)
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, -time.Second) // already expired
	require.NoError(t, err)

	key := Key("price", nil)
	require.NoError(t, c.Store(key, samplePayload{Value: 1}))

	var out samplePayload
	assert.False(t, c.GetIfFresh(key, &out))
	_, statErr := os.Stat(filepath.Join(dir, key+".json"))
	assert.True(t, os.IsNotExist(statErr), "expired cache file should be deleted on read")
}

func TestCache_CorruptFileIsTreatedAsMissAndRemoved(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour)
	require.NoError(t, err)

	key := "broken_key"
	path := filepath.Join(dir, key+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var out samplePayload
	assert.False(t, c.GetIfFresh(key, &out))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "corrupt cache file should be deleted on read")
}

func TestCache_StoreWithTTL_OverridesDefault(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour)
	require.NoError(t, err)

	key := Key("institutional_flow", map[string]string{"ticker": "2330"})
	require.NoError(t, c.StoreWithTTL(key, samplePayload{Value: 7}, -time.Second))

	var out samplePayload
	assert.False(t, c.GetIfFresh(key, &out), "an entry stored with an already-expired per-entry TTL must miss even though the cache's default TTL is still fresh")
}

func TestCache_DeleteExpired(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour)
	require.NoError(t, err)

	freshKey := Key("price", map[string]string{"a": "1"})
	require.NoError(t, c.Store(freshKey, samplePayload{Value: 1}))

	staleKey := Key("price", map[string]string{"a": "2"})
	stalePath := filepath.Join(dir, staleKey+".json")
	require.NoError(t, os.WriteFile(stalePath, []byte(`{"stored_at":"2000-01-01T00:00:00Z","payload":{"value":2}}`), 0o644))

	removed, err := c.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	var out samplePayload
	assert.True(t, c.GetIfFresh(freshKey, &out))
}
