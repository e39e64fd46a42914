package metacache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvernberg/blogsmith/internal/errors"
	"github.com/kvernberg/blogsmith/internal/metrics"
)

func TestMissingFileIsEmptyCache(t *testing.T) {
	m := NewManager(t.TempDir())
	c := m.Cache("titles")

	_, ok, err := c.Get("first-post", "title")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := c.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPutGetFlushRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	c := m.Cache("titles")
	require.NoError(t, c.Put("first-post", "title", "Hello World"))
	require.NoError(t, c.Put("second-post", "title", "Another"))
	require.NoError(t, m.Flush())

	// A fresh manager simulates a new process reopening the cache file.
	reopened := NewManager(dir).Cache("titles")
	v, ok, err := reopened.Get("first-post", "title")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Hello World", v)
}

func TestCacheFileFormat(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	require.NoError(t, m.Cache("tags").Put("post", "tags", []string{"go", "blog"}))
	require.NoError(t, m.Flush())

	data, err := os.ReadFile(filepath.Join(dir, "tags"))
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []any{"go", "blog"}, decoded["post"]["tags"])
}

func TestFlushSkipsCleanCaches(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	m.Cache("titles") // opened but never written

	require.NoError(t, m.Flush())
	_, err := os.Stat(filepath.Join(dir, "titles"))
	assert.True(t, os.IsNotExist(err))
}

func TestFlushCreatesCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	m := NewManager(dir)
	require.NoError(t, m.Cache("titles").Put("post", "title", "T"))
	require.NoError(t, m.Flush())

	_, err := os.Stat(filepath.Join(dir, "titles"))
	assert.NoError(t, err)
}

func TestCorruptFileSurfacesCacheError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "titles"), []byte("{not json"), 0o644))

	c := NewManager(dir).Cache("titles")
	_, _, err := c.Get("post", "title")
	require.Error(t, err)
	assert.True(t, errors.IsCacheIO(err))
}

func TestManagerReturnsSameCache(t *testing.T) {
	m := NewManager(t.TempDir())
	assert.Same(t, m.Cache("titles"), m.Cache("titles"))
}

type countingRecorder struct {
	metrics.NoopRecorder
	hits, misses int
}

func (r *countingRecorder) IncCacheHit(string)  { r.hits++ }
func (r *countingRecorder) IncCacheMiss(string) { r.misses++ }

func TestWithRecorderReachesExistingCaches(t *testing.T) {
	m := NewManager(t.TempDir())
	c := m.Cache("timestamps") // handed out before the recorder is attached
	rec := &countingRecorder{}
	m.WithRecorder(rec)

	_, ok, err := c.Get("post", "timestamp")
	require.NoError(t, err)
	require.False(t, ok)
	assert.Equal(t, 1, rec.misses)

	require.NoError(t, c.Put("post", "timestamp", "2023-04-01-10-30"))
	_, ok, err = c.Get("post", "timestamp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, rec.hits)
}

func TestFlushRewritesWholeFile(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	require.NoError(t, m.Cache("titles").Put("a", "title", "A"))
	require.NoError(t, m.Flush())

	m2 := NewManager(dir)
	require.NoError(t, m2.Cache("titles").Put("b", "title", "B"))
	require.NoError(t, m2.Flush())

	c := NewManager(dir).Cache("titles")
	// Existing records survive a rewrite because the file is loaded before
	// the first Put.
	v, ok, err := c.Get("a", "title")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", v)
	v, ok, err = c.Get("b", "title")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "B", v)
}
