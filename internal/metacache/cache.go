// Package metacache persists expensive-to-recompute per-entry metadata
// (titles, timestamps, tags, ...) across runs so the blog structure can be
// assembled without reopening every entry source file.
//
// Each declared cache name maps to one JSON file holding a flat mapping from
// entry cachekey to a property-name/value mapping. Files are rewritten whole
// on flush; a single process is assumed to own a cache directory for the
// duration of a run. A stored value is trusted on presence alone; the cache
// is advisory, with no content validation against the entry source.
package metacache

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kvernberg/blogsmith/internal/errors"
	"github.com/kvernberg/blogsmith/internal/metrics"
)

// Cache is the in-memory index over one cache file. Not safe for concurrent
// use.
type Cache struct {
	name    string
	path    string
	logger  *slog.Logger
	rec     metrics.Recorder
	loaded  bool
	dirty   bool
	records map[string]map[string]any
}

// Get returns the stored value for (cachekey, prop). The backing file is
// opened lazily on the first read; a missing file is an empty cache, not an
// error. Read failures surface as cache errors.
func (c *Cache) Get(cachekey, prop string) (any, bool, error) {
	if err := c.load(); err != nil {
		return nil, false, err
	}
	props, ok := c.records[cachekey]
	if !ok {
		c.rec.IncCacheMiss(c.name)
		return nil, false, nil
	}
	v, ok := props[prop]
	if !ok {
		c.rec.IncCacheMiss(c.name)
		return nil, false, nil
	}
	c.rec.IncCacheHit(c.name)
	return v, true, nil
}

// Put stores a freshly computed value and marks the cache dirty. The value
// must be JSON-serializable; callers with richer types encode them first.
func (c *Cache) Put(cachekey, prop string, value any) error {
	if err := c.load(); err != nil {
		return err
	}
	props, ok := c.records[cachekey]
	if !ok {
		props = map[string]any{}
		c.records[cachekey] = props
	}
	props[prop] = value
	c.dirty = true
	return nil
}

// Len returns the number of cachekeys with at least one stored property.
func (c *Cache) Len() (int, error) {
	if err := c.load(); err != nil {
		return 0, err
	}
	return len(c.records), nil
}

func (c *Cache) load() error {
	if c.loaded {
		return nil
	}
	c.records = map[string]map[string]any{}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.loaded = true
			return nil
		}
		return errors.CacheIO(err, c.name, "failed to read cache file")
	}
	if err := json.Unmarshal(data, &c.records); err != nil {
		return errors.CacheIO(err, c.name, "failed to decode cache file")
	}
	c.loaded = true
	c.logger.Debug("loaded metadata cache", "cache", c.name, "keys", len(c.records))
	return nil
}

// Flush rewrites the backing file if the cache has dirty records. The write
// is whole-file; there is no incremental append.
func (c *Cache) Flush() error {
	if !c.dirty {
		return nil
	}
	data, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return errors.CacheIO(err, c.name, "failed to encode cache")
	}
	data = append(data, '\n')
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return errors.CacheIO(err, c.name, "failed to write cache file")
	}
	c.dirty = false
	c.rec.IncCacheFlush(c.name)
	c.logger.Debug("flushed metadata cache", "cache", c.name, "keys", len(c.records))
	return nil
}

// Manager hands out the per-name caches and flushes them together at the end
// of a run.
type Manager struct {
	dir    string
	logger *slog.Logger
	rec    metrics.Recorder
	caches map[string]*Cache
}

// NewManager creates a cache manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:    dir,
		logger: slog.Default(),
		rec:    metrics.NoopRecorder{},
		caches: map[string]*Cache{},
	}
}

// WithLogger sets a custom logger, on the manager and on caches already
// handed out.
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	m.logger = logger
	for _, c := range m.caches {
		c.logger = logger
	}
	return m
}

// WithRecorder sets a metrics recorder. Caches created before the call pick
// it up too, so hits and misses from early accessors are not lost to the
// noop recorder.
func (m *Manager) WithRecorder(rec metrics.Recorder) *Manager {
	m.rec = rec
	for _, c := range m.caches {
		c.rec = rec
	}
	return m
}

// Cache returns the cache for name, creating its in-memory index on first
// use. The same *Cache is returned for repeated lookups of one name.
func (m *Manager) Cache(name string) *Cache {
	if c, ok := m.caches[name]; ok {
		return c
	}
	c := &Cache{
		name:   name,
		path:   filepath.Join(m.dir, name),
		logger: m.logger,
		rec:    m.rec,
	}
	m.caches[name] = c
	return c
}

// Flush writes every dirty cache back to disk. The cache directory is created
// on demand so a fresh blog tree works without setup.
func (m *Manager) Flush() error {
	dirty := false
	for _, c := range m.caches {
		if c.dirty {
			dirty = true
			break
		}
	}
	if !dirty {
		return nil
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return errors.CacheIO(err, "", "failed to create cache directory")
	}
	for _, c := range m.caches {
		if err := c.Flush(); err != nil {
			return err
		}
	}
	return nil
}
