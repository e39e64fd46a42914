// Package config implements the process-wide settings store. Settings are
// read once at startup from a YAML or JSON file and are immutable afterwards;
// every composable object holds a shared read-only reference to the same
// Store for the lifetime of the process.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// configBasename is tried with each supported extension when no explicit
// file is given.
const configBasename = "config"

// yaml.v3 parses JSON as a subset, so both formats go through one loader.
var supportedExts = []string{".yaml", ".yml", ".json"}

// Store holds the loaded settings. Immutable after Load returns.
type Store struct {
	filename string
	settings map[string]any
}

// Load reads the settings file. A .env file next to the process, if present,
// is loaded first and the raw file content is passed through os.ExpandEnv so
// settings can reference environment variables.
func Load(filename string) (*Store, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	path, err := resolvePath(filename)
	if err != nil {
		return nil, err
	}

	settings := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	return &Store{filename: path, settings: settings}, nil
}

// NewFromMap builds a Store directly from settings. Used by tests and by
// callers that assemble settings programmatically.
func NewFromMap(settings map[string]any) *Store {
	if settings == nil {
		settings = map[string]any{}
	}
	return &Store{settings: settings}
}

// resolvePath returns the settings file to load: the explicit filename if
// given, otherwise the first config.{yaml,yml,json} found. A blog with no
// config file at all is legal (all defaults).
func resolvePath(filename string) (string, error) {
	if filename != "" {
		if _, err := os.Stat(filename); err != nil {
			return "", fmt.Errorf("configuration file not found: %s", filename)
		}
		return filename, nil
	}
	for _, ext := range supportedExts {
		trial := configBasename + ext
		if _, err := os.Stat(trial); err == nil {
			return trial, nil
		}
	}
	return "", nil
}

// Filename returns the path the settings were loaded from, or "" when no
// config file was found.
func (s *Store) Filename() string { return s.filename }

// Value returns the raw setting for key and whether it was present.
func (s *Store) Value(key string) (any, bool) {
	v, ok := s.settings[key]
	return v, ok
}

// Get returns the setting for key, or def when absent.
func (s *Store) Get(key string, def any) any {
	if v, ok := s.settings[key]; ok {
		return v
	}
	return def
}

// String returns the setting for key coerced to a string.
func (s *Store) String(key, def string) string {
	v, ok := s.settings[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Int returns the setting for key coerced to an int.
func (s *Store) Int(key string, def int) int {
	v, ok := s.settings[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return def
	}
}

// Bool returns the setting for key coerced to a bool.
func (s *Store) Bool(key string, def bool) bool {
	if v, ok := s.settings[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// StringSlice returns the setting for key as a string slice. A scalar string
// value is returned as a one-element slice.
func (s *Store) StringSlice(key string, def []string) []string {
	v, ok := s.settings[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case []string:
		return t
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return def
	}
}

// Extensions returns the declared extension list, in declaration order. The
// order is semantically significant: later extensions override earlier ones
// on property collisions. An empty list is legal and yields the unmodified
// base roles.
func (s *Store) Extensions() []string {
	return s.StringSlice("extensions", nil)
}

// EntriesDir returns the directory scanned for entry source files.
func (s *Store) EntriesDir() string { return s.String("entries_dir", "entries") }

// EntryExt returns the filename extension identifying entry source files.
func (s *Store) EntryExt() string { return s.String("entry_ext", ".html") }

// TemplateDir returns the directory searched for template overrides.
func (s *Store) TemplateDir() string { return s.String("template_dir", "templates") }

// CacheDir returns the directory holding metadata cache files. Defaults to
// the entries directory, matching where the cached data comes from.
func (s *Store) CacheDir() string {
	return s.String("cache_dir", s.EntriesDir())
}

// CacheFile returns the path of the named metadata cache file.
func (s *Store) CacheFile(name string) string {
	return filepath.Join(s.CacheDir(), name)
}
