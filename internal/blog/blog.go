package blog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/kvernberg/blogsmith/internal/config"
	"github.com/kvernberg/blogsmith/internal/errors"
	"github.com/kvernberg/blogsmith/internal/metacache"
	"github.com/kvernberg/blogsmith/internal/version"
)

// Generator identification, exposed to templates.
const (
	GeneratorName = "blogsmith"
	GeneratorURI  = "https://github.com/kvernberg/blogsmith"
)

// GeneratorVersion follows the build version.
var GeneratorVersion = version.Version

// metadataBasename is tried with each supported extension when no explicit
// blog metadata file is given.
const metadataBasename = "blog"

// Blog is the root aggregate: metadata, the shared config reference, the
// scanned entries, and the page set derived from them. A blog is constructed
// after composition finishes; the composite it holds never changes.
type Blog struct {
	Config *config.Store
	Comp   *Composite
	Caches *metacache.Manager
	Logger *slog.Logger

	// Metadata is loaded from the blog metadata file, separate from the
	// config: name, description, charset, base URL, and whatever
	// extensions add.
	Metadata map[string]any

	// Shared is the cross-extension blackboard: containers built by one
	// extension (tags, archives) that another (links) consumes.
	Shared map[string]any

	index     *Container
	entries   []*Entry
	scanned   bool
	sources   []PageSource
	sourced   bool
	pages     []*Page
	paged     bool
	templates map[string]*template.Template
}

// Load constructs the blog: read the metadata file, verify required keys,
// apply defaults, then run the composed blog initializers in declaration
// order.
func Load(cfg *config.Store, comp *Composite, metafile string, logger *slog.Logger) (*Blog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	caches := metacache.NewManager(cfg.CacheDir()).WithLogger(logger)
	if comp.Recorder != nil {
		caches.WithRecorder(comp.Recorder)
	}
	b := &Blog{
		Config:   cfg,
		Comp:     comp,
		Caches:   caches,
		Logger:   logger,
		Metadata: map[string]any{},
		Shared:   map[string]any{},
	}
	if err := b.loadMetadata(metafile); err != nil {
		return nil, err
	}
	for _, key := range comp.Blog.RequiredMeta {
		if _, ok := b.Metadata[key]; !ok {
			return nil, errors.New(errors.CategoryMetadata, errors.SeverityFatal,
				fmt.Sprintf("%s missing from blog metadata", key))
		}
	}
	if _, ok := b.Metadata["charset"]; !ok {
		b.Metadata["charset"] = "utf-8"
	}
	b.index = NewIndex(b)
	for _, init := range comp.Blog.Inits {
		if err := init(b); err != nil {
			return nil, fmt.Errorf("blog init: %w", err)
		}
	}
	return b, nil
}

func (b *Blog) loadMetadata(metafile string) error {
	path := metafile
	if path == "" {
		for _, ext := range []string{".yaml", ".yml", ".json"} {
			trial := metadataBasename + ext
			if _, err := os.Stat(trial); err == nil {
				path = trial
				break
			}
		}
	}
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.CategoryMetadata, errors.SeverityFatal,
			"failed to read blog metadata file")
	}
	if err := yaml.Unmarshal(data, &b.Metadata); err != nil {
		return errors.Wrap(err, errors.CategoryMetadata, errors.SeverityFatal,
			"failed to parse blog metadata file")
	}
	return nil
}

// Prop resolves a named blog property through the composed blog table.
func (b *Blog) Prop(name string) (any, error) {
	fn, ok := b.Comp.Blog.Props[name]
	if !ok {
		return nil, errors.New(errors.CategoryInternal, errors.SeverityError,
			fmt.Sprintf("blog has no property %q", name))
	}
	return fn(b)
}

// AllEntries scans the entries directory (recursively: subdirectories are
// legal and give entries slash-separated cachekeys) and constructs one entry
// per source file. The scan runs once; the result is shared.
func (b *Blog) AllEntries() ([]*Entry, error) {
	if b.scanned {
		return b.entries, nil
	}
	dir := b.Config.EntriesDir()
	ext := b.Config.EntryExt()
	var keys []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(strings.TrimSuffix(rel, ext)))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			b.scanned = true
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal,
			"failed to scan entries directory").WithContext("dir", dir)
	}
	entries := make([]*Entry, 0, len(keys))
	for _, key := range keys {
		e, err := NewEntry(b, key)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	b.entries = entries
	b.scanned = true
	b.Logger.Debug("scanned entries", "dir", dir, "count", len(entries))
	return entries, nil
}

// Index returns the default all-entries container.
func (b *Blog) Index() *Container { return b.index }

// Sources builds the ordered (source, format) list the page set derives
// from: the index container in every index format, then every entry in every
// entry format, then whatever the composed source modifiers add, remove, or
// replace (tag and archive containers, pagination).
func (b *Blog) Sources() ([]PageSource, error) {
	if b.sourced {
		return b.sources, nil
	}
	entries, err := b.AllEntries()
	if err != nil {
		return nil, err
	}
	var sources []PageSource
	for _, format := range b.Config.StringSlice("index_formats", []string{"html"}) {
		sources = append(sources, PageSource{Source: b.index, Format: format})
	}
	for _, e := range entries {
		for _, format := range b.Config.StringSlice("entry_formats", []string{"html"}) {
			sources = append(sources, PageSource{Source: e, Format: format})
		}
	}
	for _, mod := range b.Comp.Blog.SourcesMods {
		if sources, err = mod(b, sources); err != nil {
			return nil, err
		}
	}
	b.sources = sources
	b.sourced = true
	return sources, nil
}

// Pages builds one page per source, then applies the composed page-list
// modifiers (link index pages and the like).
func (b *Blog) Pages() ([]*Page, error) {
	if b.paged {
		return b.pages, nil
	}
	sources, err := b.Sources()
	if err != nil {
		return nil, err
	}
	pages := make([]*Page, 0, len(sources))
	for _, ps := range sources {
		p, err := NewPage(b, ps.Source, ps.Format)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	for _, mod := range b.Comp.Blog.PagesMods {
		if pages, err = mod(b, pages); err != nil {
			return nil, err
		}
	}
	b.pages = pages
	b.paged = true
	return pages, nil
}

// baseBlogProps is the blog role's behavior with zero extensions.
func baseBlogProps() map[string]BlogProp {
	return map[string]BlogProp{
		"name": func(b *Blog) (any, error) {
			if v, ok := b.Metadata["name"]; ok {
				return v, nil
			}
			return "", nil
		},
	}
}
