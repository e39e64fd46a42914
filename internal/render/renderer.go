// Package render writes the composed page set to the static output
// directory. Unchanged files are left alone so web servers and sync tools
// see stable mtimes.
package render

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/errors"
	"github.com/kvernberg/blogsmith/internal/metrics"
)

// Report summarizes one render run.
type Report struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Written  int
	Skipped  int
}

// Renderer renders every page of a blog into the output directory.
type Renderer struct {
	blog   *blog.Blog
	outDir string
	logger *slog.Logger
	rec    metrics.Recorder
	force  bool
}

type Option func(*Renderer)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Renderer) { r.rec = rec }
}

// WithForce makes the renderer rewrite every file, changed or not.
func WithForce(force bool) Option {
	return func(r *Renderer) { r.force = force }
}

func New(b *blog.Blog, outDir string, opts ...Option) *Renderer {
	r := &Renderer{
		blog:   b,
		outDir: outDir,
		logger: b.Logger,
		rec:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run renders all pages, flushes the metadata caches, and reports what was
// written. Context cancellation stops between pages; a started page is
// always written whole.
func (r *Renderer) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		ID:      uuid.NewString(),
		Started: time.Now(),
	}
	logger := r.logger.With("build_id", report.ID)

	pages, err := r.blog.Pages()
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wrote, err := r.renderPage(p, logger)
		if err != nil {
			return nil, err
		}
		if wrote {
			report.Written++
			r.rec.IncPageRendered()
		} else {
			report.Skipped++
			r.rec.IncPageSkipped()
		}
	}

	if err := r.blog.Caches.Flush(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(report.Started)
	r.rec.ObserveBuildDuration(report.Duration)
	logger.Info("render complete",
		"pages", len(pages), "written", report.Written,
		"skipped", report.Skipped, "duration", report.Duration)
	return report, nil
}

// renderPage writes one page, skipping the write when the on-disk content
// already matches.
func (r *Renderer) renderPage(p *blog.Page, logger *slog.Logger) (bool, error) {
	rel, err := p.FilePath()
	if err != nil {
		return false, err
	}
	rendered, err := p.Rendered()
	if err != nil {
		return false, err
	}
	data := []byte(rendered)
	path := filepath.Join(r.outDir, rel)

	if !r.force {
		if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
			logger.Debug("page unchanged", "path", path)
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError,
			"failed to create output directory").WithContext("path", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError,
			"failed to write page").WithContext("path", path)
	}
	logger.Debug("page written", "path", path, "bytes", len(data))
	return true, nil
}
