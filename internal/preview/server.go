// Package preview serves the rendered site locally and rebuilds it when
// entry sources or templates change.
package preview

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kvernberg/blogsmith/internal/config"
)

const debounceDelay = 300 * time.Millisecond

// RebuildFunc regenerates the site. It is called once before serving and
// again after every debounced change burst.
type RebuildFunc func(context.Context) error

// Server is the local preview loop: a static file server over the output
// directory plus a filesystem watcher driving rebuilds.
type Server struct {
	cfg     *config.Store
	outDir  string
	addr    string
	rebuild RebuildFunc
	logger  *slog.Logger

	mu        sync.RWMutex
	lastError error
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func New(cfg *config.Store, outDir, addr string, rebuild RebuildFunc, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		outDir:  outDir,
		addr:    addr,
		rebuild: rebuild,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LastError returns the error from the most recent rebuild, or nil.
func (s *Server) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *Server) setError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()
}

// Run performs the initial build, starts the file server, and processes
// change events until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.rebuild(ctx); err != nil {
		s.logger.Error("initial build failed", "error", err)
		s.setError(err)
	}

	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: http.FileServer(http.Dir(s.outDir)),
	}
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.logger.Info("preview server listening", "addr", s.addr, "dir", s.outDir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	for _, dir := range s.watchDirs() {
		if err := addDirsRecursive(watcher, dir); err != nil {
			s.logger.Warn("watch setup failed", "dir", dir, "error", err)
		}
	}

	rebuildReq, trigger := newDebouncer(debounceDelay)
	go s.rebuildWorker(ctx, rebuildReq)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down preview server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

// watchDirs lists the directories whose changes invalidate the site.
func (s *Server) watchDirs() []string {
	dirs := []string{s.cfg.EntriesDir()}
	if tdir := s.cfg.TemplateDir(); tdir != "" {
		if st, err := os.Stat(tdir); err == nil && st.IsDir() {
			dirs = append(dirs, tdir)
		}
	}
	return dirs
}

func (s *Server) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	s.logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
	trigger()
}

// rebuildWorker serializes rebuilds: a request arriving mid-build is
// coalesced into one follow-up run.
func (s *Server) rebuildWorker(ctx context.Context, rebuildReq chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			s.logger.Info("change detected; rebuilding site")
			if err := s.rebuild(ctx); err != nil {
				s.logger.Warn("rebuild failed", "error", err)
				s.setError(err)
			} else {
				s.setError(nil)
			}
		}
	}
}

// newDebouncer returns a request channel and a trigger that collapses event
// bursts into a single request after delay.
func newDebouncer(delay time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports filesystem events that must not trigger
// rebuilds: hidden files and editor temp/swap files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	return false
}
