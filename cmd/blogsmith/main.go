package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/config"
	"github.com/kvernberg/blogsmith/internal/extension"
	_ "github.com/kvernberg/blogsmith/internal/extensions"
	"github.com/kvernberg/blogsmith/internal/metrics"
	"github.com/kvernberg/blogsmith/internal/preview"
	"github.com/kvernberg/blogsmith/internal/render"
	"github.com/kvernberg/blogsmith/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: config.{yaml,yml,json})"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Build struct {
		Output string `short:"o" help:"Output directory for the rendered site" default:"./static"`
		Force  bool   `short:"f" help:"Force writing of unchanged files"`
	} `cmd:"" help:"Render the blog to static files"`

	Init struct {
		Force bool `help:"Overwrite existing files"`
	} `cmd:"" help:"Scaffold a new blog in the current directory"`

	Serve struct {
		Output      string `short:"o" help:"Output directory to serve" default:"./static"`
		Addr        string `short:"a" help:"Listen address" default:"localhost:8000"`
		MetricsAddr string `help:"Expose Prometheus metrics on this address"`
	} `cmd:"" help:"Serve the blog locally and rebuild on changes"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("blogsmith"),
		kong.Description("Extension-composed static blog generator"),
		kong.Vars{"version": version.String()})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch kctx.Command() {
	case "build":
		err = runBuild(ctx, logger, metrics.NoopRecorder{}, CLI.Build.Output, CLI.Build.Force)
	case "init":
		err = runInit(logger, CLI.Init.Force)
	case "serve":
		err = runServe(ctx, logger)
	}
	if err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}

// runBuild composes the blog from config and renders it once.
func runBuild(ctx context.Context, logger *slog.Logger, rec metrics.Recorder, output string, force bool) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	loader := extension.NewLoader(cfg,
		extension.WithLogger(logger),
		extension.WithRecorder(rec))
	comp, err := loader.Compose()
	if err != nil {
		return err
	}
	b, err := blog.Load(cfg, comp, "", logger)
	if err != nil {
		return err
	}

	report, err := render.New(b, output,
		render.WithLogger(logger),
		render.WithRecorder(rec),
		render.WithForce(force)).Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("build finished", "build_id", report.ID,
		"written", report.Written, "skipped", report.Skipped)
	return nil
}

// runServe renders once, serves the output directory, and rebuilds whenever
// entries or templates change.
func runServe(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if addr := CLI.Serve.MetricsAddr; addr != "" {
		registry := prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("metrics endpoint listening", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Warn("metrics endpoint failed", "error", err)
			}
		}()
	}

	// Each rebuild composes a fresh blog so edited entries, templates and
	// metadata are all picked up.
	rebuild := func(ctx context.Context) error {
		return runBuild(ctx, logger, rec, CLI.Serve.Output, false)
	}
	server := preview.New(cfg, CLI.Serve.Output, CLI.Serve.Addr, rebuild,
		preview.WithLogger(logger))
	return server.Run(ctx)
}
