package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iconidentify/vrok/internal/api"
	"github.com/iconidentify/vrok/internal/api/handler"
	"github.com/iconidentify/vrok/internal/config"
	"github.com/iconidentify/vrok/internal/downloader"
	"github.com/iconidentify/vrok/internal/service"
	"github.com/iconidentify/vrok/internal/worker"
	"github.com/iconidentify/vrok/pkg/ffmpeg"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vrok %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting vrok",
		"version", Version,
		"build_time", BuildTime,
		"window_size", cfg.Fetch.WindowSize,
		"ffprobe", cfg.Probe.FFprobePath,
	)

	prober := ffmpeg.NewProber(cfg.Probe.FFprobePath, cfg.Probe.Timeout, logger)
	if !prober.Available() {
		logger.Warn("ffprobe not found, extractions will fail until it is installed", "path", cfg.Probe.FFprobePath)
	}

	fetcher := downloader.NewHTTPDownloader(cfg.Fetch)
	fetcher.SetLogger(logger)

	// Bound concurrent ffprobe processes
	pool := worker.NewPool(worker.Config{Workers: cfg.Probe.Workers}, prober, logger)
	pool.Start()

	extractionSvc := service.NewExtractionService(fetcher, pool, cfg.Fetch.WindowSize, logger)

	router := api.NewRouter(
		handler.NewExtractHandler(extractionSvc, logger),
		handler.NewHealthHandler(prober, Version),
		api.RouterConfig{
			APIKey:          cfg.Server.APIKey,
			RateLimit:       cfg.Server.RateLimit,
			RateLimitWindow: cfg.Server.RateWindow,
			RequestTimeout:  cfg.Server.RequestTimeout,
		},
		logger,
	)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr, "auth", cfg.Server.APIKey != "")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// In-flight extractions are bounded by the request timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Stop workers (allow in-flight probes to complete)
	if err := pool.Stop(25 * time.Second); err != nil {
		logger.Error("worker pool shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
