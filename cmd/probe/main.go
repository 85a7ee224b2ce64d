package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iconidentify/vrok/internal/api/handler"
	"github.com/iconidentify/vrok/internal/config"
	"github.com/iconidentify/vrok/internal/domain"
	"github.com/iconidentify/vrok/internal/downloader"
	"github.com/iconidentify/vrok/internal/service"
	"github.com/iconidentify/vrok/pkg/ffmpeg"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run extracts the metadata of one location and prints the JSON envelope
// to stdout. It returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall extraction timeout")
	verbose := fs.Bool("v", false, "Log progress to stderr")
	showVersion := fs.Bool("version", false, "Show version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: probe [-config file] [-timeout d] <url>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "vrok-probe %s (built %s)\n", Version, BuildTime)
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	fetcher := downloader.NewHTTPDownloader(cfg.Fetch)
	fetcher.SetLogger(logger)
	prober := ffmpeg.NewProber(cfg.Probe.FFprobePath, cfg.Probe.Timeout, logger)
	svc := service.NewExtractionService(fetcher, prober, cfg.Fetch.WindowSize, logger)

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	result, err := svc.Extract(ctx, fs.Arg(0))
	if err != nil {
		message := err.Error()
		var extErr *domain.ExtractionError
		if errors.As(err, &extErr) {
			message = extErr.Reason()
		}
		enc.Encode(handler.ErrorResponse{Success: false, Message: message})
		return 1
	}

	if err := enc.Encode(handler.ExtractResponse{
		Success:  true,
		FileType: result.MediaType,
		Metadata: result.Metadata,
	}); err != nil {
		fmt.Fprintf(stderr, "Error: write output: %v\n", err)
		return 1
	}
	return 0
}
