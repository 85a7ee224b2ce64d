package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/vrok/internal/classify"
	"github.com/iconidentify/vrok/internal/domain"
	"github.com/iconidentify/vrok/internal/downloader"
	"github.com/iconidentify/vrok/internal/metrics"
)

// Prober runs the media probing tool.
type Prober interface {
	ProbeBuffer(ctx context.Context, sample []byte) (*domain.MediaMetadata, error)
	ProbeLocation(ctx context.Context, location string) (*domain.MediaMetadata, error)
}

// ExtractionService decides how a location is probed and runs the
// head-then-tail fallback for sampled windows.
type ExtractionService struct {
	fetcher    downloader.RangeFetcher
	prober     Prober
	windowSize int64
	logger     *slog.Logger
}

// NewExtractionService creates a new extraction service. A non-positive
// windowSize selects domain.DefaultWindowSize.
func NewExtractionService(
	fetcher downloader.RangeFetcher,
	prober Prober,
	windowSize int64,
	logger *slog.Logger,
) *ExtractionService {
	if windowSize <= 0 {
		windowSize = domain.DefaultWindowSize
	}
	return &ExtractionService{
		fetcher:    fetcher,
		prober:     prober,
		windowSize: windowSize,
		logger:     logger,
	}
}

// Extract determines the metadata of the media at location.
//
// Locations classified as AVI are probed directly with no fallback.
// Everything else is probed from the primary (head) window and, if that
// fetch or probe fails, once from the secondary (tail) window. Only the
// secondary failure is reported.
func (s *ExtractionService) Extract(ctx context.Context, location string) (*domain.ExtractionResult, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, domain.ErrLocationRequired
	}

	id := domain.ExtractionID(uuid.New().String())
	start := time.Now()
	mediaType, _ := classify.Classify(location)

	logger := s.logger.With(
		"extraction_id", id.String(),
		"url", location,
		"media_type", mediaType,
	)
	logger.Info("extracting metadata")

	result := &domain.ExtractionResult{
		ID:        id,
		MediaType: mediaType,
	}

	var err error
	if classify.RequiresDirectProbe(mediaType) {
		result.Path = domain.PathDirect
		result.Metadata, err = s.probeDirect(ctx, location)
	} else {
		result.Path = domain.PathWindowed
		result.Window, result.Metadata, err = s.probeWindowed(ctx, location, logger)
	}

	result.Duration = time.Since(start)
	metrics.RecordExtraction(string(result.Path), err == nil, result.Duration)

	if err != nil {
		extErr := domain.NewExtractionError(id, result.Path, err)
		logger.Error("metadata extraction failed",
			"path", result.Path,
			"kind", extErr.Kind(),
			"error", err,
			"duration", result.Duration,
		)
		return nil, extErr
	}

	logger.Info("metadata extracted",
		"path", result.Path,
		"window", result.Window,
		"format", result.Metadata.FormatName(),
		"streams", result.Metadata.StreamCount(),
		"duration", result.Duration,
	)
	return result, nil
}

func (s *ExtractionService) probeDirect(ctx context.Context, location string) (*domain.MediaMetadata, error) {
	md, err := s.prober.ProbeLocation(ctx, location)
	recordAttempt("direct", err)
	return md, err
}

func (s *ExtractionService) probeWindowed(ctx context.Context, location string, logger *slog.Logger) (domain.WindowRole, *domain.MediaMetadata, error) {
	md, err := s.attempt(ctx, location, domain.WindowPrimary, domain.PrimaryWindow(s.windowSize))
	if err == nil {
		return domain.WindowPrimary, md, nil
	}

	logger.Warn("first attempt failed, trying tail window",
		"kind", domain.KindOf(err),
		"error", err,
	)

	md, err = s.attempt(ctx, location, domain.WindowSecondary, domain.SecondaryWindow(s.windowSize))
	if err != nil {
		return domain.WindowSecondary, nil, err
	}
	return domain.WindowSecondary, md, nil
}

// attempt fetches a fresh sample for window and probes it.
func (s *ExtractionService) attempt(ctx context.Context, location string, role domain.WindowRole, window domain.ByteWindow) (*domain.MediaMetadata, error) {
	sample, err := s.fetcher.Fetch(ctx, location, window)
	if err != nil {
		recordAttempt(string(role), err)
		return nil, err
	}
	metrics.AddFetchedBytes(len(sample))

	s.logger.Debug("probing sample",
		"url", location,
		"window", role,
		"range", window.RangeHeader(),
		"bytes", len(sample),
	)

	md, err := s.prober.ProbeBuffer(ctx, sample)
	recordAttempt(string(role), err)
	return md, err
}

func recordAttempt(window string, err error) {
	result := "ok"
	if err != nil {
		result = string(domain.KindOf(err))
	}
	metrics.RecordAttempt(window, result)
}
