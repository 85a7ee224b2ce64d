package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/iconidentify/vrok/internal/config"
	"github.com/iconidentify/vrok/internal/domain"
)

// HTTPDownloader implements RangeFetcher using HTTP range requests.
type HTTPDownloader struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewHTTPDownloader creates a new HTTP range fetcher.
func NewHTTPDownloader(cfg config.FetchConfig) *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger used for fetch diagnostics.
func (d *HTTPDownloader) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// Fetch downloads window from location. It never retries. When a server
// ignores Range, a head window is cut from the full body at the window
// length and a suffix window fails with domain.ErrRangeNotHonored.
func (d *HTTPDownloader) Fetch(ctx context.Context, location string, window domain.ByteWindow) ([]byte, error) {
	fail := func(status int, err error) error {
		return &domain.TransportError{
			Location:   location,
			Window:     window,
			StatusCode: status,
			Err:        err,
		}
	}

	if err := window.Validate(); err != nil {
		return nil, fail(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fail(0, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Range", window.RangeHeader())
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	// Compressed bodies would break byte offsets
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fail(0, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, fail(resp.StatusCode, domain.ErrAccessDenied)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fail(resp.StatusCode, domain.ErrRateLimited)
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		return nil, fail(resp.StatusCode, domain.ErrRangeNotSatisfiable)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fail(resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	if resp.StatusCode != http.StatusPartialContent {
		// The body starts at offset 0; its head is not the requested tail.
		if window.IsSuffix() {
			return nil, fail(resp.StatusCode, domain.ErrRangeNotHonored)
		}
		d.logger.Warn("range not honored by server",
			"url", location,
			"range", window.RangeHeader(),
			"status", resp.StatusCode,
		)
	}

	body := io.Reader(resp.Body)
	if n := window.Len(); n > 0 {
		body = io.LimitReader(resp.Body, n)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fail(resp.StatusCode, err)
		}
		return nil, fail(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if len(data) == 0 {
		return nil, fail(resp.StatusCode, domain.ErrEmptySample)
	}

	d.logger.Debug("range fetched",
		"url", location,
		"range", window.RangeHeader(),
		"status", resp.StatusCode,
		"bytes", len(data),
	)

	return data, nil
}
