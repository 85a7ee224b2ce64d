package downloader

import (
	"context"

	"github.com/iconidentify/vrok/internal/domain"
)

// RangeFetcher fetches byte windows of remote resources.
type RangeFetcher interface {
	// Fetch issues a single range request for window and returns the body.
	// Failures are returned as *domain.TransportError.
	Fetch(ctx context.Context, location string, window domain.ByteWindow) ([]byte, error)
}
