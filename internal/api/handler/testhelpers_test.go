package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/iconidentify/vrok/internal/domain"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockExtractor is a test implementation of Extractor.
type mockExtractor struct {
	result    *domain.ExtractionResult
	err       error
	locations []string
}

func (m *mockExtractor) Extract(ctx context.Context, location string) (*domain.ExtractionResult, error) {
	m.locations = append(m.locations, location)
	return m.result, m.err
}

// mockToolChecker is a test implementation of ToolChecker.
type mockToolChecker struct {
	version string
	err     error
}

func (m *mockToolChecker) Version(ctx context.Context) (string, error) {
	return m.version, m.err
}
