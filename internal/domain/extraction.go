package domain

import (
	"time"
)

// ExtractionID is a unique identifier for one extraction.
type ExtractionID string

// String returns the string representation of the ExtractionID.
func (id ExtractionID) String() string {
	return string(id)
}

// ProbePath is the route an extraction took.
type ProbePath string

const (
	// PathDirect probes the location itself; no bytes are sampled.
	PathDirect ProbePath = "direct"
	// PathWindowed probes sampled byte windows.
	PathWindowed ProbePath = "windowed"
)

// WindowRole names which canonical window an attempt used.
type WindowRole string

const (
	WindowPrimary   WindowRole = "primary"
	WindowSecondary WindowRole = "secondary"
)

// ExtractionResult is the successful outcome of an extraction.
type ExtractionResult struct {
	ID        ExtractionID
	MediaType string
	Path      ProbePath
	// Window is the window whose sample produced Metadata; empty for PathDirect.
	Window    WindowRole
	Metadata  *MediaMetadata
	Duration  time.Duration
}
