package domain

import "errors"

// Domain errors.
var (
	// ErrLocationRequired is returned when an extraction has no location.
	ErrLocationRequired = errors.New("videoUrl is required")

	// ErrAccessDenied is returned when the remote source rejects the request.
	ErrAccessDenied = errors.New("access to remote resource denied")

	// ErrRateLimited is returned when rate limited by the remote source.
	ErrRateLimited = errors.New("rate limited")

	// ErrRangeNotSatisfiable is returned when the remote source rejects the byte range.
	ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")

	// ErrRangeNotHonored is returned when a tail window is answered with
	// something other than 206 Partial Content.
	ErrRangeNotHonored = errors.New("server ignored suffix range")

	// ErrUnsupportedLocation is returned when a location is not an http(s) URL.
	ErrUnsupportedLocation = errors.New("location must be an http or https URL")

	// ErrEmptySample is returned when a range request yields no bytes.
	ErrEmptySample = errors.New("empty response body")

	// ErrToolNotFound is returned when the probing tool cannot be started.
	ErrToolNotFound = errors.New("ffprobe not found")
)

// ErrorKind tags the failure class of an extraction error.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindTransport       ErrorKind = "transport"
	KindToolFailure     ErrorKind = "tool_failure"
	KindMalformedOutput ErrorKind = "malformed_output"
)

// TransportError is returned when fetching a byte window fails.
type TransportError struct {
	Location   string
	Window     ByteWindow
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	return "download range " + e.Window.String() + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProbeError is returned when ffprobe runs but does not yield metadata.
type ProbeError struct {
	Kind ErrorKind
	// Stderr is the tool's diagnostic output, verbatim.
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string {
	switch e.Kind {
	case KindMalformedOutput:
		return "parse ffprobe output: " + e.Err.Error()
	default:
		if e.Stderr != "" || e.Err == nil {
			return "ffprobe error: " + e.Stderr
		}
		return "ffprobe error: " + e.Err.Error()
	}
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// ExtractionError is the terminal failure of an extraction.
type ExtractionError struct {
	ID   ExtractionID
	Path ProbePath
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.ID != "" {
		return "extract [" + e.ID.String() + "]: " + e.Err.Error()
	}
	return "extract: " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Kind returns the failure class of the underlying cause.
func (e *ExtractionError) Kind() ErrorKind {
	return KindOf(e.Err)
}

// Reason renders the human-readable failure text reported to callers.
// Windowed failures are prefixed; direct probe failures are reported as is.
func (e *ExtractionError) Reason() string {
	if e.Path == PathWindowed {
		return "Metadata extraction failed: " + e.Err.Error()
	}
	return e.Err.Error()
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(id ExtractionID, path ProbePath, err error) *ExtractionError {
	return &ExtractionError{
		ID:   id,
		Path: path,
		Err:  err,
	}
}

// KindOf classifies err. Unrecognised errors are reported as tool failures.
func KindOf(err error) ErrorKind {
	var te *TransportError
	var pe *ProbeError
	switch {
	case errors.Is(err, ErrLocationRequired), errors.Is(err, ErrUnsupportedLocation):
		return KindValidation
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &pe):
		return pe.Kind
	default:
		return KindToolFailure
	}
}
