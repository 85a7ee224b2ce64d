package domain

import (
	"fmt"
	"strconv"
)

// DefaultWindowSize is the number of bytes sampled per attempt (4 MiB).
const DefaultWindowSize int64 = 4 * 1024 * 1024

// ByteWindow is a byte sub-range of a remote resource.
//
// A window has one of two shapes. An absolute window has Start >= 0 and
// an inclusive End. A suffix window has a negative Start and no End; it
// asks for the last -Start bytes of the resource and is sent to the
// server as "bytes=-N" without ever resolving the resource length locally.
type ByteWindow struct {
	Start int64
	End   int64
	// OpenEnd marks End as unspecified ("to end of resource").
	OpenEnd bool
}

// AbsoluteWindow returns the window [start, end].
func AbsoluteWindow(start, end int64) ByteWindow {
	return ByteWindow{Start: start, End: end}
}

// SuffixWindow returns the window covering the last n bytes.
func SuffixWindow(n int64) ByteWindow {
	return ByteWindow{Start: -n, OpenEnd: true}
}

// PrimaryWindow returns the head window [0, size-1].
func PrimaryWindow(size int64) ByteWindow {
	return AbsoluteWindow(0, size-1)
}

// SecondaryWindow returns the tail window covering the last size bytes.
func SecondaryWindow(size int64) ByteWindow {
	return SuffixWindow(size)
}

// IsSuffix reports whether w is a suffix window.
func (w ByteWindow) IsSuffix() bool {
	return w.Start < 0 && w.OpenEnd
}

// Len returns the number of bytes the window asks for. For an absolute
// window with an open end the length is unknown and Len returns 0.
func (w ByteWindow) Len() int64 {
	switch {
	case w.IsSuffix():
		return -w.Start
	case w.OpenEnd:
		return 0
	default:
		return w.End - w.Start + 1
	}
}

// Validate checks that the window has one of the two expressible shapes
// and is non-empty.
func (w ByteWindow) Validate() error {
	switch {
	case w.Start < 0 && !w.OpenEnd:
		return fmt.Errorf("suffix window %d must have an open end", w.Start)
	case w.Start >= 0 && !w.OpenEnd && w.End < w.Start:
		return fmt.Errorf("window end %d before start %d", w.End, w.Start)
	}
	return nil
}

// RangeHeader returns the value for an HTTP Range request header.
func (w ByteWindow) RangeHeader() string {
	return "bytes=" + w.spec()
}

// String returns the range spec without the unit, e.g. "0-4194303" or "-4194304".
func (w ByteWindow) String() string {
	return w.spec()
}

func (w ByteWindow) spec() string {
	if w.IsSuffix() {
		return strconv.FormatInt(w.Start, 10)
	}
	if w.OpenEnd {
		return strconv.FormatInt(w.Start, 10) + "-"
	}
	return strconv.FormatInt(w.Start, 10) + "-" + strconv.FormatInt(w.End, 10)
}
