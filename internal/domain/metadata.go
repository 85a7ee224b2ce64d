package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MediaMetadata is the container and stream description emitted by ffprobe.
//
// The document is kept exactly as the tool produced it: MarshalJSON
// re-emits the raw bytes, so fields this package does not model survive
// the round trip. Format and Streams are parsed views with numbers kept
// as json.Number.
type MediaMetadata struct {
	Format  map[string]any
	Streams []map[string]any

	raw json.RawMessage
}

// ParseMediaMetadata validates data as a JSON object and builds a MediaMetadata.
func ParseMediaMetadata(data []byte) (*MediaMetadata, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty output")
	}
	if trimmed[0] != '{' {
		return nil, errors.New("output is not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var doc struct {
		Format  map[string]any   `json:"format"`
		Streams []map[string]any `json:"streams"`
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON document at offset %d", dec.InputOffset())
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return nil, err
	}

	return &MediaMetadata{
		Format:  doc.Format,
		Streams: doc.Streams,
		raw:     compact.Bytes(),
	}, nil
}

// MarshalJSON emits the tool's document unchanged.
func (m *MediaMetadata) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	if len(m.raw) > 0 {
		return m.raw, nil
	}
	return json.Marshal(struct {
		Streams []map[string]any `json:"streams"`
		Format  map[string]any   `json:"format"`
	}{m.Streams, m.Format})
}

// FormatName returns format.format_name, or "" if absent.
func (m *MediaMetadata) FormatName() string {
	if m == nil || m.Format == nil {
		return ""
	}
	name, _ := m.Format["format_name"].(string)
	return name
}

// StreamCount returns the number of stream descriptors.
func (m *MediaMetadata) StreamCount() int {
	if m == nil {
		return 0
	}
	return len(m.Streams)
}
