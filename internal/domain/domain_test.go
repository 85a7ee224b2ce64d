package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// ByteWindow Tests
// =============================================================================

func TestByteWindow_RangeHeader(t *testing.T) {
	tests := []struct {
		name   string
		window ByteWindow
		want   string
	}{
		{"primary 4MiB", PrimaryWindow(DefaultWindowSize), "bytes=0-4194303"},
		{"secondary 4MiB", SecondaryWindow(DefaultWindowSize), "bytes=-4194304"},
		{"absolute", AbsoluteWindow(100, 199), "bytes=100-199"},
		{"single byte", AbsoluteWindow(0, 0), "bytes=0-0"},
		{"open ended", ByteWindow{Start: 512, OpenEnd: true}, "bytes=512-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.window.RangeHeader(); got != tt.want {
				t.Errorf("RangeHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestByteWindow_Len(t *testing.T) {
	tests := []struct {
		name   string
		window ByteWindow
		want   int64
	}{
		{"primary", PrimaryWindow(DefaultWindowSize), DefaultWindowSize},
		{"secondary", SecondaryWindow(DefaultWindowSize), DefaultWindowSize},
		{"absolute", AbsoluteWindow(10, 19), 10},
		{"open ended absolute", ByteWindow{Start: 10, OpenEnd: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.window.Len(); got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestByteWindow_IsSuffix(t *testing.T) {
	if PrimaryWindow(10).IsSuffix() {
		t.Error("primary window should not be a suffix window")
	}
	if !SecondaryWindow(10).IsSuffix() {
		t.Error("secondary window should be a suffix window")
	}
}

func TestByteWindow_Validate(t *testing.T) {
	tests := []struct {
		name    string
		window  ByteWindow
		wantErr bool
	}{
		{"primary", PrimaryWindow(DefaultWindowSize), false},
		{"secondary", SecondaryWindow(DefaultWindowSize), false},
		{"negative start with end", ByteWindow{Start: -10, End: 5}, true},
		{"end before start", AbsoluteWindow(10, 5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// MediaMetadata Tests
// =============================================================================

const sampleProbeOutput = `{
    "programs": [],
    "streams": [
        {
            "index": 0,
            "codec_name": "h264",
            "codec_type": "video",
            "width": 1920,
            "height": 1080,
            "avg_frame_rate": "30000/1001",
            "disposition": {"default": 1}
        },
        {
            "index": 1,
            "codec_name": "aac",
            "codec_type": "audio",
            "sample_rate": "48000",
            "channels": 2
        }
    ],
    "format": {
        "filename": "pipe:",
        "nb_streams": 2,
        "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
        "duration": "12.345000",
        "bit_rate": "9007199254740993"
    }
}`

func TestParseMediaMetadata(t *testing.T) {
	md, err := ParseMediaMetadata([]byte(sampleProbeOutput))
	if err != nil {
		t.Fatalf("ParseMediaMetadata() error = %v", err)
	}

	if got := md.FormatName(); got != "mov,mp4,m4a,3gp,3g2,mj2" {
		t.Errorf("FormatName() = %q", got)
	}
	if md.StreamCount() != 2 {
		t.Fatalf("StreamCount() = %d, want 2", md.StreamCount())
	}
	if md.Streams[0]["codec_type"] != "video" || md.Streams[1]["codec_type"] != "audio" {
		t.Errorf("stream order not preserved: %v", md.Streams)
	}
	if w, ok := md.Streams[0]["width"].(json.Number); !ok || w.String() != "1920" {
		t.Errorf("width = %v, want json.Number 1920", md.Streams[0]["width"])
	}
}

func TestMediaMetadata_MarshalJSON_Lossless(t *testing.T) {
	md, err := ParseMediaMetadata([]byte(sampleProbeOutput))
	if err != nil {
		t.Fatalf("ParseMediaMetadata() error = %v", err)
	}

	out, err := json.Marshal(md)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var want, got map[string]any
	dec := json.NewDecoder(strings.NewReader(sampleProbeOutput))
	dec.UseNumber()
	if err := dec.Decode(&want); err != nil {
		t.Fatal(err)
	}
	dec = json.NewDecoder(strings.NewReader(string(out)))
	dec.UseNumber()
	if err := dec.Decode(&got); err != nil {
		t.Fatal(err)
	}

	if _, ok := got["programs"]; !ok {
		t.Error("unmodelled top-level field was dropped")
	}
	wantRate := want["format"].(map[string]any)["bit_rate"]
	gotRate := got["format"].(map[string]any)["bit_rate"]
	if wantRate != gotRate {
		t.Errorf("bit_rate = %v, want %v", gotRate, wantRate)
	}
	if !strings.Contains(string(out), `"nb_streams":2`) {
		t.Errorf("marshalled output lost nb_streams: %s", out)
	}
}

func TestMediaMetadata_EmbeddedInResponse(t *testing.T) {
	md, err := ParseMediaMetadata([]byte(`{"streams":[],"format":{"format_name":"avi"}}`))
	if err != nil {
		t.Fatal(err)
	}

	out, err := json.Marshal(map[string]any{"metadata": md})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"metadata":{"streams":[],"format":{"format_name":"avi"}}}`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func TestParseMediaMetadata_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"truncated", `{"streams": [`},
		{"array", `[1, 2]`},
		{"null", `null`},
		{"plain text", `Invalid data found when processing input`},
		{"trailing garbage", `{"streams":[]} {"x":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMediaMetadata([]byte(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Window: PrimaryWindow(DefaultWindowSize), Err: cause}

	if got := err.Error(); got != "download range 0-4194303: connection refused" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("TransportError should unwrap to its cause")
	}
	if KindOf(err) != KindTransport {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindTransport)
	}
}

func TestProbeError(t *testing.T) {
	tests := []struct {
		name string
		err  *ProbeError
		want string
	}{
		{
			name: "tool failure with stderr",
			err:  &ProbeError{Kind: KindToolFailure, Stderr: "pipe:: Invalid data found when processing input\n"},
			want: "ffprobe error: pipe:: Invalid data found when processing input\n",
		},
		{
			name: "tool failure with empty stderr",
			err:  &ProbeError{Kind: KindToolFailure, Err: errors.New("exit status 1")},
			want: "ffprobe error: exit status 1",
		},
		{
			name: "malformed output",
			err:  &ProbeError{Kind: KindMalformedOutput, Err: errors.New("unexpected EOF")},
			want: "parse ffprobe output: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if KindOf(tt.err) != tt.err.Kind {
				t.Errorf("KindOf() = %q, want %q", KindOf(tt.err), tt.err.Kind)
			}
		})
	}
}

func TestExtractionError_Reason(t *testing.T) {
	cause := &TransportError{Window: SecondaryWindow(DefaultWindowSize), Err: errors.New("timeout")}

	windowed := NewExtractionError("abc", PathWindowed, cause)
	if got := windowed.Reason(); got != "Metadata extraction failed: download range -4194304: timeout" {
		t.Errorf("Reason() = %q", got)
	}
	if windowed.Kind() != KindTransport {
		t.Errorf("Kind() = %q, want %q", windowed.Kind(), KindTransport)
	}

	var te *TransportError
	if !errors.As(windowed, &te) {
		t.Error("ExtractionError should unwrap to TransportError")
	}

	direct := NewExtractionError("abc", PathDirect, &ProbeError{Kind: KindToolFailure, Stderr: "bad"})
	if got := direct.Reason(); got != "ffprobe error: bad" {
		t.Errorf("Reason() = %q", got)
	}
	if got := direct.Error(); got != "extract [abc]: ffprobe error: bad" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindOf_Validation(t *testing.T) {
	if KindOf(ErrLocationRequired) != KindValidation {
		t.Errorf("KindOf(ErrLocationRequired) = %q", KindOf(ErrLocationRequired))
	}
}

func TestExtractionID_String(t *testing.T) {
	if got := ExtractionID("123").String(); got != "123" {
		t.Errorf("String() = %q, want %q", got, "123")
	}
}
