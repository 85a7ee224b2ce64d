package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iconidentify/vrok/internal/domain"
)

// maxLoggedStderr bounds how much diagnostic output goes into a log line.
const maxLoggedStderr = 4096

// Prober runs ffprobe against sampled bytes or a location.
type Prober struct {
	ffprobePath string
	timeout     time.Duration
	logger      *slog.Logger
}

// NewProber creates a prober for the ffprobe binary at path (looked up in
// PATH when it has no separator). A zero timeout disables the per-probe deadline.
func NewProber(path string, timeout time.Duration, logger *slog.Logger) *Prober {
	if path == "" {
		path = "ffprobe"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		ffprobePath: path,
		timeout:     timeout,
		logger:      logger,
	}
}

// Args returns the ffprobe arguments for input, which is "-" when the
// media is read from stdin.
func Args(input string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format:stream",
		"-of", "json",
		input,
	}
}

// ProbeBuffer pipes sample into ffprobe's stdin and parses its output.
func (p *Prober) ProbeBuffer(ctx context.Context, sample []byte) (*domain.MediaMetadata, error) {
	if sample == nil {
		sample = []byte{}
	}
	return p.run(ctx, "-", sample)
}

// ProbeLocation lets ffprobe open location itself. Only absolute http and
// https URLs are accepted; anything else could be read as an option or
// a local file.
func (p *Prober) ProbeLocation(ctx context.Context, location string) (*domain.MediaMetadata, error) {
	if err := checkLocation(location); err != nil {
		return nil, err
	}
	return p.run(ctx, location, nil)
}

func checkLocation(location string) error {
	u, err := url.Parse(location)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedLocation, location)
	}
	return nil
}

func (p *Prober) run(ctx context.Context, input string, sample []byte) (*domain.MediaMetadata, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()

	// #nosec G204 - binary comes from configuration; input is a single argument
	cmd := exec.CommandContext(ctx, p.ffprobePath, Args(input)...)

	var stdin io.WriteCloser
	var err error
	if sample != nil {
		if stdin, err = cmd.StdinPipe(); err != nil {
			return nil, toolFailure("", fmt.Errorf("stdin pipe: %w", err))
		}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, toolFailure("", fmt.Errorf("stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, toolFailure("", fmt.Errorf("stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %v", domain.ErrToolNotFound, err)
		}
		return nil, toolFailure("", fmt.Errorf("start ffprobe: %w", err))
	}

	// stdin, stdout and stderr move independently so a full pipe on one
	// side can never stall the others.
	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	if stdin != nil {
		g.Go(func() error {
			defer stdin.Close()
			if _, err := stdin.Write(sample); err != nil {
				// ffprobe may stop reading once it has seen enough
				p.logger.Debug("ffprobe stdin write failed", "error", err, "bytes", len(sample))
			}
			return nil
		})
	}
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})

	copyErr := g.Wait()
	waitErr := cmd.Wait()

	diag := errBuf.String()
	switch {
	case waitErr != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			waitErr = fmt.Errorf("%w (%v)", ctxErr, waitErr)
		}
		p.logger.Debug("ffprobe failed",
			"input", input,
			"error", waitErr,
			"stderr", truncate(diag, maxLoggedStderr),
			"duration", time.Since(start),
		)
		return nil, toolFailure(diag, waitErr)
	case copyErr != nil:
		return nil, toolFailure(diag, fmt.Errorf("read ffprobe output: %w", copyErr))
	}

	md, err := domain.ParseMediaMetadata(outBuf.Bytes())
	if err != nil {
		return nil, &domain.ProbeError{
			Kind:   domain.KindMalformedOutput,
			Stderr: diag,
			Err:    err,
		}
	}

	p.logger.Debug("ffprobe succeeded",
		"input", input,
		"format", md.FormatName(),
		"streams", md.StreamCount(),
		"duration", time.Since(start),
	)

	return md, nil
}

// Available reports whether the ffprobe binary can be found.
func (p *Prober) Available() bool {
	_, err := exec.LookPath(p.ffprobePath)
	return err == nil
}

// Version returns the first line of `ffprobe -version`.
func (p *Prober) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath, "-version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(output), "\n")
	if line = strings.TrimSpace(line); line != "" {
		return line, nil
	}
	return "unknown", nil
}

func toolFailure(stderr string, err error) *domain.ProbeError {
	return &domain.ProbeError{
		Kind:   domain.KindToolFailure,
		Stderr: stderr,
		Err:    err,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
