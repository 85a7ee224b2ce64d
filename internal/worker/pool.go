// Package worker bounds the number of ffprobe processes running at once.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iconidentify/vrok/internal/domain"
	"github.com/iconidentify/vrok/internal/metrics"
)

var (
	// ErrShutdownTimeout is returned when workers don't stop within timeout.
	ErrShutdownTimeout = errors.New("worker pool shutdown timed out")

	// ErrPoolStopped is returned for probes submitted after Stop.
	ErrPoolStopped = errors.New("worker pool stopped")
)

// Prober runs ffprobe against a buffer or a location.
type Prober interface {
	ProbeBuffer(ctx context.Context, sample []byte) (*domain.MediaMetadata, error)
	ProbeLocation(ctx context.Context, location string) (*domain.MediaMetadata, error)
}

// Config holds worker pool configuration.
type Config struct {
	Workers int
}

type task struct {
	ctx  context.Context
	run  func(ctx context.Context)
	done chan struct{}
}

// Pool runs probes on a fixed set of workers. It implements Prober, so it
// can stand in front of any other Prober.
type Pool struct {
	workers int
	prober  Prober
	logger  *slog.Logger
	tasks   chan task

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a new worker pool. Workers defaults to 4.
func NewPool(cfg Config, prober Prober, logger *slog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers: cfg.Workers,
		prober:  prober,
		logger:  logger,
		tasks:   make(chan task),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches all workers.
func (p *Pool) Start() {
	p.logger.Info("starting probe workers", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops accepting probes and waits for running ones to finish.
func (p *Pool) Stop(timeout time.Duration) error {
	p.logger.Info("stopping probe workers")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("probe workers stopped gracefully")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

// ProbeBuffer probes sample on the next free worker.
func (p *Pool) ProbeBuffer(ctx context.Context, sample []byte) (*domain.MediaMetadata, error) {
	var md *domain.MediaMetadata
	var err error
	if subErr := p.submit(ctx, func(ctx context.Context) {
		md, err = p.prober.ProbeBuffer(ctx, sample)
	}); subErr != nil {
		return nil, subErr
	}
	return md, err
}

// ProbeLocation probes location on the next free worker.
func (p *Pool) ProbeLocation(ctx context.Context, location string) (*domain.MediaMetadata, error) {
	var md *domain.MediaMetadata
	var err error
	if subErr := p.submit(ctx, func(ctx context.Context) {
		md, err = p.prober.ProbeLocation(ctx, location)
	}); subErr != nil {
		return nil, subErr
	}
	return md, err
}

// submit hands fn to a worker and blocks until it has run. Once a worker
// has accepted fn, it always runs to completion.
func (p *Pool) submit(ctx context.Context, fn func(ctx context.Context)) error {
	t := task{ctx: ctx, run: fn, done: make(chan struct{})}

	select {
	case p.tasks <- t:
	case <-ctx.Done():
		return &domain.ProbeError{
			Kind: domain.KindToolFailure,
			Err:  fmt.Errorf("wait for probe worker: %w", ctx.Err()),
		}
	case <-p.ctx.Done():
		return &domain.ProbeError{Kind: domain.KindToolFailure, Err: ErrPoolStopped}
	}

	<-t.done
	return nil
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Debug("probe worker started")

	for {
		select {
		case <-p.ctx.Done():
			logger.Debug("probe worker stopping")
			return
		case t := <-p.tasks:
			metrics.ProbeWorkerBusy(1)
			t.run(t.ctx)
			metrics.ProbeWorkerBusy(-1)
			close(t.done)
		}
	}
}
