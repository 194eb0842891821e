// Package autosync implements the lingering-commit background flusher:
// one worker per file handle that periodically completes deferred
// applies for LINGER-mode transactions.
package autosync

import (
	"context"
	"sync"
	"time"

	"github.com/aasselin/libjio/internal/logger"
)

// Flusher is the subset of Handle the worker needs: applying queued
// lingering writes to the data file and flushing it. The worker is
// meaningful only for LINGER-mode handles; a non-linger handle's Sync
// implementation is a no-op beyond calling the underlying flush.
type Flusher interface {
	Sync() error
}

// Config holds the autosync worker's wake parameters.
type Config struct {
	// MaxInterval bounds how long the worker sleeps between flushes even
	// with no byte-threshold signal.
	MaxInterval time.Duration
	// MaxBytes is the pending-byte threshold kept with the worker (Start
	// replaces zero with the default). jio.Handle's commit path signals an
	// immediate flush at DefaultConfig().MaxBytes and does not read this
	// value.
	MaxBytes uint64
}

// DefaultConfig returns conservative autosync parameters.
func DefaultConfig() Config {
	return Config{
		MaxInterval: 5 * time.Second,
		MaxBytes:    1 << 20,
	}
}

// Worker is the single background goroutine that wakes at least every
// MaxInterval (and on demand via Notify) to flush a handle's lingering
// writes. Only one Worker may be active per handle at a time.
type Worker struct {
	flusher Flusher
	cfg     Config
	signal  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Start launches the worker goroutine. The caller must call Stop to shut
// it down; Stop blocks until the goroutine has exited.
func Start(flusher Flusher, cfg Config) *Worker {
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultConfig().MaxInterval
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultConfig().MaxBytes
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		flusher: flusher,
		cfg:     cfg,
		signal:  make(chan struct{}, 1),
		cancel:  cancel,
	}

	w.wg.Add(1)
	go w.run(ctx)

	return w
}

// Notify signals the worker to flush soon, e.g. because the commit path's
// pending-byte counter just crossed MaxBytes. Non-blocking: if a flush is
// already pending, this is a no-op.
func (w *Worker) Notify() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// Stop signals the worker to exit and waits for it to return.
func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.MaxInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush()
			return
		case <-ticker.C:
			w.flush()
		case <-w.signal:
			w.flush()
		}
	}
}

func (w *Worker) flush() {
	if err := w.flusher.Sync(); err != nil {
		logger.Warn("autosync: flush failed", logger.KeyError, err.Error())
	}
}
