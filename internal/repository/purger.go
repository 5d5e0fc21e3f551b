package repository

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PurgeWorker periodically deletes expired token records from stores that
// have no native expiry (Postgres, memory).
type PurgeWorker struct {
	mu       sync.Mutex
	purger   Purger
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewPurgeWorker(purger Purger, interval time.Duration, logger *zap.Logger) *PurgeWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurgeWorker{
		purger:   purger,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs one purge immediately and then every interval until Stop or
// until ctx is cancelled. Calling Start on a running worker is a no-op.
func (w *PurgeWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, w.done)
}

// Stop cancels the worker and waits for an in-flight purge to finish.
func (w *PurgeWorker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *PurgeWorker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.PurgeOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.PurgeOnce(ctx)
		}
	}
}

// PurgeOnce deletes the records that are expired now.
func (w *PurgeWorker) PurgeOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := w.now()
	n, err := w.purger.PurgeExpired(ctx, start)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("Expired token purge failed", zap.Error(err))
		}
		return 0
	}

	if n > 0 {
		w.logger.Info("Purged expired tokens",
			zap.Int64("deleted", n),
			zap.Duration("latency", time.Since(start)),
		)
	}
	return n
}
