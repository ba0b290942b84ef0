package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink receives batches of activity events for delivery outside the process.
type Sink interface {
	Publish(ctx context.Context, events []Event) error
}

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 500 * time.Millisecond
)

// Worker drains the fan-out buffer into a Sink on a fixed interval. Failed
// batches are logged and counted, not retried.
type Worker struct {
	sink     Sink
	buffer   *RingBuffer
	logger   *slog.Logger
	metrics  *Metrics
	interval time.Duration
	batch    int
}

func NewWorker(sink Sink, buffer *RingBuffer, logger *slog.Logger, metrics *Metrics) *Worker {
	return &Worker{
		sink:     sink,
		buffer:   buffer,
		logger:   logger,
		metrics:  metrics,
		interval: defaultFlushInterval,
		batch:    defaultBatchSize,
	}
}

// Run flushes until ctx is cancelled, then performs a final flush.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Drain with a fresh deadline so shutdown still delivers.
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			w.Flush(flushCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush forwards everything currently buffered.
func (w *Worker) Flush(ctx context.Context) {
	for {
		events := w.buffer.DequeueBatch(w.batch)
		if len(events) == 0 {
			return
		}
		if err := w.sink.Publish(ctx, events); err != nil {
			w.metrics.IncSinkFailures()
			w.logger.WarnContext(ctx, "activity fan-out failed",
				"events", len(events),
				"error", err,
			)
			return
		}
		w.metrics.AddForwarded(len(events))
	}
}
