package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	id "trustlessid/pkg/domain"
	"trustlessid/pkg/requestcontext"
)

// Publisher records activity events. Writes to the store are synchronous;
// when a fan-out buffer is configured the event is also queued for the
// background Worker.
type Publisher struct {
	store   Store
	fanout  *RingBuffer
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithFanout queues every emitted event on buf for a Worker to forward.
func WithFanout(buf *RingBuffer) Option {
	return func(p *Publisher) {
		p.fanout = buf
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit validates and appends an event. ID, timestamp and request id are
// filled from the context when absent.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.UserID.IsNil() {
		return fmt.Errorf("activity event requires UserID")
	}
	if event.Action == "" {
		return fmt.Errorf("activity event requires Action")
	}
	if event.ID == "" {
		event.ID = "act_" + uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "activity append failed",
				"action", event.Action,
				"user_id", event.UserID,
				"error", err,
			)
		}
		return fmt.Errorf("append activity: %w", err)
	}
	p.metrics.IncEmitted(event.Action)

	if p.fanout != nil && p.fanout.Enqueue(event) {
		p.metrics.IncDropped()
	}
	return nil
}

// Recent returns the user's latest activity, newest first.
func (p *Publisher) Recent(ctx context.Context, userID id.UserID, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, userID, limit)
}
