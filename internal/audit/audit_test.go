package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"trustlessid/internal/platform/logger"
	id "trustlessid/pkg/domain"
	"trustlessid/pkg/requestcontext"
)

type PublisherSuite struct {
	suite.Suite
	store   *InMemoryStore
	buffer  *RingBuffer
	metrics *Metrics
	pub     *Publisher
	user    id.UserID
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.buffer = NewRingBuffer(2)
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.pub = NewPublisher(s.store, WithFanout(s.buffer), WithMetrics(s.metrics), WithLogger(logger.Discard()))
	s.user = id.NewUserID()
}

func (s *PublisherSuite) TestEmitFillsDefaults() {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), now), "req-1")

	s.Require().NoError(s.pub.Emit(ctx, Event{UserID: s.user, Action: ActionLogin, Description: "Logged in"}))

	events, err := s.pub.Recent(ctx, s.user, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.True(len(events[0].ID) > len("act_"))
	s.Equal(now, events[0].Timestamp)
	s.Equal("req-1", events[0].RequestID)
	s.Equal(1, s.buffer.Len())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Emitted.WithLabelValues(string(ActionLogin))))
}

func (s *PublisherSuite) TestEmitRejectsIncompleteEvents() {
	s.Error(s.pub.Emit(context.Background(), Event{Action: ActionLogin}))
	s.Error(s.pub.Emit(context.Background(), Event{UserID: s.user}))
}

func (s *PublisherSuite) TestRecentIsNewestFirstAndLimited() {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, action := range []Action{ActionLogin, ActionDocumentUpload, ActionVerification} {
		s.Require().NoError(s.pub.Emit(context.Background(), Event{
			UserID:    s.user,
			Action:    action,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := s.pub.Recent(context.Background(), s.user, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(ActionVerification, events[0].Action)
	s.Equal(ActionDocumentUpload, events[1].Action)

	s.Equal(int64(1), s.buffer.Dropped(), "buffer of two drops the oldest of three")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Dropped))
}

func (s *PublisherSuite) TestRecentForUnknownUserIsEmpty() {
	events, err := s.pub.Recent(context.Background(), id.NewUserID(), 10)
	s.Require().NoError(err)
	s.NotNil(events)
	s.Empty(events)
}

func TestRingBuffer(t *testing.T) {
	b := NewRingBuffer(3)
	for i := range 5 {
		b.Enqueue(Event{ID: string(rune('a' + i))})
	}
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, int64(2), b.Dropped())

	batch := b.DequeueBatch(2)
	require.Len(t, batch, 2)
	assert.Equal(t, "c", batch[0].ID)
	assert.Equal(t, "d", batch[1].ID)

	batch = b.DequeueBatch(10)
	require.Len(t, batch, 1)
	assert.Equal(t, "e", batch[0].ID)
	assert.Nil(t, b.DequeueBatch(1))
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingSink) Publish(_ context.Context, events []Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, events...)
	return nil
}

func TestWorkerFlush(t *testing.T) {
	buf := NewRingBuffer(10)
	for range 3 {
		buf.Enqueue(Event{UserID: id.NewUserID(), Action: ActionLogin})
	}
	m := NewMetrics(prometheus.NewRegistry())
	sink := &recordingSink{}
	w := NewWorker(sink, buf, logger.Discard(), m)
	w.batch = 2

	w.Flush(context.Background())
	assert.Len(t, sink.events, 3)
	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Forwarded))
}

func TestWorkerCountsSinkFailures(t *testing.T) {
	buf := NewRingBuffer(10)
	buf.Enqueue(Event{UserID: id.NewUserID(), Action: ActionLogin})
	m := NewMetrics(prometheus.NewRegistry())
	w := NewWorker(&recordingSink{err: errors.New("broker down")}, buf, logger.Discard(), m)

	w.Flush(context.Background())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkFailures))
}

func TestWorkerRunFlushesOnShutdown(t *testing.T) {
	buf := NewRingBuffer(10)
	sink := &recordingSink{}
	w := NewWorker(sink, buf, logger.Discard(), nil)
	w.interval = time.Hour

	buf.Enqueue(Event{UserID: id.NewUserID(), Action: ActionLogin})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sink.events, 1)
}
