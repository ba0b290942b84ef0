// Package kafka forwards activity events to a Kafka topic so downstream
// consumers can follow the activity log without reading the in-memory store.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustlessid/internal/audit"
)

const (
	defaultPartitions int32 = 3
	replicationFactor int16 = -1 // broker default
)

const (
	headerAction    = "action"
	headerRequestID = "request_id"
)

// Sink produces each activity event as one JSON record keyed by user id, so
// a user's events stay ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewSink connects to the brokers. The client is lazy; call EnsureTopic or
// Ping to verify connectivity.
func NewSink(brokers []string, topic string, logger *slog.Logger) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka sink requires at least one broker")
	}
	if topic == "" {
		return nil, errors.New("kafka sink requires a topic")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic, logger: logger}, nil
}

// EnsureTopic creates the activity topic when it does not exist yet.
func (s *Sink) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopic(ctx, defaultPartitions, replicationFactor, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", s.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", s.topic, resp.Err)
	}
	s.logger.InfoContext(ctx, "activity topic ready", "topic", s.topic)
	return nil
}

// Ping checks that at least one broker is reachable.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Publish produces the batch synchronously and returns the first failure.
func (s *Sink) Publish(ctx context.Context, events []audit.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode activity %s: %w", e.ID, err)
		}
		records = append(records, &kgo.Record{
			Key:   []byte(e.UserID.String()),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: headerAction, Value: []byte(e.Action)},
				{Key: headerRequestID, Value: []byte(e.RequestID)},
			},
			Timestamp: e.Timestamp,
		})
	}
	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce activity batch: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
