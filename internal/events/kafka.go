package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eight_sleep_local/internal/models"

	"github.com/segmentio/kafka-go"
)

// messageWriter is satisfied by *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards events to a Kafka topic, keyed by entity id so that one
// entity's events stay ordered within a partition.
type KafkaSink struct {
	w       messageWriter
	topic   string
	timeout time.Duration
}

// NewKafkaSink returns nil when no brokers are configured.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaSink{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		topic:   topic,
		timeout: 5 * time.Second,
	}
}

func (s *KafkaSink) Topic() string { return s.topic }

func (s *KafkaSink) Write(ctx context.Context, ev models.PodEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.EventID, err)
	}
	key := ev.EntityID
	if key == "" {
		key = ev.Type
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: b,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write to %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.w.Close()
}
