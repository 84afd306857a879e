// Package kafka publishes change events to a kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/cliptape/pkg/eventstream"
)

var (
	// ErrNoBrokers is returned when no broker addresses are configured.
	ErrNoBrokers = errors.New("kafka publisher requires at least one broker")

	// ErrNoTopic is returned when no topic is configured.
	ErrNoTopic = errors.New("kafka publisher requires a topic")
)

// Config is the configuration for a kafka Publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single write (defaults to 10s).
	WriteTimeout time.Duration
}

// Publisher writes change events to kafka, keyed by store key so that all
// changes of one key land on the same partition in order.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a kafka Publisher. No connection is made until the
// first event is published.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if c.Topic == "" {
		return nil, ErrNoTopic
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(c.Brokers...),
			Topic:                  c.Topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			WriteTimeout:           c.WriteTimeout,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// PublishChange writes event to the topic.
func (p *Publisher) PublishChange(ctx context.Context, event *eventstream.ChangeEvent) error {
	if event == nil {
		return eventstream.ErrNilChangeEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling change event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.Key),
		Value: payload,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing change event to kafka: %w", err)
	}

	return nil
}

// Topic returns the configured topic.
func (p *Publisher) Topic() string {
	return p.writer.Topic
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
