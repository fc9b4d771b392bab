// Package kafka publishes turn events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/leonia/pkg/eventstream"
)

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "leonia.turns"

// Writer is the subset of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures a Publisher.
type Config struct {
	// Brokers are the bootstrap broker addresses, e.g. "localhost:9092".
	Brokers []string

	// Topic receives one message per persisted turn.
	Topic string

	// Writer overrides the kafka-go writer built from Brokers and Topic.
	Writer Writer
}

// Publisher writes each event as a JSON message keyed by chat session, so a
// session's turns land on one partition in order.
type Publisher struct {
	writer Writer
	topic  string
}

// NewPublisher creates a Kafka publisher.
func NewPublisher(c Config) (*Publisher, error) {
	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	w := c.Writer
	if w == nil {
		if len(c.Brokers) == 0 {
			return nil, errors.New("kafka publisher requires at least one broker")
		}
		w = &kafkago.Writer{
			Addr:                   kafkago.TCP(c.Brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		}
	}

	return &Publisher{
		writer: w,
		topic:  topic,
	}, nil
}

// Topic returns the destination topic.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishTurn writes one message for event.
func (p *Publisher) PublishTurn(ctx context.Context, event *eventstream.TurnPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling turn event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.Source.Session),
		Value: payload,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing turn event to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
