// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/xenking/storefront-checkout/internal/domain/order"
	"github.com/xenking/storefront-checkout/internal/orderjson"
	"github.com/xenking/storefront-checkout/pkg/httpmiddleware"
)

// EventType names an order event.
type EventType string

const EventTypeOrderCreated EventType = "order.created"

// Config holds Kafka producer settings. Publishing is disabled when Brokers
// is empty.
type Config struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"storefront.orders"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

// Enabled reports whether at least one broker is configured.
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes order events to a single topic.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic.
func NewKafkaPublisher(cfg Config) *KafkaPublisher {
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	})
}

func newPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, now: time.Now}
}

// PublishOrderCreated publishes an order.created event keyed by order number,
// so all events of one order land on the same partition.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	eventID := uuid.NewString()

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	e.FieldStart("id")
	e.Str(eventID)
	e.FieldStart("type")
	e.Str(string(EventTypeOrderCreated))
	e.FieldStart("timestamp")
	e.Str(p.now().UTC().Format(time.RFC3339Nano))
	if id := httpmiddleware.RequestIDFromContext(ctx); id != "" {
		e.FieldStart("correlation_id")
		e.Str(id)
	}
	e.FieldStart("order")
	orderjson.Encode(e, o)
	e.ObjEnd()

	msg := kafka.Message{
		Key:   []byte(o.Number),
		Value: append([]byte(nil), e.Bytes()...),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeOrderCreated)},
			{Key: "event_id", Value: []byte(eventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "write message")
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
