package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// PublisherConfig configures the response publisher.
type PublisherConfig struct {
	Brokers []string
	Topic   string
}

// Publisher publishes gateway responses to Kafka.
type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewPublisher constructs a Publisher using the supplied configuration.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker must be provided")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic must be provided")
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		AllowAutoTopicCreation: true,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
	}
	return newPublisher(writer), nil
}

func newPublisher(writer messageWriter) *Publisher {
	return &Publisher{writer: writer, now: time.Now}
}

// PublishResponse writes resp keyed by its request id.
func (p *Publisher) PublishResponse(ctx context.Context, resp Response) error {
	if p.writer == nil {
		return fmt.Errorf("publisher is not initialized")
	}
	now := time.Now()
	if p.now != nil {
		now = p.now()
	}
	payload, err := encodeResponse(resp, now)
	if err != nil {
		return err
	}

	msg := kafkago.Message{
		Key:   []byte(resp.ID),
		Value: payload,
		Time:  now,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close releases the underlying Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
