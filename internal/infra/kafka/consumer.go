package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Config describes how to connect to a Kafka cluster for consuming requests.
type Config struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
	MaxWait  time.Duration
}

// Consumer wraps a kafka-go reader and yields gateway requests.
type Consumer struct {
	reader messageReader
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// NewConsumer builds a new Consumer from the provided configuration.
func NewConsumer(cfg Config) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker must be provided")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic must be provided")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "cairo-worker"
	}

	readerConfig := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
	}
	if readerConfig.MinBytes == 0 {
		readerConfig.MinBytes = 1
	}
	if readerConfig.MaxBytes == 0 {
		readerConfig.MaxBytes = 10 * 1024 * 1024
	}
	if readerConfig.MaxWait == 0 {
		readerConfig.MaxWait = time.Second
	}

	return newConsumer(kafkago.NewReader(readerConfig)), nil
}

func newConsumer(reader messageReader) *Consumer {
	return &Consumer{reader: reader}
}

// NextRequest blocks until the next request is available or ctx is done. A
// done message yields io.EOF.
func (c *Consumer) NextRequest(ctx context.Context) (Request, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return Request{}, err
	}
	return decodeRequestMessage(msg)
}

// Close releases the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
