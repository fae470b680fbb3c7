// Command worker serves gateway calls from a Kafka requests topic and
// publishes each response to the responses topic.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/enitrat/cairo-wasm/internal/gateway/app"
	"github.com/enitrat/cairo-wasm/internal/gateway/config"
	"github.com/enitrat/cairo-wasm/internal/gateway/textapi"
	"github.com/enitrat/cairo-wasm/internal/infra/kafka"
)

func main() {
	parallel := flag.Int("parallel", 4, "maximum requests handled at once")
	flag.Parse()

	cfg, err := config.LoadArgs(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Kafka.Enabled() {
		log.Fatalf("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	host, err := app.LoadToolchain(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load toolchain: %v", err)
	}
	defer host.Close(context.Background())

	gw, err := app.NewGateway(host, cfg)
	if err != nil {
		log.Fatalf("Failed to build gateway: %v", err)
	}

	consumer, err := kafka.NewConsumer(kafka.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.RequestsTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	if err != nil {
		log.Fatalf("Failed to create consumer: %v", err)
	}
	defer consumer.Close()

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ResponsesTopic,
	})
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}
	defer publisher.Close()

	log.Printf("worker: consuming %s, publishing %s", cfg.Kafka.RequestsTopic, cfg.Kafka.ResponsesTopic)
	worker := kafka.NewWorker(gatewayHandler(gw), *parallel)
	if err := worker.Run(ctx, consumer, publisher); err != nil {
		log.Printf("worker: %v", err)
	}
	log.Println("worker: exiting")
}

func gatewayHandler(gw *textapi.Gateway) kafka.Handler {
	return func(ctx context.Context, kind string, payload []byte) ([]byte, error) {
		res, err := gw.Dispatch(ctx, textapi.Call(kind), payload)
		if err != nil {
			return nil, err
		}
		return res.Response, nil
	}
}
