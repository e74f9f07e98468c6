package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/sentiflow/internal/bootstrap"
	"github.com/spacesedan/sentiflow/internal/clients"
	"github.com/spacesedan/sentiflow/internal/clients/kafka_client"
	"github.com/spacesedan/sentiflow/internal/consumers"
	"github.com/spacesedan/sentiflow/internal/db"
)

const producerInitBackoff = 5 * time.Second

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Error("[Main] Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Setup(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Failed to start sentiment service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rt.Close()

	kafkaCfg := kafka_client.NewKafkaConfig(cfg)

	var producer *kafka_client.Producer
	for producer == nil {
		producer, err = kafka_client.NewProducer(ctx, kafkaCfg)
		if err == nil {
			break
		}
		slog.Warn("[Main] Kafka init failed, retrying...", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(producerInitBackoff):
		}
	}
	defer producer.Close()

	consumer, err := kafka_client.NewConsumer(kafkaCfg)
	if err != nil {
		slog.Error("[Main] Failed to initialize Kafka consumer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer consumer.Close()

	awsCfg, err := clients.NewAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		slog.Error("[Main] Failed to initialize AWS", slog.String("error", err.Error()))
		os.Exit(1)
	}
	store := db.NewResultStore(clients.NewDynamoDBClient(awsCfg, cfg.AWSEndpoint), cfg.ResultsTable, cfg.ResultsTTL)

	worker := consumers.NewSentimentRequestConsumer(
		kafka_client.NewKafkaMessageIterator(ctx, consumer),
		kafka_client.NewCommitHandler(consumer),
		producer,
		store,
		consumers.NewRequestHandler(rt.Service, nil),
		consumers.Options{
			ResultsTopic:  kafkaCfg.ProducerTopic,
			BatchSize:     cfg.ResultsBatchSize,
			FlushInterval: cfg.ResultsFlushInterval,
			ErrorBackoff:  kafka_client.RETRY_DELAY,
		},
	)

	if err := worker.Run(ctx); err != nil {
		slog.Error("[Main] Consumer stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("[Main] Consumer shut down cleanly")
}
