package kafka_client

import (
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// NewConsumer creates a consumer subscribed to the request topic. Offsets are
// committed manually once a request has been answered.
func NewConsumer(cfg KafkaConfig) (*kafka.Consumer, error) {
	slog.Info("[KafkaConsumer] Initializing Kafka consumer...",
		slog.String("broker", cfg.Broker),
		slog.String("group_id", cfg.GroupID),
		slog.String("topic", cfg.ConsumerTopic))

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Broker,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaConsumer] Failed to create consumer: %w", err)
	}

	if err := consumer.SubscribeTopics([]string{cfg.ConsumerTopic}, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("[KafkaConsumer] Failed to subscribe to %s: %w", cfg.ConsumerTopic, err)
	}

	slog.Info("[KafkaConsumer] Kafka consumer initialized successfully")
	return consumer, nil
}
