package kafka_client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

const produceAttempts = 3

type transactionalProducer interface {
	BeginTransaction() error
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	CommitTransaction(ctx context.Context) error
	AbortTransaction(ctx context.Context) error
	Flush(timeoutMs int) int
	Close()
}

// Producer publishes each message in its own transaction so consumers reading
// with read_committed never observe partial output.
type Producer struct {
	producer transactionalProducer
}

func NewProducer(ctx context.Context, cfg KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaProducer] Initializing Kafka Producer...", slog.String("broker", cfg.Broker))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      cfg.TransactionalID,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaProducer] Failed to create producer: %w", err)
	}

	if err := p.InitTransactions(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaProducer] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaProducer] Kafka Producer initialized successfully")
	return &Producer{producer: p}, nil
}

// Publish writes value under key to topic transactionally.
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	if err := p.producer.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaProducer] failed to begin transaction: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
	}

	var err error
	for i := 0; i < produceAttempts; i++ {
		if err = p.producer.Produce(msg, nil); err == nil {
			break
		}
		slog.Warn("[KafkaProducer] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
	}
	if err != nil {
		return p.abort(ctx, fmt.Errorf("[KafkaProducer] failed to produce message: %w", err))
	}

	for i := 0; i < produceAttempts; i++ {
		if err = p.producer.CommitTransaction(ctx); err == nil {
			break
		}
		slog.Warn("[KafkaProducer] Failed to commit transaction, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
	}
	if err != nil {
		return p.abort(ctx, fmt.Errorf("[KafkaProducer] failed to commit transaction after %d attempts: %w", produceAttempts, err))
	}

	slog.Debug("[KafkaProducer] Published message transactionally",
		slog.String("topic", topic),
		slog.String("key", key))
	return nil
}

func (p *Producer) abort(ctx context.Context, cause error) error {
	if abortErr := p.producer.AbortTransaction(ctx); abortErr != nil {
		return errors.Join(cause, fmt.Errorf("[KafkaProducer] failed to abort transaction: %w", abortErr))
	}
	return cause
}

func (p *Producer) Close() {
	slog.Info("[KafkaProducer] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(FLUSH_TIMEOUT_MS); remaining > 0 {
		slog.Warn("[KafkaProducer] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaProducer] Kafka producer shut down")
}
