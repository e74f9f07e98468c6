package kafka_client

import (
	"fmt"
	"os"

	"github.com/spacesedan/sentiflow/config"
)

type KafkaConfig struct {
	Broker        string
	GroupID       string
	ConsumerTopic string
	ProducerTopic string
	// TransactionalID must be unique per running worker.
	TransactionalID string
}

func NewKafkaConfig(cfg *config.Config) KafkaConfig {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}

	return KafkaConfig{
		Broker:          cfg.KafkaBroker,
		GroupID:         cfg.KafkaConsumerGroupID,
		ConsumerTopic:   cfg.KafkaConsumerTopic,
		ProducerTopic:   cfg.KafkaProducerTopic,
		TransactionalID: fmt.Sprintf("%s-%s", cfg.KafkaConsumerGroupID, host),
	}
}
