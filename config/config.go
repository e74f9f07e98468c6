package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-simpler.org/env"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" default:"development"`
	Port     string `env:"PORT" default:"8080"`
	LogLevel string `env:"LOG_LEVEL" default:"info"`

	ModelDir          string        `env:"MODEL_DIR"`
	ModelRequired     bool          `env:"MODEL_REQUIRED" default:"true"`
	ModelLoadAttempts int           `env:"MODEL_LOAD_ATTEMPTS" default:"5"`
	ModelLoadBackoff  time.Duration `env:"MODEL_LOAD_BACKOFF" default:"1s"`

	DefaultStrategy string `env:"DEFAULT_STRATEGY" default:"lexicon"`
	BatchWorkers    int    `env:"BATCH_WORKERS" default:"0"`
	BatchPolicy     string `env:"BATCH_POLICY" default:"record_error"`

	CacheEnabled      bool          `env:"CACHE_ENABLED" default:"false"`
	ValkeyInitAddress string        `env:"VALKEY_INIT_ADDRESS" default:"localhost:6379"`
	ValkeyPassword    string        `env:"VALKEY_PASSWORD"`
	ValkeyTLS         bool          `env:"VALKEY_TLS" default:"false"`
	CacheTTL          time.Duration `env:"CACHE_TTL" default:"1h"`
	HealthInterval    time.Duration `env:"HEALTHCHECK_INTERVAL" default:"15s"`

	KafkaBroker          string `env:"KAFKA_BROKER" default:"localhost:9092"`
	KafkaConsumerGroupID string `env:"KAFKA_CONSUMER_GROUP_ID" default:"sentiment-workers"`
	KafkaConsumerTopic   string `env:"KAFKA_CONSUMER_TOPIC" default:"sentiment-requests"`
	KafkaProducerTopic   string `env:"KAFKA_PRODUCER_TOPIC" default:"sentiment-results"`

	AWSEndpoint  string `env:"AWS_ENDPOINT"`
	AWSRegion    string `env:"AWS_REGION" default:"us-west-1"`
	ResultsTable string `env:"RESULTS_TABLE" default:"sentiment_results"`

	ResultsTTL           time.Duration `env:"RESULTS_TTL" default:"24h"`
	ResultsBatchSize     int           `env:"RESULTS_BATCH_SIZE" default:"25"`
	ResultsFlushInterval time.Duration `env:"RESULTS_FLUSH_INTERVAL" default:"5s"`

	CORSAllowOrigins string `env:"CORS_ALLOW_ORIGINS" default:"*"`
}

// Load reads the typed configuration from the environment. Call LoadEnv first
// to pull in the per-environment .env file.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ModelRequired && cfg.ModelDir == "" {
		return fmt.Errorf("MODEL_DIR is required when MODEL_REQUIRED is true")
	}
	if cfg.ModelLoadAttempts < 1 {
		return fmt.Errorf("MODEL_LOAD_ATTEMPTS must be at least 1, got %d", cfg.ModelLoadAttempts)
	}
	if cfg.BatchWorkers < 0 {
		return fmt.Errorf("BATCH_WORKERS must not be negative, got %d", cfg.BatchWorkers)
	}
	if cfg.CacheEnabled && cfg.ValkeyInitAddress == "" {
		return fmt.Errorf("VALKEY_INIT_ADDRESS is required when CACHE_ENABLED is true")
	}
	if cfg.CacheTTL < time.Second {
		return fmt.Errorf("CACHE_TTL must be at least 1s, got %s", cfg.CacheTTL)
	}
	if cfg.HealthInterval <= 0 {
		return fmt.Errorf("HEALTHCHECK_INTERVAL must be positive, got %s", cfg.HealthInterval)
	}
	if cfg.ResultsBatchSize < 1 {
		return fmt.Errorf("RESULTS_BATCH_SIZE must be at least 1, got %d", cfg.ResultsBatchSize)
	}
	if cfg.ResultsFlushInterval <= 0 {
		return fmt.Errorf("RESULTS_FLUSH_INTERVAL must be positive, got %s", cfg.ResultsFlushInterval)
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// AllowOrigins splits CORS_ALLOW_ORIGINS on commas.
func (c *Config) AllowOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	return l, nil
}
