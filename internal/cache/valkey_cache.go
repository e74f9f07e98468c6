package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"github.com/spacesedan/sentiflow/internal/models"
	"github.com/spacesedan/sentiflow/internal/sentiment"
	"github.com/valkey-io/valkey-go"
)

const (
	keyPrefix        = "sentiment:result"
	operationTimeout = 500 * time.Millisecond
)

// errMiss is returned by stores for absent keys. It does not count against the breaker.
var errMiss = errors.New("cache miss")

// Store is the key/value surface the result cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
}

type Options struct {
	InitAddress string
	Password    string
	UseTLS      bool
}

// Connect creates a valkey client and pings it once.
func Connect(opts Options) (valkey.Client, error) {
	clientOpts := valkey.ClientOption{
		InitAddress:      []string{opts.InitAddress},
		Password:         opts.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if opts.UseTLS {
		clientOpts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("[ResultCache] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ResultCache] failed to ping Valkey: %w", err)
	}

	slog.Info("[ResultCache] Successfully connected to valkey", slog.String("address", opts.InitAddress))
	return client, nil
}

// ValkeyStore adapts a valkey client to Store.
type ValkeyStore struct {
	client valkey.Client
}

func NewValkeyStore(client valkey.Client) *ValkeyStore {
	return &ValkeyStore{client: client}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", errMiss
	}
	return value, err
}

func (s *ValkeyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	cmd := s.client.B().Set().Key(key).Value(value).PxMilliseconds(ttl.Milliseconds()).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

func (s *ValkeyStore) Close() {
	s.client.Close()
}

// ResultCache stores timestamp-free scores behind a circuit breaker. Every
// fault is logged and reported as a miss, so scoring never depends on the cache.
type ResultCache struct {
	store   Store
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
}

func NewResultCache(store Store, ttl time.Duration) *ResultCache {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "valkey",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("[ResultCache] Circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &ResultCache{store: store, breaker: breaker, ttl: ttl}
}

// Key is the cache key for a strategy, the scorer version that produced the
// score and the raw text. Replicas running different bundles never share entries.
func Key(strategy models.Strategy, version, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, strategy, version, hex.EncodeToString(sum[:]))
}

func (c *ResultCache) Lookup(strategy models.Strategy, version, text string) (sentiment.Score, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		value, err := c.store.Get(ctx, Key(strategy, version, text))
		if errors.Is(err, errMiss) {
			return "", nil
		}
		return value, err
	})
	if err != nil {
		slog.Warn("[ResultCache] Lookup failed", slog.String("error", err.Error()))
		return sentiment.Score{}, false
	}

	value, _ := raw.(string)
	if value == "" {
		return sentiment.Score{}, false
	}

	var score sentiment.Score
	if err := json.Unmarshal([]byte(value), &score); err != nil {
		slog.Warn("[ResultCache] Discarding unreadable entry", slog.String("error", err.Error()))
		return sentiment.Score{}, false
	}
	return score, true
}

func (c *ResultCache) Store(strategy models.Strategy, version, text string, score sentiment.Score) {
	payload, err := json.Marshal(score)
	if err != nil {
		slog.Warn("[ResultCache] Failed to encode score", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.store.Set(ctx, Key(strategy, version, text), string(payload), c.ttl)
	})
	if err != nil {
		slog.Warn("[ResultCache] Store failed", slog.String("error", err.Error()))
	}
}

// Ping checks the backing store directly, bypassing the breaker.
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

func (c *ResultCache) State() gobreaker.State {
	return c.breaker.State()
}
