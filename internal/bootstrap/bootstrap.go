// Package bootstrap builds the pieces the server and the worker share: typed
// configuration, the model bundle, the metrics registry, the optional result
// cache and the sentiment service on top of them.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spacesedan/sentiflow/config"
	"github.com/spacesedan/sentiflow/internal/cache"
	"github.com/spacesedan/sentiflow/internal/logging"
	"github.com/spacesedan/sentiflow/internal/metrics"
	"github.com/spacesedan/sentiflow/internal/model"
	"github.com/spacesedan/sentiflow/internal/monitoring"
	"github.com/spacesedan/sentiflow/internal/sentiment"
)

// LoadConfig reads config/envs/.env.<APP_ENV>, parses the typed config and
// installs the default logger at the configured level.
func LoadConfig() (*config.Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(level)

	slog.Info("[Bootstrap] Configuration loaded", slog.String("env", cfg.AppEnv))
	return cfg, nil
}

type Runtime struct {
	Service  *sentiment.Service
	Registry *prometheus.Registry
	// Cache is nil unless CACHE_ENABLED is set.
	Cache        *cache.ResultCache
	CacheHealthy *atomic.Bool

	closers []func()
}

// Setup loads the model bundle and assembles the service. With MODEL_REQUIRED
// a missing or invalid bundle is fatal; otherwise the service starts without
// the model strategy.
func Setup(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{Registry: prometheus.NewRegistry()}

	defaultStrategy, err := sentiment.ParseStrategy(cfg.DefaultStrategy)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_STRATEGY: %w", err)
	}
	policy, err := sentiment.ParseBatchPolicy(cfg.BatchPolicy)
	if err != nil {
		return nil, fmt.Errorf("invalid BATCH_POLICY: %w", err)
	}

	bundle, err := loadBundle(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if bundle != nil {
		rt.closers = append(rt.closers, func() {
			if err := bundle.Close(); err != nil {
				slog.Warn("[Bootstrap] Failed to release model bundle", slog.String("error", err.Error()))
			}
		})
	}

	opts := []sentiment.Option{
		sentiment.WithAggregator(sentiment.NewAggregator(policy, cfg.BatchWorkers)),
		sentiment.WithObserver(metrics.NewAnalysisMetrics(rt.Registry)),
	}
	if defaultStrategy != "" {
		opts = append(opts, sentiment.WithDefaultStrategy(defaultStrategy))
	}

	if cfg.CacheEnabled {
		client, err := cache.Connect(cache.Options{
			InitAddress: cfg.ValkeyInitAddress,
			Password:    cfg.ValkeyPassword,
			UseTLS:      cfg.ValkeyTLS,
		})
		if err != nil {
			rt.Close()
			return nil, err
		}
		store := cache.NewValkeyStore(client)
		rt.closers = append(rt.closers, store.Close)

		rt.Cache = cache.NewResultCache(store, cfg.CacheTTL)
		rt.CacheHealthy = &atomic.Bool{}
		rt.CacheHealthy.Store(true)
		go monitoring.MonitorHealth(ctx, "valkey", rt.Cache, cfg.HealthInterval, rt.CacheHealthy)

		opts = append(opts, sentiment.WithResultCache(rt.Cache))
	}

	svc, err := sentiment.NewService(bundle, opts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Service = svc

	slog.Info("[Bootstrap] Sentiment service ready",
		slog.String("default_strategy", string(svc.DefaultStrategy())),
		slog.String("batch_policy", string(svc.BatchPolicy())),
		slog.Bool("model_loaded", svc.ModelLoaded()),
		slog.Bool("cache_enabled", rt.Cache != nil))
	return rt, nil
}

func loadBundle(ctx context.Context, cfg *config.Config) (*model.Bundle, error) {
	if cfg.ModelDir == "" {
		slog.Warn("[Bootstrap] MODEL_DIR not set, running in lexicon-only mode")
		return nil, nil
	}

	bundle, err := model.LoadWithRetry(ctx, cfg.ModelDir, cfg.ModelLoadAttempts, cfg.ModelLoadBackoff)
	if err != nil {
		if cfg.ModelRequired {
			return nil, fmt.Errorf("failed to load required model bundle: %w", err)
		}
		slog.Warn("[Bootstrap] Model bundle unavailable, running without the model strategy",
			slog.String("dir", cfg.ModelDir),
			slog.String("error", err.Error()))
		return nil, nil
	}

	meta := bundle.Metadata()
	slog.Info("[Bootstrap] Model bundle loaded",
		slog.String("model_name", meta.ModelName),
		slog.String("version", bundle.Version()),
		slog.Float64("accuracy", meta.Accuracy),
		slog.Float64("f1_score", meta.F1Score),
		slog.Int("feature_count", meta.FeatureCount))
	return bundle, nil
}

// Close releases the cache client and the model bundle in reverse order of creation.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
