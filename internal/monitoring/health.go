package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const DefaultHealthcheckInterval = 15 * time.Second

// Pinger is a dependency that can report its own liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitorHealth pings target every interval and records the outcome in healthy
// until ctx is cancelled. The first check runs immediately.
func MonitorHealth(ctx context.Context, name string, target Pinger, interval time.Duration, healthy *atomic.Bool) {
	if interval <= 0 {
		interval = DefaultHealthcheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check(ctx, name, target, interval, healthy)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check(ctx, name, target, interval, healthy)
		}
	}
}

func check(ctx context.Context, name string, target Pinger, interval time.Duration, healthy *atomic.Bool) {
	pingCtx, cancel := context.WithTimeout(ctx, interval/2)
	defer cancel()

	err := target.Ping(pingCtx)
	was := healthy.Swap(err == nil)

	switch {
	case err != nil && was:
		slog.Warn("[HealthCheck] Dependency is unhealthy",
			slog.String("dependency", name),
			slog.String("error", err.Error()))
	case err == nil && !was:
		slog.Info("[HealthCheck] Dependency recovered", slog.String("dependency", name))
	}
}
