package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/sentiflow/internal/api"
	"github.com/spacesedan/sentiflow/internal/bootstrap"
)

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

	checks := []api.HealthCheck{{
		Name: "model",
		Check: func(context.Context) error {
			if cfg.ModelRequired && !rt.Service.ModelLoaded() {
				return errors.New("model bundle not loaded")
			}
			return nil
		},
	}}
	if rt.Cache != nil {
		checks = append(checks, api.HealthCheck{
			Name: "valkey",
			Check: func(context.Context) error {
				if !rt.CacheHealthy.Load() {
					return fmt.Errorf("valkey unreachable, breaker %s", rt.Cache.State())
				}
				return nil
			},
		})
	}

	srv := api.NewServer(rt.Service, api.Options{
		Port:         cfg.Port,
		AllowOrigins: cfg.AllowOrigins(),
		Registry:     rt.Registry,
		HealthChecks: checks,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] Server stopped unexpectedly", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("[Main] Shutdown signal received, cleaning up...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Server shutdown error", slog.String("error", err.Error()))
	}
}
