package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const readinessProbeTimeout = 5 * time.Second

// HealthCheck is a named readiness check.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
}

func (s *Server) handleHome(c echo.Context) error {
	modelInfo := map[string]any{
		"model_name": "Unknown",
		"accuracy":   "Unknown",
		"f1_score":   "Unknown",
	}
	if meta, ok := s.service.ModelMetadata(); ok {
		modelInfo["model_name"] = meta.ModelName
		modelInfo["accuracy"] = meta.Accuracy
		modelInfo["f1_score"] = meta.F1Score
	}

	return writeJSON(c, map[string]any{
		"status":     "healthy",
		"message":    "Sentiment Analysis API is running",
		"model_info": modelInfo,
		"timestamp":  s.now(),
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return writeJSON(c, map[string]any{
		"status":           "healthy",
		"service":          "sentiflow",
		"version":          serviceVersion,
		"timestamp":        s.now(),
		"model_loaded":     s.service.ModelLoaded(),
		"default_strategy": s.service.DefaultStrategy(),
		"strategies":       s.service.Strategies(),
		"endpoints": map[string]string{
			"GET /":                      "Home page",
			"POST /v1/analyze":           "Single text analysis",
			"POST /v1/analyze/batch":     "Batch text analysis",
			"POST /predict":              "Model prediction (legacy)",
			"POST /batch_predict":        "Model batch prediction (legacy)",
			"GET /model_info":            "Model metadata",
			"POST /simple/predict":       "Rule-based prediction (legacy)",
			"POST /simple/predict/batch": "Rule-based batch prediction (legacy)",
			"GET /health":                "Health check",
			"GET /health/live":           "Liveness probe",
			"GET /health/ready":          "Readiness probe",
			"GET /metrics":               "Prometheus metrics",
		},
	})
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()

	response := map[string]any{
		"status": "ok",
		"uptime": uptime,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}

	return nil
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	for _, hc := range s.healthChecks {
		err := hc.Check(ctx)
		if err == nil {
			continue
		}

		response := map[string]any{
			"status":       "unhealthy",
			"failed_check": hc.Name,
			"error":        err.Error(),
		}
		if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "ready"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
