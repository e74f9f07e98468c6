package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentiflow/internal/sentiment"
)

type analyzeRequest struct {
	Text     string `json:"text"`
	Strategy string `json:"strategy"`
}

type analyzeBatchRequest struct {
	Texts    []string `json:"texts"`
	Strategy string   `json:"strategy"`
	Policy   string   `json:"policy"`
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	strategy, err := sentiment.ParseStrategy(req.Strategy)
	if err != nil {
		return err
	}

	result, err := s.service.Analyze(req.Text, strategy)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to write analyze response: %w", err)
	}
	return nil
}

func (s *Server) handleAnalyzeBatch(c echo.Context) error {
	var req analyzeBatchRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	strategy, err := sentiment.ParseStrategy(req.Strategy)
	if err != nil {
		return err
	}

	policy := s.service.BatchPolicy()
	if req.Policy != "" {
		if policy, err = sentiment.ParseBatchPolicy(req.Policy); err != nil {
			return sentiment.ValidationError(err.Error())
		}
	}

	batch, err := s.service.AnalyzeBatchWithPolicy(req.Texts, strategy, policy)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, batch); err != nil {
		return fmt.Errorf("failed to write batch response: %w", err)
	}
	return nil
}
