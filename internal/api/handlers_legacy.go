package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentiflow/internal/models"
	"github.com/spacesedan/sentiflow/internal/sentiment"
)

// Response shapes kept for clients of the earlier model-backed and rule-based
// servers. Each one is a thin mapping over the canonical result.

type textRequest struct {
	Text string `json:"text"`
}

type batchTextRequest struct {
	Texts []string `json:"texts"`
}

type predictResponse struct {
	Sentiment     models.Sentiment `json:"sentiment"`
	Confidence    float64          `json:"confidence"`
	ProcessedText string           `json:"processed_text"`
	OriginalText  string           `json:"original_text"`
	Timestamp     string           `json:"timestamp"`
}

type batchPredictItem struct {
	Index         int              `json:"index"`
	Sentiment     models.Sentiment `json:"sentiment,omitempty"`
	Confidence    *float64         `json:"confidence,omitempty"`
	ProcessedText *string          `json:"processed_text,omitempty"`
	OriginalText  string           `json:"original_text"`
	Error         string           `json:"error,omitempty"`
	Timestamp     string           `json:"timestamp"`
}

type batchPredictResponse struct {
	Results          []batchPredictItem `json:"results"`
	TotalPredictions int                `json:"total_predictions"`
	Timestamp        string             `json:"timestamp"`
}

type simpleDetails struct {
	PositiveWordsFound int `json:"positive_words_found"`
	NegativeWordsFound int `json:"negative_words_found"`
	TotalWords         int `json:"total_words"`
}

type simplePredictResponse struct {
	Sentiment  models.Sentiment `json:"sentiment"`
	Confidence float64          `json:"confidence"`
	Text       string           `json:"text"`
	Details    simpleDetails    `json:"details"`
	Timestamp  string           `json:"timestamp"`
	Status     string           `json:"status"`
}

type simpleBatchItem struct {
	Text       string           `json:"text"`
	Sentiment  models.Sentiment `json:"sentiment"`
	Confidence float64          `json:"confidence"`
	Details    simpleDetails    `json:"details"`
}

type simpleBatchSummary struct {
	TotalTexts        int     `json:"total_texts"`
	PositiveCount     int     `json:"positive_count"`
	NegativeCount     int     `json:"negative_count"`
	NeutralCount      int     `json:"neutral_count"`
	AverageConfidence float64 `json:"average_confidence"`
}

type simpleBatchResponse struct {
	Results   []simpleBatchItem  `json:"results"`
	Summary   simpleBatchSummary `json:"summary"`
	Timestamp string             `json:"timestamp"`
	Status    string             `json:"status"`
}

func (s *Server) registerLegacyRoutes() {
	s.echo.POST("/predict", s.handlePredict)
	s.echo.POST("/batch_predict", s.handleBatchPredict)
	s.echo.GET("/model_info", s.handleModelInfo)

	simple := s.echo.Group("/simple")
	simple.POST("/predict", s.handleSimplePredict)
	simple.POST("/predict/batch", s.handleSimplePredictBatch)
}

func (s *Server) handlePredict(c echo.Context) error {
	var req textRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	result, err := s.service.Analyze(req.Text, models.StrategyModel)
	if err != nil {
		return err
	}

	return writeJSON(c, predictResponse{
		Sentiment:     result.Sentiment,
		Confidence:    result.Confidence,
		ProcessedText: result.ProcessedText,
		OriginalText:  result.Text,
		Timestamp:     result.Timestamp,
	})
}

func (s *Server) handleBatchPredict(c echo.Context) error {
	var req batchTextRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	batch, err := s.service.AnalyzeBatchWithPolicy(req.Texts, models.StrategyModel, sentiment.PolicyRecordError)
	if err != nil {
		return err
	}

	items := make([]batchPredictItem, 0, len(batch.Results))
	for _, r := range batch.Results {
		item := batchPredictItem{Index: r.Index, OriginalText: r.Text, Timestamp: batch.Timestamp}
		if r.OK() {
			confidence, processed := r.Result.Confidence, r.Result.ProcessedText
			item.Sentiment = r.Result.Sentiment
			item.Confidence = &confidence
			item.ProcessedText = &processed
			item.Timestamp = r.Result.Timestamp
		} else {
			item.Error = r.Failure.Message
		}
		items = append(items, item)
	}

	return writeJSON(c, batchPredictResponse{
		Results:          items,
		TotalPredictions: len(items),
		Timestamp:        batch.Timestamp,
	})
}

func (s *Server) handleModelInfo(c echo.Context) error {
	meta, ok := s.service.ModelMetadata()
	if !ok {
		return sentiment.ModelUnavailableError("model bundle is not loaded")
	}
	return writeJSON(c, meta)
}

func (s *Server) handleSimplePredict(c echo.Context) error {
	var req textRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return sentiment.ValidationError("Text cannot be empty")
	}

	result, err := s.service.Analyze(text, models.StrategyLexicon)
	if err != nil {
		return err
	}

	return writeJSON(c, simplePredictResponse{
		Sentiment:  result.Sentiment,
		Confidence: result.Confidence,
		Text:       result.Text,
		Details:    detailsOf(result),
		Timestamp:  result.Timestamp,
		Status:     "success",
	})
}

// handleSimplePredictBatch silently drops blank texts, as the rule-based
// server always did.
func (s *Server) handleSimplePredictBatch(c echo.Context) error {
	var req batchTextRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	texts := make([]string, len(req.Texts))
	for i, t := range req.Texts {
		texts[i] = strings.TrimSpace(t)
	}

	batch, err := s.service.AnalyzeBatchWithPolicy(texts, models.StrategyLexicon, sentiment.PolicySkip)
	if err != nil {
		return err
	}
	if batch.Summary.Total == 0 {
		return sentiment.ValidationError("No valid texts provided")
	}

	items := make([]simpleBatchItem, 0, len(batch.Results))
	for _, r := range batch.Results {
		if !r.OK() {
			return sentiment.PredictionError("batch item failed", fmt.Errorf("index %d: %s", r.Index, r.Failure.Message))
		}
		items = append(items, simpleBatchItem{
			Text:       r.Result.Text,
			Sentiment:  r.Result.Sentiment,
			Confidence: r.Result.Confidence,
			Details:    detailsOf(*r.Result),
		})
	}

	return writeJSON(c, simpleBatchResponse{
		Results: items,
		Summary: simpleBatchSummary{
			TotalTexts:        batch.Summary.Total,
			PositiveCount:     batch.Summary.PositiveCount,
			NegativeCount:     batch.Summary.NegativeCount,
			NeutralCount:      batch.Summary.NeutralCount,
			AverageConfidence: batch.Summary.AverageConfidence,
		},
		Timestamp: batch.Timestamp,
		Status:    "success",
	})
}

func detailsOf(r models.AnalysisResult) simpleDetails {
	return simpleDetails{
		PositiveWordsFound: r.PositiveCount,
		NegativeWordsFound: r.NegativeCount,
		TotalWords:         r.TotalTokens,
	}
}

func writeJSON(c echo.Context, body any) error {
	if err := c.JSON(http.StatusOK, body); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}
