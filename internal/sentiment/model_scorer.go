package sentiment

import (
	"fmt"
	"log/slog"

	"github.com/spacesedan/sentiflow/internal/model"
	"github.com/spacesedan/sentiflow/internal/models"
)

// ModelScorer applies a loaded bundle. The bundle is injected once and never
// replaced; a nil bundle means the service runs without the model strategy.
type ModelScorer struct {
	bundle *model.Bundle
}

func NewModelScorer(bundle *model.Bundle) *ModelScorer {
	return &ModelScorer{bundle: bundle}
}

func (s *ModelScorer) Strategy() models.Strategy {
	return models.StrategyModel
}

// Available reports whether a bundle is loaded.
func (s *ModelScorer) Available() bool {
	return s != nil && s.bundle != nil
}

// Metadata returns the bundle metadata, or false when no bundle is loaded.
func (s *ModelScorer) Metadata() (model.Metadata, bool) {
	if !s.Available() {
		return model.Metadata{}, false
	}
	return s.bundle.Metadata(), true
}

// Version is the loaded bundle's version, or empty without a bundle.
func (s *ModelScorer) Version() string {
	if !s.Available() {
		return ""
	}
	return s.bundle.Version()
}

func (s *ModelScorer) Score(text NormalizedText) (score Score, err error) {
	if !s.Available() {
		return Score{}, ModelUnavailableError("model bundle is not loaded")
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("[ModelScorer] Recovered from panic in model pipeline", slog.Any("panic", r))
			score, err = Score{}, PredictionError("model pipeline panicked", fmt.Errorf("%v", r))
		}
	}()

	pred, err := s.bundle.Predict(text.Raw)
	if err != nil {
		slog.Error("[ModelScorer] Prediction failed", slog.String("error", err.Error()))
		return Score{}, PredictionError("model prediction failed", err)
	}

	confidence, err := CheckConfidence(maxProbability(pred.Probabilities))
	if err != nil {
		return Score{}, err
	}

	label := models.SentimentNegative
	if pred.Class == 1 {
		label = models.SentimentPositive
	}

	return Score{
		Sentiment:     label,
		Confidence:    confidence,
		ProcessedText: pred.ProcessedText,
	}, nil
}

func maxProbability(probs []float64) float64 {
	if len(probs) == 0 {
		return -1
	}
	best := probs[0]
	for _, p := range probs[1:] {
		if p > best {
			best = p
		}
	}
	return best
}
