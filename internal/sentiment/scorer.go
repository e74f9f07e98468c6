package sentiment

import "github.com/spacesedan/sentiflow/internal/models"

// Score is the strategy-level verdict for one normalized text, before the
// service stamps it with a timestamp.
type Score struct {
	Sentiment     models.Sentiment `json:"sentiment"`
	Confidence    float64          `json:"confidence"`
	PositiveCount int              `json:"positive_count"`
	NegativeCount int              `json:"negative_count"`
	ProcessedText string           `json:"processed_text"`
}

// Scorer is the contract every strategy implements. Implementations must be
// safe for concurrent use.
//
// Label ranges differ by strategy and this is intentional:
//   - lexicon returns Neutral exactly when positive and negative hit counts tie,
//     and then always with confidence 0.5.
//   - model wraps a binary classifier and never returns Neutral.
//   - vader returns Neutral when the compound score lies inside (-0.2, 0.2).
type Scorer interface {
	Strategy() models.Strategy
	Score(text NormalizedText) (Score, error)
}

// Versioned is implemented by scorers whose output depends on loaded data such
// as a lexicon or a model bundle. The version becomes part of the result cache
// key, so a redeployed bundle never serves scores computed by its predecessor.
type Versioned interface {
	Version() string
}

// ScorerVersion returns the scorer's version, or empty when it has none.
func ScorerVersion(scorer Scorer) string {
	if v, ok := scorer.(Versioned); ok {
		return v.Version()
	}
	return ""
}
