package sentiment

import "github.com/spacesedan/sentiflow/internal/models"

type LexiconScorer struct {
	lexicon *Lexicon
}

func NewLexiconScorer(lexicon *Lexicon) *LexiconScorer {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &LexiconScorer{lexicon: lexicon}
}

func (s *LexiconScorer) Strategy() models.Strategy {
	return models.StrategyLexicon
}

func (s *LexiconScorer) Version() string {
	return s.lexicon.Version()
}

func (s *LexiconScorer) Score(text NormalizedText) (Score, error) {
	positive, negative := s.Count(text.Tokens)
	label, confidence := lexiconDecision(positive, negative)

	return Score{
		Sentiment:     label,
		Confidence:    confidence,
		PositiveCount: positive,
		NegativeCount: negative,
		ProcessedText: text.Cleaned,
	}, nil
}

// Count tallies lexicon hits with repetition.
func (s *LexiconScorer) Count(tokens []string) (positive, negative int) {
	for _, token := range tokens {
		switch {
		case s.lexicon.IsPositive(token):
			positive++
		case s.lexicon.IsNegative(token):
			negative++
		}
	}
	return positive, negative
}

func lexiconDecision(positive, negative int) (models.Sentiment, float64) {
	switch {
	case positive > negative:
		return models.SentimentPositive, lexiconConfidence(positive - negative)
	case negative > positive:
		return models.SentimentNegative, lexiconConfidence(negative - positive)
	default:
		return models.SentimentNeutral, neutralConfidence
	}
}
