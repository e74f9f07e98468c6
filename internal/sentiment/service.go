package sentiment

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentiflow/internal/model"
	"github.com/spacesedan/sentiflow/internal/models"
)

const (
	MaxTextLength = 10000
	MaxBatchSize  = 100
)

// Observer receives analysis outcomes, e.g. for metrics.
type Observer interface {
	AnalysisCompleted(strategy models.Strategy, sentiment models.Sentiment, cached bool)
	AnalysisFailed(strategy models.Strategy, kind ErrorKind)
	BatchCompleted(strategy models.Strategy, size int, summary models.BatchSummary)
}

type nopObserver struct{}

func (nopObserver) AnalysisCompleted(models.Strategy, models.Sentiment, bool) {}
func (nopObserver) AnalysisFailed(models.Strategy, ErrorKind)                  {}
func (nopObserver) BatchCompleted(models.Strategy, int, models.BatchSummary)   {}

// ResultCache stores timestamp-free scores keyed by strategy, scorer version
// and raw text. Implementations own their timeouts; a miss or a cache fault
// both report false.
type ResultCache interface {
	Lookup(strategy models.Strategy, version, text string) (Score, bool)
	Store(strategy models.Strategy, version, text string, score Score)
}

// Service composes normalization, a scoring strategy and batch aggregation.
// Single texts and batch items go through the same analyze path.
type Service struct {
	scorers         map[models.Strategy]Scorer
	aggregator      *Aggregator
	clock           clockwork.Clock
	defaultStrategy models.Strategy
	observer        Observer
	cache           ResultCache
}

type Option func(*Service)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

func WithAggregator(a *Aggregator) Option {
	return func(s *Service) { s.aggregator = a }
}

// WithScorer registers or replaces the scorer for its strategy.
func WithScorer(scorer Scorer) Option {
	return func(s *Service) { s.scorers[scorer.Strategy()] = scorer }
}

func WithDefaultStrategy(strategy models.Strategy) Option {
	return func(s *Service) { s.defaultStrategy = strategy }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithResultCache(c ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

// NewService builds a service around an optional bundle. A nil bundle leaves
// the model strategy registered but unavailable.
func NewService(bundle *model.Bundle, opts ...Option) (*Service, error) {
	s := &Service{
		scorers: map[models.Strategy]Scorer{
			models.StrategyLexicon: NewLexiconScorer(nil),
			models.StrategyModel:   NewModelScorer(bundle),
			models.StrategyVader:   NewVaderScorer(),
		},
		aggregator:      NewAggregator(PolicyRecordError, 0),
		clock:           clockwork.NewRealClock(),
		defaultStrategy: models.StrategyLexicon,
		observer:        nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, ok := s.scorers[s.defaultStrategy]; !ok {
		return nil, fmt.Errorf("default strategy %q has no scorer", s.defaultStrategy)
	}
	return s, nil
}

// ParseStrategy maps a wire value onto a Strategy. Empty means "use the default".
func ParseStrategy(s string) (models.Strategy, error) {
	switch strategy := models.Strategy(strings.ToLower(strings.TrimSpace(s))); strategy {
	case "", models.StrategyLexicon, models.StrategyModel, models.StrategyVader:
		return strategy, nil
	default:
		return "", ValidationError(fmt.Sprintf("unknown strategy %q", s))
	}
}

func (s *Service) DefaultStrategy() models.Strategy {
	return s.defaultStrategy
}

// Strategies lists registered strategies in a stable order.
func (s *Service) Strategies() []models.Strategy {
	out := make([]models.Strategy, 0, len(s.scorers))
	for strategy := range s.scorers {
		out = append(out, strategy)
	}
	slices.Sort(out)
	return out
}

func (s *Service) ModelLoaded() bool {
	_, ok := s.ModelMetadata()
	return ok
}

func (s *Service) ModelMetadata() (model.Metadata, bool) {
	m, ok := s.scorers[models.StrategyModel].(*ModelScorer)
	if !ok {
		return model.Metadata{}, false
	}
	return m.Metadata()
}

func (s *Service) BatchPolicy() BatchPolicy {
	return s.aggregator.Policy()
}

// ValidateText enforces the single-text bounds: non-blank, at most MaxTextLength characters.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ValidationError("empty text")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return ValidationError(fmt.Sprintf("text has %d characters, maximum is %d", n, MaxTextLength))
	}
	return nil
}

// ValidateBatch enforces 1 <= len(texts) <= MaxBatchSize.
func ValidateBatch(texts []string) error {
	switch {
	case len(texts) == 0:
		return ValidationError("batch is empty")
	case len(texts) > MaxBatchSize:
		return ValidationError(fmt.Sprintf("batch has %d texts, maximum is %d", len(texts), MaxBatchSize))
	}
	return nil
}

func (s *Service) Analyze(text string, strategy models.Strategy) (models.AnalysisResult, error) {
	scorer, err := s.resolve(strategy)
	if err != nil {
		s.observer.AnalysisFailed(strategy, KindOf(err))
		return models.AnalysisResult{}, err
	}
	return s.analyzeWith(scorer, text)
}

// AnalyzeBatch scores texts with the configured batch policy.
func (s *Service) AnalyzeBatch(texts []string, strategy models.Strategy) (models.BatchResult, error) {
	return s.AnalyzeBatchWithPolicy(texts, strategy, s.aggregator.Policy())
}

// AnalyzeBatchWithPolicy scores texts with an explicit batch policy.
func (s *Service) AnalyzeBatchWithPolicy(texts []string, strategy models.Strategy, policy BatchPolicy) (models.BatchResult, error) {
	scorer, err := s.resolve(strategy)
	if err == nil {
		err = ValidateBatch(texts)
	}
	if err != nil {
		s.observer.AnalysisFailed(strategy, KindOf(err))
		return models.BatchResult{}, err
	}

	aggregator := s.aggregator
	if policy != aggregator.Policy() {
		aggregator = aggregator.WithPolicy(policy)
	}

	results, summary := aggregator.Aggregate(texts, func(text string) (models.AnalysisResult, error) {
		return s.analyzeWith(scorer, text)
	})
	s.observer.BatchCompleted(scorer.Strategy(), len(texts), summary)

	return models.BatchResult{
		Results:   results,
		Summary:   summary,
		Timestamp: s.now(),
	}, nil
}

// resolve picks the scorer for strategy and fails fast when the model strategy
// is requested without a bundle.
func (s *Service) resolve(strategy models.Strategy) (Scorer, error) {
	if strategy == "" {
		strategy = s.defaultStrategy
	}
	scorer, ok := s.scorers[strategy]
	if !ok {
		return nil, ValidationError(fmt.Sprintf("unknown strategy %q", strategy))
	}
	if a, ok := scorer.(interface{ Available() bool }); ok && !a.Available() {
		return nil, ModelUnavailableError(fmt.Sprintf("strategy %q is not available", strategy))
	}
	return scorer, nil
}

func (s *Service) analyzeWith(scorer Scorer, text string) (models.AnalysisResult, error) {
	strategy := scorer.Strategy()

	score, normalized, cached, err := s.score(scorer, text)
	if err != nil {
		err = AsError(err)
		s.observer.AnalysisFailed(strategy, KindOf(err))
		return models.AnalysisResult{}, err
	}
	s.observer.AnalysisCompleted(strategy, score.Sentiment, cached)

	return models.AnalysisResult{
		Sentiment:     score.Sentiment,
		Confidence:    score.Confidence,
		PositiveCount: score.PositiveCount,
		NegativeCount: score.NegativeCount,
		TotalTokens:   len(normalized.Tokens),
		Strategy:      strategy,
		Text:          text,
		ProcessedText: score.ProcessedText,
		Timestamp:     s.now(),
	}, nil
}

func (s *Service) score(scorer Scorer, text string) (Score, NormalizedText, bool, error) {
	if err := ValidateText(text); err != nil {
		return Score{}, NormalizedText{}, false, err
	}
	normalized, err := Normalize(text)
	if err != nil {
		return Score{}, NormalizedText{}, false, err
	}

	strategy := scorer.Strategy()
	version := ScorerVersion(scorer)
	if s.cache != nil {
		if score, ok := s.cache.Lookup(strategy, version, text); ok {
			return score, normalized, true, nil
		}
	}

	score, err := scorer.Score(normalized)
	if err != nil {
		return Score{}, normalized, false, err
	}
	if score.Confidence, err = CheckConfidence(score.Confidence); err != nil {
		return Score{}, normalized, false, err
	}

	if s.cache != nil {
		s.cache.Store(strategy, version, text, score)
	}
	return score, normalized, false, nil
}

func (s *Service) now() string {
	return s.clock.Now().UTC().Format(time.RFC3339Nano)
}
