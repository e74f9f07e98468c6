package sentiment

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spacesedan/sentiflow/internal/models"
	"golang.org/x/sync/errgroup"
)

// BatchPolicy decides what happens to items that fail validation.
type BatchPolicy string

const (
	// PolicyRecordError keeps one output entry per input; failures are recorded in place.
	PolicyRecordError BatchPolicy = "record_error"
	// PolicySkip drops items that fail validation. Surviving items keep their
	// input index, so indices may have gaps. Non-validation failures are still recorded.
	PolicySkip BatchPolicy = "skip"
)

func ParseBatchPolicy(s string) (BatchPolicy, error) {
	switch BatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyRecordError:
		return PolicyRecordError, nil
	case PolicySkip:
		return PolicySkip, nil
	default:
		return "", fmt.Errorf("unknown batch policy %q", s)
	}
}

// AnalyzeFunc scores one text. The aggregator calls it concurrently.
type AnalyzeFunc func(text string) (models.AnalysisResult, error)

type Aggregator struct {
	policy  BatchPolicy
	workers int
}

// NewAggregator returns an aggregator running at most workers items at once.
// workers <= 0 means GOMAXPROCS.
func NewAggregator(policy BatchPolicy, workers int) *Aggregator {
	if policy == "" {
		policy = PolicyRecordError
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Aggregator{policy: policy, workers: workers}
}

func (a *Aggregator) Policy() BatchPolicy {
	return a.policy
}

// WithPolicy returns a copy of a that applies policy.
func (a *Aggregator) WithPolicy(policy BatchPolicy) *Aggregator {
	return NewAggregator(policy, a.workers)
}

// Aggregate runs analyze over texts and returns results ordered by input index
// together with a summary over the returned items.
func (a *Aggregator) Aggregate(texts []string, analyze AnalyzeFunc) ([]models.BatchItemResult, models.BatchSummary) {
	slots := make([]models.BatchItemResult, len(texts))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, text := range texts {
		g.Go(func() error {
			slots[i] = runItem(i, text, analyze)
			return nil
		})
	}
	_ = g.Wait()

	items := slots
	if a.policy == PolicySkip {
		items = make([]models.BatchItemResult, 0, len(slots))
		for _, item := range slots {
			if item.Failure != nil && item.Failure.Kind == string(KindValidation) {
				continue
			}
			items = append(items, item)
		}
	}

	return items, Summarize(items)
}

func runItem(index int, text string, analyze AnalyzeFunc) (item models.BatchItemResult) {
	item = models.BatchItemResult{Index: index, Text: text}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("[BatchAggregator] Recovered from panic while scoring item",
				slog.Int("index", index), slog.Any("panic", r))
			item.Result = nil
			item.Failure = failureFor(index, PredictionError("item scoring panicked", fmt.Errorf("%v", r)))
		}
	}()

	result, err := analyze(text)
	if err != nil {
		item.Failure = failureFor(index, err)
		return item
	}
	item.Result = &result
	return item
}

func failureFor(index int, err error) *models.Failure {
	e := AsError(err)
	return &models.Failure{Index: index, Kind: string(e.Kind), Message: e.Error()}
}

// Summarize tallies successful items by label and averages their confidence.
// With no successes the average is 0.
func Summarize(items []models.BatchItemResult) models.BatchSummary {
	summary := models.BatchSummary{Total: len(items)}

	var confidenceSum float64
	succeeded := 0
	for _, item := range items {
		if !item.OK() {
			summary.FailedCount++
			continue
		}
		succeeded++
		confidenceSum += item.Result.Confidence
		switch item.Result.Sentiment {
		case models.SentimentPositive:
			summary.PositiveCount++
		case models.SentimentNegative:
			summary.NegativeCount++
		case models.SentimentNeutral:
			summary.NeutralCount++
		}
	}

	if succeeded > 0 {
		summary.AverageConfidence = confidenceSum / float64(succeeded)
	}
	return summary
}
