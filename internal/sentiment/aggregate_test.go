package sentiment

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/spacesedan/sentiflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatchPolicy(t *testing.T) {
	p, err := ParseBatchPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyRecordError, p)

	p, err = ParseBatchPolicy(" SKIP ")
	require.NoError(t, err)
	assert.Equal(t, PolicySkip, p)

	_, err = ParseBatchPolicy("drop")
	assert.Error(t, err)
}

func TestAggregate_OrderIndependentOfCompletion(t *testing.T) {
	texts := make([]string, 50)
	for i := range texts {
		texts[i] = strconv.Itoa(i)
	}

	agg := NewAggregator(PolicyRecordError, 8)
	items, summary := agg.Aggregate(texts, func(text string) (models.AnalysisResult, error) {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
		return models.AnalysisResult{Sentiment: models.SentimentNeutral, Confidence: 0.5, Text: text}, nil
	})

	require.Len(t, items, len(texts))
	for i, item := range items {
		assert.Equal(t, i, item.Index)
		require.True(t, item.OK())
		assert.Equal(t, texts[i], item.Result.Text)
	}
	assert.Equal(t, 50, summary.NeutralCount)
	assert.Equal(t, 0.5, summary.AverageConfidence)
}

func TestAggregate_FailuresDoNotShortCircuit(t *testing.T) {
	texts := []string{"ok", "boom", "panic", "ok"}

	agg := NewAggregator(PolicyRecordError, 2)
	items, summary := agg.Aggregate(texts, func(text string) (models.AnalysisResult, error) {
		switch text {
		case "boom":
			return models.AnalysisResult{}, PredictionError("vectorization failed", errors.New("nan"))
		case "panic":
			panic("unexpected")
		}
		return models.AnalysisResult{Sentiment: models.SentimentPositive, Confidence: 0.7}, nil
	})

	require.Len(t, items, 4)
	assert.True(t, items[0].OK())
	assert.Equal(t, string(KindPrediction), items[1].Failure.Kind)
	assert.Equal(t, 1, items[1].Failure.Index)
	assert.Equal(t, string(KindPrediction), items[2].Failure.Kind)
	assert.Nil(t, items[2].Result)
	assert.True(t, items[3].OK())

	assert.Equal(t, models.BatchSummary{
		Total:             4,
		PositiveCount:     2,
		FailedCount:       2,
		AverageConfidence: 0.7,
	}, summary)
}

func TestAggregate_UnclassifiedErrorsBecomePredictionFailures(t *testing.T) {
	agg := NewAggregator(PolicyRecordError, 1)
	items, _ := agg.Aggregate([]string{"x"}, func(string) (models.AnalysisResult, error) {
		return models.AnalysisResult{}, fmt.Errorf("disk on fire")
	})

	require.NotNil(t, items[0].Failure)
	assert.Equal(t, string(KindPrediction), items[0].Failure.Kind)
}

func TestAggregate_SkipDropsOnlyValidationFailures(t *testing.T) {
	texts := []string{"good", "", "boom", "bad"}

	agg := NewAggregator(PolicySkip, 4)
	items, summary := agg.Aggregate(texts, func(text string) (models.AnalysisResult, error) {
		switch text {
		case "":
			return models.AnalysisResult{}, ValidationError("empty text")
		case "boom":
			return models.AnalysisResult{}, PredictionError("prediction failed", nil)
		case "bad":
			return models.AnalysisResult{Sentiment: models.SentimentNegative, Confidence: 0.6}, nil
		}
		return models.AnalysisResult{Sentiment: models.SentimentPositive, Confidence: 0.8}, nil
	})

	require.Len(t, items, 3)
	assert.Equal(t, []int{0, 2, 3}, []int{items[0].Index, items[1].Index, items[2].Index})
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.FailedCount)
	assert.InDelta(t, 0.7, summary.AverageConfidence, 1e-12)
}

func TestSummarize_NoSuccesses(t *testing.T) {
	items := []models.BatchItemResult{
		{Index: 0, Failure: &models.Failure{Kind: string(KindValidation)}},
		{Index: 1, Failure: &models.Failure{Kind: string(KindPrediction)}},
	}

	summary := Summarize(items)
	assert.Equal(t, 0.0, summary.AverageConfidence)
	assert.Equal(t, 2, summary.FailedCount)
	assert.Zero(t, summary.PositiveCount+summary.NegativeCount+summary.NeutralCount)
}
