package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/spacesedan/sentiflow/config"
	"github.com/spacesedan/sentiflow/internal/models"
	"github.com/spacesedan/sentiflow/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		ModelDir:          "../model/testdata/bundle",
		ModelRequired:     true,
		ModelLoadAttempts: 1,
		ModelLoadBackoff:  time.Millisecond,
		DefaultStrategy:   "lexicon",
		BatchPolicy:       "record_error",
		CacheTTL:          time.Hour,
		HealthInterval:    time.Second,
	}
}

func TestSetup_WithModel(t *testing.T) {
	rt, err := Setup(context.Background(), testConfig())
	require.NoError(t, err)
	defer rt.Close()

	assert.True(t, rt.Service.ModelLoaded())
	assert.Nil(t, rt.Cache)

	result, err := rt.Service.Analyze("Great film, amazing!", models.StrategyModel)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, result.Sentiment)

	families, err := rt.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestSetup_RequiredModelMissing(t *testing.T) {
	cfg := testConfig()
	cfg.ModelDir = t.TempDir()

	_, err := Setup(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to load required model bundle")
}

func TestSetup_LexiconOnlyMode(t *testing.T) {
	cfg := testConfig()
	cfg.ModelDir = ""
	cfg.ModelRequired = false
	cfg.DefaultStrategy = "vader"
	cfg.BatchPolicy = "skip"

	rt, err := Setup(context.Background(), cfg)
	require.NoError(t, err)
	defer rt.Close()

	assert.False(t, rt.Service.ModelLoaded())
	assert.Equal(t, models.StrategyVader, rt.Service.DefaultStrategy())
	assert.Equal(t, sentiment.PolicySkip, rt.Service.BatchPolicy())

	_, err = rt.Service.Analyze("great", models.StrategyModel)
	assert.Equal(t, sentiment.KindModelUnavailable, sentiment.KindOf(err))
}

func TestSetup_OptionalModelFailsSoft(t *testing.T) {
	cfg := testConfig()
	cfg.ModelDir = t.TempDir()
	cfg.ModelRequired = false

	rt, err := Setup(context.Background(), cfg)
	require.NoError(t, err)
	defer rt.Close()
	assert.False(t, rt.Service.ModelLoaded())
}

func TestSetup_InvalidSettings(t *testing.T) {
	cfg := testConfig()
	cfg.BatchPolicy = "drop"
	_, err := Setup(context.Background(), cfg)
	assert.ErrorContains(t, err, "invalid BATCH_POLICY")

	cfg = testConfig()
	cfg.DefaultStrategy = "bert"
	_, err = Setup(context.Background(), cfg)
	assert.ErrorContains(t, err, "invalid DEFAULT_STRATEGY")
}
