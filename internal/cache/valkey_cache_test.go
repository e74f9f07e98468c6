package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/spacesedan/sentiflow/internal/model"
	"github.com/spacesedan/sentiflow/internal/models"
	"github.com/spacesedan/sentiflow/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	err    error
	calls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.values[key]
	if !ok {
		return "", errMiss
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.values[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.err
}

const lexiconVersion = "lexicon@0123456789ab"

func TestKey(t *testing.T) {
	k := Key(models.StrategyLexicon, lexiconVersion, "great film")
	assert.True(t, strings.HasPrefix(k, "sentiment:result:lexicon:lexicon@0123456789ab:"))
	assert.Len(t, strings.TrimPrefix(k, "sentiment:result:lexicon:lexicon@0123456789ab:"), 64)

	assert.Equal(t, k, Key(models.StrategyLexicon, lexiconVersion, "great film"))
	assert.NotEqual(t, k, Key(models.StrategyModel, lexiconVersion, "great film"))
	assert.NotEqual(t, k, Key(models.StrategyLexicon, lexiconVersion, "Great film"))
	assert.NotEqual(t, k, Key(models.StrategyLexicon, "lexicon@ba9876543210", "great film"))
}

func TestResultCache_RoundTrip(t *testing.T) {
	store := newFakeStore()
	c := NewResultCache(store, time.Hour)

	_, ok := c.Lookup(models.StrategyLexicon, lexiconVersion, "great")
	assert.False(t, ok)

	score := sentiment.Score{
		Sentiment:     models.SentimentPositive,
		Confidence:    0.7,
		PositiveCount: 1,
		ProcessedText: "great",
	}
	c.Store(models.StrategyLexicon, lexiconVersion, "great", score)
	assert.Equal(t, time.Hour, store.ttls[Key(models.StrategyLexicon, lexiconVersion, "great")])

	got, ok := c.Lookup(models.StrategyLexicon, lexiconVersion, "great")
	require.True(t, ok)
	assert.Equal(t, score, got)

	_, ok = c.Lookup(models.StrategyVader, lexiconVersion, "great")
	assert.False(t, ok)
}

func TestResultCache_MissesDoNotTripBreaker(t *testing.T) {
	c := NewResultCache(newFakeStore(), time.Hour)
	for i := 0; i < 20; i++ {
		_, ok := c.Lookup(models.StrategyLexicon, lexiconVersion, "unknown")
		assert.False(t, ok)
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestResultCache_OpensAfterSustainedFailures(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	c := NewResultCache(store, time.Hour)

	for i := 0; i < 5; i++ {
		_, ok := c.Lookup(models.StrategyLexicon, lexiconVersion, "great")
		assert.False(t, ok)
	}
	require.Equal(t, gobreaker.StateOpen, c.State())

	calls := store.calls
	c.Store(models.StrategyLexicon, lexiconVersion, "great", sentiment.Score{})
	_, ok := c.Lookup(models.StrategyLexicon, lexiconVersion, "great")
	assert.False(t, ok)
	assert.Equal(t, calls, store.calls, "store should not be called while the breaker is open")
}

func TestResultCache_UnreadableEntryIsMiss(t *testing.T) {
	store := newFakeStore()
	store.values[Key(models.StrategyLexicon, lexiconVersion, "great")] = "{not json"
	c := NewResultCache(store, time.Hour)

	_, ok := c.Lookup(models.StrategyLexicon, lexiconVersion, "great")
	assert.False(t, ok)
}

func TestResultCache_ServesService(t *testing.T) {
	store := newFakeStore()
	svc, err := sentiment.NewService(nil, sentiment.WithResultCache(NewResultCache(store, time.Minute)))
	require.NoError(t, err)

	first, err := svc.Analyze("bad boring awful", models.StrategyLexicon)
	require.NoError(t, err)
	assert.Len(t, store.values, 1)

	second, err := svc.Analyze("bad boring awful", models.StrategyLexicon)
	require.NoError(t, err)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, 0.9, second.Confidence)
}

// retrainedBundle is the fixture bundle with its classifier weights negated,
// published under the same model name.
func retrainedBundle(t *testing.T) *model.Bundle {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{model.PreprocessingFile, model.VectorizerFile, model.MetadataFile} {
		raw, err := os.ReadFile(filepath.Join("../model/testdata/bundle", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o644))
	}
	classifier := `{"type":"logistic_regression","classes":[0,1],"coef":[-2,-2,2,2,0],"intercept":0}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, model.ClassifierFile), []byte(classifier), 0o644))

	bundle, err := model.Load(dir)
	require.NoError(t, err)
	return bundle
}

func TestResultCache_BundlesDoNotShareEntries(t *testing.T) {
	original, err := model.Load("../model/testdata/bundle")
	require.NoError(t, err)
	retrained := retrainedBundle(t)
	require.Equal(t, original.Metadata().ModelName, retrained.Metadata().ModelName)

	shared := NewResultCache(newFakeStore(), time.Hour)
	before, err := sentiment.NewService(original, sentiment.WithResultCache(shared))
	require.NoError(t, err)
	after, err := sentiment.NewService(retrained, sentiment.WithResultCache(shared))
	require.NoError(t, err)

	old, err := before.Analyze("Great film", models.StrategyModel)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, old.Sentiment)

	fresh, err := after.Analyze("Great film", models.StrategyModel)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, fresh.Sentiment)

	again, err := before.Analyze("Great film", models.StrategyModel)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, again.Sentiment)
}
