package model

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureDir = "testdata/bundle"

// copyFixture copies the fixture bundle into a temp dir so tests can break it.
func copyFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{PreprocessingFile, VectorizerFile, ClassifierFile, MetadataFile} {
		raw, err := os.ReadFile(filepath.Join(fixtureDir, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o644))
	}
	return dir
}

func TestLoad_FixtureBundle(t *testing.T) {
	bundle, err := Load(fixtureDir)
	require.NoError(t, err)

	meta := bundle.Metadata()
	assert.Equal(t, "Logistic Regression", meta.ModelName)
	assert.InDelta(t, 0.8912, meta.Accuracy, 1e-9)
	assert.Equal(t, 40000, meta.TrainingSamples)
}

func TestLoad_VersionTracksArtifacts(t *testing.T) {
	bundle, err := Load(fixtureDir)
	require.NoError(t, err)
	version := bundle.Version()
	assert.Regexp(t, `^Logistic Regression@[0-9a-f]{12}$`, version)

	same, err := Load(copyFixture(t))
	require.NoError(t, err)
	assert.Equal(t, version, same.Version())

	dir := copyFixture(t)
	classifier := `{"type":"logistic_regression","classes":[0,1],"coef":[-2,-2,2,2,0],"intercept":0}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ClassifierFile), []byte(classifier), 0o644))
	retrained, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, bundle.Metadata().ModelName, retrained.Metadata().ModelName)
	assert.NotEqual(t, version, retrained.Version())
}

type zeroVectorizer struct {
	dim    int
	closed bool
}

func (z *zeroVectorizer) Transform(string) ([]float64, error) { return make([]float64, z.dim), nil }
func (z *zeroVectorizer) Dim() int                            { return z.dim }
func (z *zeroVectorizer) Close() error                        { z.closed = true; return nil }

func TestLoad_RegisteredVectorizer(t *testing.T) {
	var built *zeroVectorizer
	var gotDir string
	RegisterVectorizer("zero", func(dir string, raw []byte) (Vectorizer, error) {
		gotDir = dir
		built = &zeroVectorizer{dim: 5}
		return built, nil
	})

	dir := copyFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, VectorizerFile), []byte(`{"type":"zero"}`), 0o644))

	bundle, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, gotDir)

	pred, err := bundle.Predict("great film")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, pred.Probabilities)

	require.NoError(t, bundle.Close())
	assert.True(t, built.closed)
}

func TestLoad_VectorizerFactoryError(t *testing.T) {
	RegisterVectorizer("broken", func(string, []byte) (Vectorizer, error) {
		return nil, fmt.Errorf("%w: no weights", ErrInvalidBundle)
	})

	dir := copyFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, VectorizerFile), []byte(`{"type":"broken"}`), 0o644))

	bundle, err := Load(dir)
	assert.Nil(t, bundle)
	assert.ErrorIs(t, err, ErrInvalidBundle)
	assert.ErrorContains(t, err, "no weights")
}

func TestLoad_PredictPositive(t *testing.T) {
	bundle, err := Load(fixtureDir)
	require.NoError(t, err)

	pred, err := bundle.Predict("Great <b>film</b>!")
	require.NoError(t, err)

	assert.Equal(t, 1, pred.Class)
	assert.Equal(t, "great film", pred.ProcessedText)
	require.Len(t, pred.Probabilities, 2)
	// w·x = 2/√2 = √2, σ(√2) ≈ 0.8044
	assert.InDelta(t, 0.8044, pred.Probabilities[1], 1e-3)
	assert.InDelta(t, 1.0, pred.Probabilities[0]+pred.Probabilities[1], 1e-12)
}

func TestLoad_PredictNegative(t *testing.T) {
	bundle, err := Load(fixtureDir)
	require.NoError(t, err)

	pred, err := bundle.Predict("Terrible.")
	require.NoError(t, err)

	assert.Equal(t, 0, pred.Class)
	// σ(-2) ≈ 0.1192
	assert.InDelta(t, 0.8808, pred.Probabilities[0], 1e-3)
}

func TestLoad_UnknownWordsTieToFirstClass(t *testing.T) {
	bundle, err := Load(fixtureDir)
	require.NoError(t, err)

	pred, err := bundle.Predict("nothing in the vocabulary")
	require.NoError(t, err)

	assert.Equal(t, 0, pred.Class)
	assert.Equal(t, []float64{0.5, 0.5}, pred.Probabilities)
}

func TestLoad_MissingArtifact(t *testing.T) {
	for _, name := range []string{PreprocessingFile, VectorizerFile, ClassifierFile, MetadataFile} {
		t.Run(name, func(t *testing.T) {
			dir := copyFixture(t)
			require.NoError(t, os.Remove(filepath.Join(dir, name)))

			bundle, err := Load(dir)
			assert.Nil(t, bundle)
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
			assert.False(t, errors.Is(err, ErrInvalidBundle))
		})
	}
}

func TestLoad_InconsistentArtifacts(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contents string
	}{
		{"coef dimension", ClassifierFile, `{"type":"logistic_regression","classes":[0,1],"coef":[1,2],"intercept":0}`},
		{"multiclass", ClassifierFile, `{"type":"logistic_regression","classes":[0,1,2],"coef":[1,1,1,1,1],"intercept":0}`},
		{"unknown classifier", ClassifierFile, `{"type":"svm","coef":[1,1,1,1,1]}`},
		{"vocabulary out of range", VectorizerFile, `{"type":"tfidf","vocabulary":{"great":7},"idf":[1,1,1,1,1]}`},
		{"unknown vectorizer", VectorizerFile, `{"type":"word2vec"}`},
		{"unknown step", PreprocessingFile, `{"steps":["lowercase","stem"]}`},
		{"no steps", PreprocessingFile, `{"steps":[]}`},
		{"no model name", MetadataFile, `{"accuracy":0.9}`},
		{"broken json", MetadataFile, `{"model_name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := copyFixture(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.contents), 0o644))

			bundle, err := Load(dir)
			assert.Nil(t, bundle)
			assert.ErrorIs(t, err, ErrInvalidBundle)
		})
	}
}

func TestLoadWithRetry_InvalidBundleFailsFast(t *testing.T) {
	dir := copyFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), []byte(`{}`), 0o644))

	start := time.Now()
	_, err := LoadWithRetry(context.Background(), dir, 5, time.Second)
	assert.ErrorIs(t, err, ErrInvalidBundle)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLoadWithRetry_ArtifactAppearsLater(t *testing.T) {
	dir := copyFixture(t)
	meta := filepath.Join(dir, MetadataFile)
	raw, err := os.ReadFile(meta)
	require.NoError(t, err)
	require.NoError(t, os.Remove(meta))

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = os.WriteFile(meta, raw, 0o644)
	}()

	bundle, err := LoadWithRetry(context.Background(), dir, 6, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "Logistic Regression", bundle.Metadata().ModelName)
}

func TestLoadWithRetry_GivesUp(t *testing.T) {
	_, err := LoadWithRetry(context.Background(), t.TempDir(), 2, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestLoadWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadWithRetry(ctx, t.TempDir(), 3, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
