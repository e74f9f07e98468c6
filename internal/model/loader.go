package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	PreprocessingFile = "preprocessing.json"
	VectorizerFile    = "vectorizer.json"
	ClassifierFile    = "classifier.json"
	MetadataFile      = "metadata.json"
)

// ErrInvalidBundle marks artifacts that were read but are malformed or
// inconsistent. Retrying cannot fix these.
var ErrInvalidBundle = errors.New("invalid model bundle")

type preprocessingSpec struct {
	Steps []string `json:"steps"`
}

// Load reads the four bundle artifacts from dir. It returns a complete bundle
// or an error, never a partially populated one.
func Load(dir string) (*Bundle, error) {
	var pre preprocessingSpec
	if err := readArtifact(dir, PreprocessingFile, &pre); err != nil {
		return nil, err
	}
	pipeline, err := NewPipeline(pre.Steps)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, PreprocessingFile, err)
	}

	vectorizer, err := loadVectorizer(dir)
	if err != nil {
		return nil, err
	}

	var clfSpec logisticSpec
	if err := readArtifact(dir, ClassifierFile, &clfSpec); err != nil {
		closeQuietly(vectorizer)
		return nil, err
	}
	if clfSpec.Type != "" && clfSpec.Type != "logistic_regression" {
		closeQuietly(vectorizer)
		return nil, fmt.Errorf("%w: unsupported classifier type %q", ErrInvalidBundle, clfSpec.Type)
	}
	classifier, err := newLogisticRegression(clfSpec)
	if err != nil {
		closeQuietly(vectorizer)
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, ClassifierFile, err)
	}

	var meta Metadata
	if err := readArtifact(dir, MetadataFile, &meta); err != nil {
		closeQuietly(vectorizer)
		return nil, err
	}

	bundle, err := NewBundle(pipeline, vectorizer, classifier, meta)
	if err != nil {
		closeQuietly(vectorizer)
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}

	digest, err := artifactDigest(dir)
	if err != nil {
		closeQuietly(vectorizer)
		return nil, err
	}
	bundle.version = meta.ModelName + "@" + digest

	slog.Info("[ModelLoader] Model components loaded successfully",
		slog.String("model", meta.ModelName),
		slog.String("version", bundle.version),
		slog.Float64("accuracy", meta.Accuracy),
		slog.Float64("f1_score", meta.F1Score),
		slog.Int("features", vectorizer.Dim()))

	return bundle, nil
}

// LoadWithRetry retries Load with exponential backoff while artifacts cannot be
// read (e.g. a volume that is still being mounted). Invalid bundles fail at once.
func LoadWithRetry(ctx context.Context, dir string, attempts int, backoff time.Duration) (*Bundle, error) {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		var bundle *Bundle
		bundle, err = Load(dir)
		if err == nil {
			return bundle, nil
		}
		if errors.Is(err, ErrInvalidBundle) {
			return nil, err
		}

		slog.Warn("[ModelLoader] Failed to load model bundle, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("dir", dir),
			slog.String("error", err.Error()))

		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("model bundle not loaded after %d attempts: %w", attempts, err)
}

// VectorizerFactory builds a vectorizer from the raw vectorizer.json of the
// bundle in dir. Relative paths inside the artifact resolve against dir.
type VectorizerFactory func(dir string, raw []byte) (Vectorizer, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]VectorizerFactory{
		"":      newTfidfFromArtifact,
		"tfidf": newTfidfFromArtifact,
	}
)

// RegisterVectorizer makes a vectorizer type loadable. Types that need native
// libraries register themselves from files behind a build tag, so binaries
// built without the tag never link them.
func RegisterVectorizer(kind string, factory VectorizerFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[kind] = factory
}

func vectorizerFactory(kind string) (VectorizerFactory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[kind]
	return f, ok
}

func loadVectorizer(dir string) (Vectorizer, error) {
	raw, err := os.ReadFile(filepath.Join(dir, VectorizerFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", VectorizerFile, err)
	}

	var kind struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &kind); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, VectorizerFile, err)
	}

	factory, ok := vectorizerFactory(kind.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported vectorizer type %q", ErrInvalidBundle, kind.Type)
	}
	return factory(dir, raw)
}

func newTfidfFromArtifact(_ string, raw []byte) (Vectorizer, error) {
	var spec tfidfSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, VectorizerFile, err)
	}
	v, err := newTfidfVectorizer(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, VectorizerFile, err)
	}
	return v, nil
}

// artifactDigest hashes the bundle files in a fixed order.
func artifactDigest(dir string) (string, error) {
	h := sha256.New()
	for _, name := range []string{PreprocessingFile, VectorizerFile, ClassifierFile, MetadataFile} {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", name, err)
		}
		h.Write([]byte(name))
		h.Write(raw)
	}
	return hex.EncodeToString(h.Sum(nil))[:12], nil
}

func readArtifact(dir, name string, out any) error {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidBundle, name, err)
	}
	return nil
}

func closeQuietly(v Vectorizer) {
	if c, ok := v.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			slog.Warn("[ModelLoader] Failed to release vectorizer", slog.String("error", err.Error()))
		}
	}
}
