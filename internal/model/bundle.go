// Package model holds the externally trained classification bundle: a
// preprocessing pipeline, a fitted vectorizer and a fitted binary classifier,
// plus descriptive metadata. A Bundle is built once at startup and is read-only
// afterwards, so it may be shared across goroutines without locking.
package model

import (
	"errors"
	"fmt"
)

// Preprocessor turns raw text into the string the vectorizer was fitted on.
type Preprocessor interface {
	Preprocess(text string) (string, error)
}

// Vectorizer maps preprocessed text into a dense feature vector of fixed Dim.
type Vectorizer interface {
	Transform(text string) ([]float64, error)
	Dim() int
}

// Classifier is a fitted probabilistic binary classifier.
type Classifier interface {
	// PredictProba returns one probability per class, ordered as Classes.
	PredictProba(features []float64) ([]float64, error)
	Classes() []int
	Dim() int
}

type Metadata struct {
	ModelName       string  `json:"model_name"`
	Accuracy        float64 `json:"accuracy"`
	F1Score         float64 `json:"f1_score"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	AUC             float64 `json:"auc"`
	TrainingTime    float64 `json:"training_time"`
	FeatureCount    int     `json:"feature_count"`
	TrainingSamples int     `json:"training_samples"`
}

type Bundle struct {
	preprocessor Preprocessor
	vectorizer   Vectorizer
	classifier   Classifier
	metadata     Metadata
	version      string
	closers      []func() error
}

// Prediction is the outcome of running the full pipeline on one text.
type Prediction struct {
	Class         int
	Probabilities []float64
	ProcessedText string
}

var ErrIncompleteBundle = errors.New("model bundle is incomplete")

// NewBundle assembles a bundle and checks that its parts agree with each other.
// Either every component is present and consistent or no bundle is returned.
func NewBundle(pre Preprocessor, vec Vectorizer, clf Classifier, meta Metadata) (*Bundle, error) {
	if pre == nil || vec == nil || clf == nil {
		return nil, ErrIncompleteBundle
	}
	if meta.ModelName == "" {
		return nil, fmt.Errorf("%w: metadata has no model_name", ErrIncompleteBundle)
	}
	if vec.Dim() != clf.Dim() {
		return nil, fmt.Errorf("vectorizer dimension %d does not match classifier dimension %d", vec.Dim(), clf.Dim())
	}
	classes := clf.Classes()
	if len(classes) != 2 || classes[0] != 0 || classes[1] != 1 {
		return nil, fmt.Errorf("classifier must be binary with classes [0 1], got %v", classes)
	}

	b := &Bundle{
		preprocessor: pre,
		vectorizer:   vec,
		classifier:   clf,
		metadata:     meta,
		version:      meta.ModelName,
	}
	if c, ok := vec.(interface{ Close() error }); ok {
		b.closers = append(b.closers, c.Close)
	}
	return b, nil
}

func (b *Bundle) Metadata() Metadata {
	return b.metadata
}

// Version identifies the exact artifacts behind this bundle. Bundles read by
// Load carry the model name plus a digest of the artifact files, so a retrained
// bundle published under the same name still gets a new version.
func (b *Bundle) Version() string {
	return b.version
}

// Predict runs preprocess -> vectorize -> classify. Errors name the stage that failed.
func (b *Bundle) Predict(text string) (Prediction, error) {
	processed, err := b.preprocessor.Preprocess(text)
	if err != nil {
		return Prediction{}, fmt.Errorf("preprocessing failed: %w", err)
	}

	features, err := b.vectorizer.Transform(processed)
	if err != nil {
		return Prediction{}, fmt.Errorf("vectorization failed: %w", err)
	}

	probs, err := b.classifier.PredictProba(features)
	if err != nil {
		return Prediction{}, fmt.Errorf("prediction failed: %w", err)
	}
	classes := b.classifier.Classes()
	if len(probs) != len(classes) {
		return Prediction{}, fmt.Errorf("prediction failed: got %d probabilities for %d classes", len(probs), len(classes))
	}

	return Prediction{
		Class:         classes[argmax(probs)],
		Probabilities: probs,
		ProcessedText: processed,
	}, nil
}

// Close releases resources held by the vectorizer (e.g. an ONNX session).
func (b *Bundle) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// argmax returns the first index holding the largest value.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
