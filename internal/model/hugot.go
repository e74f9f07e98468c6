//go:build hugot

package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

func init() {
	RegisterVectorizer("hugot", newHugotFromArtifact)
}

// HugotVectorizer embeds text with an ONNX sentence-transformer run through a
// hugot feature extraction pipeline. The classifier head is fitted on these
// embeddings, so Dim must match the model's hidden size.
type HugotVectorizer struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	dim      int
}

type hugotSpec struct {
	Type      string `json:"type"`
	ModelPath string `json:"model_path"`
	Dimension int    `json:"dimension"`
}

func newHugotFromArtifact(dir string, raw []byte) (Vectorizer, error) {
	var spec hugotSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBundle, VectorizerFile, err)
	}
	if spec.ModelPath != "" && !filepath.IsAbs(spec.ModelPath) {
		spec.ModelPath = filepath.Join(dir, spec.ModelPath)
	}
	v, err := newHugotVectorizer(spec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func newHugotVectorizer(spec hugotSpec) (*HugotVectorizer, error) {
	if spec.Dimension <= 0 {
		return nil, fmt.Errorf("%w: hugot vectorizer needs a positive dimension", ErrInvalidBundle)
	}
	if _, err := os.Stat(spec.ModelPath); err != nil {
		return nil, fmt.Errorf("hugot model not found at %s: %w", spec.ModelPath, err)
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: spec.ModelPath,
		Name:      "sentimentEmbeddingPipeline",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("failed to initialize embedding pipeline: %w", err)
	}

	slog.Info("[HugotVectorizer] Embedding pipeline ready",
		slog.String("model_path", spec.ModelPath),
		slog.Int("dimension", spec.Dimension))

	return &HugotVectorizer{session: session, pipeline: pipeline, dim: spec.Dimension}, nil
}

func (h *HugotVectorizer) Dim() int {
	return h.dim
}

func (h *HugotVectorizer) Transform(text string) ([]float64, error) {
	output, err := h.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding pipeline failed: %w", err)
	}
	if len(output.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding pipeline returned no output")
	}

	embedding := output.Embeddings[0]
	if len(embedding) != h.dim {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(embedding), h.dim)
	}

	features := make([]float64, len(embedding))
	for i, v := range embedding {
		features[i] = float64(v)
	}
	return features, nil
}

func (h *HugotVectorizer) Close() error {
	return h.session.Destroy()
}
