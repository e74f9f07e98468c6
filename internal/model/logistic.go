package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is a fitted binary logistic model: p(1|x) = σ(w·x + b).
type LogisticRegression struct {
	coef      *mat.VecDense
	intercept float64
	classes   []int
}

type logisticSpec struct {
	Type      string    `json:"type"`
	Classes   []int     `json:"classes"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func newLogisticRegression(spec logisticSpec) (*LogisticRegression, error) {
	if len(spec.Coef) == 0 {
		return nil, fmt.Errorf("logistic regression has no coefficients")
	}
	classes := spec.Classes
	if len(classes) == 0 {
		classes = []int{0, 1}
	}
	return &LogisticRegression{
		coef:      mat.NewVecDense(len(spec.Coef), append([]float64(nil), spec.Coef...)),
		intercept: spec.Intercept,
		classes:   classes,
	}, nil
}

func (l *LogisticRegression) Dim() int {
	return l.coef.Len()
}

func (l *LogisticRegression) Classes() []int {
	return l.classes
}

func (l *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	if len(features) != l.coef.Len() {
		return nil, fmt.Errorf("expected %d features, got %d", l.coef.Len(), len(features))
	}

	z := mat.Dot(l.coef, mat.NewVecDense(len(features), features)) + l.intercept
	p := sigmoid(z)
	if math.IsNaN(p) {
		return nil, fmt.Errorf("decision function produced NaN")
	}

	return []float64{1 - p, p}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
