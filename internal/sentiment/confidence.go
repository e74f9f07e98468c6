package sentiment

import (
	"fmt"
	"math"
)

const (
	neutralConfidence     = 0.5
	lexiconBaseConfidence = 0.6
	lexiconStep           = 0.1
	maxLexiconConfidence  = 0.95
)

// lexiconConfidence is a monotonic function of the absolute count difference
// that saturates at maxLexiconConfidence. A zero difference is a tie.
func lexiconConfidence(diff int) float64 {
	if diff < 0 {
		diff = -diff
	}
	if diff == 0 {
		return neutralConfidence
	}
	c := math.Min(lexiconBaseConfidence+lexiconStep*float64(diff), maxLexiconConfidence)
	return roundConfidence(c)
}

// roundConfidence trims float noise (0.6+0.3 = 0.8999999999999999) to two decimals.
func roundConfidence(c float64) float64 {
	return math.Round(c*100) / 100
}

// CheckConfidence verifies 0 <= c <= 1. NaN fails.
func CheckConfidence(c float64) (float64, error) {
	if math.IsNaN(c) || c < 0 || c > 1 {
		return 0, PredictionError("confidence out of range", fmt.Errorf("got %v", c))
	}
	return c, nil
}

// ClampConfidence forces c into [0,1]; NaN maps to 0.
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
