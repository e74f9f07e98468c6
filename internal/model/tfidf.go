package model

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// TfidfVectorizer replays a fitted TF-IDF transform: vocabulary lookup over
// word n-grams, optional sublinear term frequency, idf weighting and l2 norm.
type TfidfVectorizer struct {
	vocabulary  map[string]int
	idf         []float64
	ngramMin    int
	ngramMax    int
	sublinearTF bool
	normalize   bool
}

type tfidfSpec struct {
	Type        string         `json:"type"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	NgramRange  [2]int         `json:"ngram_range"`
	SublinearTF bool           `json:"sublinear_tf"`
	Norm        string         `json:"norm"`
}

func newTfidfVectorizer(spec tfidfSpec) (*TfidfVectorizer, error) {
	if len(spec.IDF) == 0 {
		return nil, fmt.Errorf("tfidf vectorizer has empty idf")
	}
	if len(spec.Vocabulary) == 0 {
		return nil, fmt.Errorf("tfidf vectorizer has empty vocabulary")
	}
	for term, idx := range spec.Vocabulary {
		if idx < 0 || idx >= len(spec.IDF) {
			return nil, fmt.Errorf("vocabulary term %q has index %d outside idf range %d", term, idx, len(spec.IDF))
		}
	}

	lo, hi := spec.NgramRange[0], spec.NgramRange[1]
	if lo == 0 && hi == 0 {
		lo, hi = 1, 1
	}
	if lo < 1 || hi < lo {
		return nil, fmt.Errorf("invalid ngram_range [%d %d]", lo, hi)
	}

	switch spec.Norm {
	case "", "l2", "none":
	default:
		return nil, fmt.Errorf("unsupported norm %q", spec.Norm)
	}

	return &TfidfVectorizer{
		vocabulary:  spec.Vocabulary,
		idf:         spec.IDF,
		ngramMin:    lo,
		ngramMax:    hi,
		sublinearTF: spec.SublinearTF,
		normalize:   spec.Norm != "none",
	}, nil
}

func (v *TfidfVectorizer) Dim() int {
	return len(v.idf)
}

func (v *TfidfVectorizer) Transform(text string) ([]float64, error) {
	features := make([]float64, len(v.idf))

	words := tokenPattern.FindAllString(text, -1)
	for n := v.ngramMin; n <= v.ngramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			if idx, ok := v.vocabulary[strings.Join(words[i:i+n], " ")]; ok {
				features[idx]++
			}
		}
	}

	for i, tf := range features {
		if tf == 0 {
			continue
		}
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		features[i] = tf * v.idf[i]
	}

	if v.normalize {
		if norm := floats.Norm(features, 2); norm > 0 {
			floats.Scale(1/norm, features)
		}
	}

	return features, nil
}
