package sentiment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

var defaultPositiveTerms = []string{
	"good", "great", "excellent", "amazing", "wonderful", "fantastic",
	"awesome", "brilliant", "outstanding", "superb", "perfect", "love",
	"like", "enjoy", "happy", "pleased", "satisfied", "impressive",
	"remarkable", "spectacular", "marvelous", "terrific", "incredible",
	"best", "favorite", "recommend", "enjoyable", "entertaining",
}

var defaultNegativeTerms = []string{
	"bad", "terrible", "awful", "horrible", "disgusting", "hate",
	"dislike", "boring", "dull", "disappointing", "poor", "worst",
	"pathetic", "useless", "annoying", "frustrating", "sad", "angry",
	"upset", "depressing", "mediocre", "uninspiring", "inadequate",
	"waste", "stupid", "ridiculous", "pointless", "confusing",
}

var defaultLexicon = mustLexicon(defaultPositiveTerms, defaultNegativeTerms)

// Lexicon holds two disjoint sets of lowercase terms. It is never mutated after
// construction and is safe to share between goroutines.
type Lexicon struct {
	positive map[string]struct{}
	negative map[string]struct{}
	version  string
}

// DefaultLexicon returns the process-wide calibrated English lexicon.
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}

// NewLexicon builds a lexicon from the given term lists. Terms must be
// lowercase, non-blank and may not appear in both lists.
func NewLexicon(positive, negative []string) (*Lexicon, error) {
	l := &Lexicon{
		positive: make(map[string]struct{}, len(positive)),
		negative: make(map[string]struct{}, len(negative)),
	}

	for _, term := range positive {
		if err := checkTerm(term); err != nil {
			return nil, err
		}
		l.positive[term] = struct{}{}
	}

	for _, term := range negative {
		if err := checkTerm(term); err != nil {
			return nil, err
		}
		if _, ok := l.positive[term]; ok {
			return nil, fmt.Errorf("term %q is both positive and negative", term)
		}
		l.negative[term] = struct{}{}
	}

	l.version = "lexicon@" + termsDigest(l.positive, l.negative)
	return l, nil
}

// termsDigest hashes both term sets in sorted order, so two lexicons with the
// same terms share a digest regardless of input order.
func termsDigest(positive, negative map[string]struct{}) string {
	h := sha256.New()
	for _, set := range []map[string]struct{}{positive, negative} {
		terms := make([]string, 0, len(set))
		for term := range set {
			terms = append(terms, term)
		}
		slices.Sort(terms)
		h.Write([]byte(strings.Join(terms, "\n")))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

func mustLexicon(positive, negative []string) *Lexicon {
	l, err := NewLexicon(positive, negative)
	if err != nil {
		panic(err)
	}
	return l
}

func checkTerm(term string) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("lexicon term cannot be blank")
	}
	if term != strings.ToLower(term) {
		return fmt.Errorf("lexicon term %q must be lowercase", term)
	}
	return nil
}

func (l *Lexicon) IsPositive(token string) bool {
	_, ok := l.positive[token]
	return ok
}

func (l *Lexicon) IsNegative(token string) bool {
	_, ok := l.negative[token]
	return ok
}

// Version identifies the term lists. Scores cached under one version are
// never served for another.
func (l *Lexicon) Version() string {
	return l.version
}

// Size returns the number of positive and negative terms.
func (l *Lexicon) Size() (positive, negative int) {
	return len(l.positive), len(l.negative)
}
