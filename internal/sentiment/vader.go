package sentiment

import (
	"html"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/sentiflow/internal/models"
)

const (
	vaderThreshold = 0.20
	vaderVersion   = "govader@0.20"
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	bareURLPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
)

func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return bareURLPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders input as markdown and keeps only its visible
// text. Link targets are dropped before rendering so the anchor text survives
// and the URL never reaches the analyzer.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(markdownLinkPattern.ReplaceAllString(input, "$1")), blackfriday.WithNoExtensions())
	plainText := html.UnescapeString(htmlTagPattern.ReplaceAllString(string(output), ""))

	return strings.Join(strings.Fields(RemoveLinks(plainText)), " ")
}

// VaderScorer labels text by the VADER compound score. govader's analyzer keeps
// internal state, so calls are serialized.
type VaderScorer struct {
	mu       sync.Mutex
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (s *VaderScorer) Strategy() models.Strategy {
	return models.StrategyVader
}

func (s *VaderScorer) Version() string {
	return vaderVersion
}

func (s *VaderScorer) Score(text NormalizedText) (Score, error) {
	plainText := ConvertMarkdownToText(text.Raw)
	compound := s.Compound(plainText)

	label, confidence := vaderDecision(compound)
	confidence, err := CheckConfidence(confidence)
	if err != nil {
		return Score{}, err
	}

	return Score{
		Sentiment:     label,
		Confidence:    confidence,
		ProcessedText: plainText,
	}, nil
}

// Compound returns the raw VADER compound score in [-1, 1].
func (s *VaderScorer) Compound(text string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzer.PolarityScores(text).Compound
}

func vaderDecision(compound float64) (models.Sentiment, float64) {
	magnitude := ClampConfidence(math.Abs(compound))
	switch {
	case compound >= vaderThreshold:
		return models.SentimentPositive, magnitude
	case compound <= -vaderThreshold:
		return models.SentimentNegative, magnitude
	default:
		return models.SentimentNeutral, 1 - magnitude
	}
}
