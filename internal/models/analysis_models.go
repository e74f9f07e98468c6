package models

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Strategy names one of the interchangeable scoring algorithms.
type Strategy string

const (
	StrategyLexicon Strategy = "lexicon"
	StrategyModel   Strategy = "model"
	StrategyVader   Strategy = "vader"
)

// AnalysisResult is the canonical single-text result. Endpoints adapt it to their
// own field names; the scoring core never does.
type AnalysisResult struct {
	Sentiment     Sentiment `json:"sentiment"`
	Confidence    float64   `json:"confidence"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
	TotalTokens   int       `json:"total_tokens"`
	Strategy      Strategy  `json:"strategy"`
	Text          string    `json:"text"`
	ProcessedText string    `json:"processed_text"`
	Timestamp     string    `json:"timestamp"`
}

type Failure struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BatchItemResult carries exactly one of Result or Failure, tagged with the
// position of the text in the input batch.
type BatchItemResult struct {
	Index   int             `json:"index"`
	Text    string          `json:"text"`
	Result  *AnalysisResult `json:"result,omitempty"`
	Failure *Failure        `json:"failure,omitempty"`
}

func (b BatchItemResult) OK() bool {
	return b.Result != nil && b.Failure == nil
}

type BatchSummary struct {
	Total             int     `json:"total"`
	PositiveCount     int     `json:"positive_count"`
	NegativeCount     int     `json:"negative_count"`
	NeutralCount      int     `json:"neutral_count"`
	FailedCount       int     `json:"failed_count"`
	AverageConfidence float64 `json:"average_confidence"`
}

type BatchResult struct {
	Results   []BatchItemResult `json:"results"`
	Summary   BatchSummary      `json:"summary"`
	Timestamp string            `json:"timestamp"`
}
