package models

// SentimentRequest is the payload read from the request topic.
type SentimentRequest struct {
	RequestID string   `json:"request_id"`
	Texts     []string `json:"texts"`
	Strategy  string   `json:"strategy,omitempty"`
	Policy    string   `json:"policy,omitempty"`
}

// SentimentResponse is published to the results topic for every request.
// Error is set when the whole request was rejected; Batch is nil then.
type SentimentResponse struct {
	RequestID string       `json:"request_id"`
	Strategy  Strategy     `json:"strategy,omitempty"`
	Batch     *BatchResult `json:"batch,omitempty"`
	Error     *Failure     `json:"error,omitempty"`
	Timestamp string       `json:"timestamp"`
}

// SentimentRecord is one persisted batch item, keyed by request id and item index.
type SentimentRecord struct {
	RequestID     string   `dynamodbav:"request_id" json:"request_id"`
	ItemIndex     int      `dynamodbav:"item_index" json:"item_index"`
	Strategy      Strategy `dynamodbav:"strategy" json:"strategy"`
	Text          string   `dynamodbav:"text" json:"text"`
	Sentiment     string   `dynamodbav:"sentiment,omitempty" json:"sentiment,omitempty"`
	Confidence    float64  `dynamodbav:"confidence" json:"confidence"`
	PositiveCount int      `dynamodbav:"positive_count" json:"positive_count"`
	NegativeCount int      `dynamodbav:"negative_count" json:"negative_count"`
	TotalTokens   int      `dynamodbav:"total_tokens" json:"total_tokens"`
	ErrorKind     string   `dynamodbav:"error_kind,omitempty" json:"error_kind,omitempty"`
	ErrorMessage  string   `dynamodbav:"error_message,omitempty" json:"error_message,omitempty"`
	AnalyzedAt    string   `dynamodbav:"analyzed_at" json:"analyzed_at"`
}

// RecordsFor flattens a batch into one record per returned item.
func RecordsFor(requestID string, strategy Strategy, batch BatchResult) []SentimentRecord {
	records := make([]SentimentRecord, 0, len(batch.Results))
	for _, item := range batch.Results {
		record := SentimentRecord{
			RequestID:  requestID,
			ItemIndex:  item.Index,
			Strategy:   strategy,
			Text:       item.Text,
			AnalyzedAt: batch.Timestamp,
		}
		if item.Result != nil {
			record.Sentiment = string(item.Result.Sentiment)
			record.Confidence = item.Result.Confidence
			record.PositiveCount = item.Result.PositiveCount
			record.NegativeCount = item.Result.NegativeCount
			record.TotalTokens = item.Result.TotalTokens
			record.AnalyzedAt = item.Result.Timestamp
		}
		if item.Failure != nil {
			record.ErrorKind = item.Failure.Kind
			record.ErrorMessage = item.Failure.Message
		}
		records = append(records, record)
	}
	return records
}
