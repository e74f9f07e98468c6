package consumers

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentiflow/internal/models"
	"github.com/spacesedan/sentiflow/internal/sentiment"
	"github.com/spacesedan/sentiflow/internal/utils"
)

// RequestHandler turns one request payload into the response published for it.
type RequestHandler struct {
	service *sentiment.Service
	clock   clockwork.Clock
	newID   func() string
}

func NewRequestHandler(service *sentiment.Service, clock clockwork.Clock) *RequestHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RequestHandler{service: service, clock: clock, newID: uuid.NewString}
}

// Handle decodes payload and analyses its texts. Only an undecodable payload
// returns an error; rejected requests produce a response carrying the failure.
func (h *RequestHandler) Handle(payload []byte) (models.SentimentResponse, error) {
	var req models.SentimentRequest
	if err := utils.DeserializeFromJSON(payload, &req); err != nil {
		return models.SentimentResponse{}, fmt.Errorf("[SentimentRequestConsumer] malformed request: %w", err)
	}
	if req.RequestID == "" {
		req.RequestID = h.newID()
	}

	resp := models.SentimentResponse{RequestID: req.RequestID}

	strategy, err := sentiment.ParseStrategy(req.Strategy)
	if err != nil {
		return h.reject(resp, err), nil
	}
	if strategy == "" {
		strategy = h.service.DefaultStrategy()
	}
	resp.Strategy = strategy

	policy := h.service.BatchPolicy()
	if req.Policy != "" {
		if policy, err = sentiment.ParseBatchPolicy(req.Policy); err != nil {
			return h.reject(resp, sentiment.ValidationError(err.Error())), nil
		}
	}

	batch, err := h.service.AnalyzeBatchWithPolicy(req.Texts, strategy, policy)
	if err != nil {
		return h.reject(resp, err), nil
	}

	resp.Batch = &batch
	resp.Timestamp = batch.Timestamp
	return resp, nil
}

func (h *RequestHandler) reject(resp models.SentimentResponse, err error) models.SentimentResponse {
	e := sentiment.AsError(err)
	resp.Error = &models.Failure{Index: -1, Kind: string(e.Kind), Message: e.Error()}
	resp.Timestamp = h.clock.Now().UTC().Format(time.RFC3339Nano)
	return resp
}
