package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentiflow/internal/models"
	"github.com/spacesedan/sentiflow/internal/utils"
)

const (
	persistAttempts     = 3
	defaultErrorBackoff = 2 * time.Second
)

type MessageSource interface {
	Next() (*kafka.Message, error)
}

type Committer interface {
	Commit(ctx context.Context, msg *kafka.Message) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

type ResultWriter interface {
	PutResults(ctx context.Context, records []models.SentimentRecord) error
}

type Options struct {
	ResultsTopic  string
	BatchSize     int
	FlushInterval time.Duration
	// ErrorBackoff is how long Run waits after the source reports an error.
	ErrorBackoff time.Duration
	Clock        clockwork.Clock
}

// SentimentRequestConsumer answers every request on the results topic, buffers
// the per-item records for the result store and commits offsets after each flush.
type SentimentRequestConsumer struct {
	source    MessageSource
	committer Committer
	publisher Publisher
	store     ResultWriter
	handler   *RequestHandler
	opts      Options

	records *utils.BatchBuffer[models.SentimentRecord]
	pending []*kafka.Message
}

// NewSentimentRequestConsumer wires the consumer. store may be nil, in which
// case records are dropped and offsets are committed on every flush.
func NewSentimentRequestConsumer(
	source MessageSource,
	committer Committer,
	publisher Publisher,
	store ResultWriter,
	handler *RequestHandler,
	opts Options,
) *SentimentRequestConsumer {
	if opts.BatchSize < 1 {
		opts.BatchSize = 25
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 5 * time.Second
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = defaultErrorBackoff
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &SentimentRequestConsumer{
		source:    source,
		committer: committer,
		publisher: publisher,
		store:     store,
		handler:   handler,
		opts:      opts,
		records:   utils.NewBatchBuffer[models.SentimentRecord](opts.BatchSize),
	}
}

// Run consumes until ctx is canceled, flushing what is buffered on the way out.
// It returns an error only when a response cannot be published, leaving the
// message uncommitted so it is redelivered.
func (c *SentimentRequestConsumer) Run(ctx context.Context) error {
	slog.Info("[SentimentRequestConsumer] Listening for messages...",
		slog.String("results_topic", c.opts.ResultsTopic))

	ticker := c.opts.Clock.NewTicker(c.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[SentimentRequestConsumer] Stopping consumer...")
			c.flush(context.WithoutCancel(ctx))
			return nil
		case <-ticker.Chan():
			c.flush(ctx)
		default:
			msg, err := c.source.Next()
			if err != nil {
				if ctx.Err() == nil {
					utils.HandleConsumerError(err)
					c.backoff(ctx)
				}
				continue
			}
			if msg == nil {
				continue
			}

			if err := c.process(ctx, msg); err != nil {
				c.flush(context.WithoutCancel(ctx))
				return err
			}
			if c.records.Full() {
				c.flush(ctx)
			}
		}
	}
}

// backoff waits out ErrorBackoff so a source that fails immediately, such as
// one with every broker down, is not polled in a tight loop.
func (c *SentimentRequestConsumer) backoff(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-c.opts.Clock.After(c.opts.ErrorBackoff):
	}
}

func (c *SentimentRequestConsumer) process(ctx context.Context, msg *kafka.Message) error {
	resp, err := c.handler.Handle(msg.Value)
	if err != nil {
		// Undecodable payloads will never succeed; skip past them.
		utils.HandleConsumerError(err)
		c.pending = append(c.pending, msg)
		return nil
	}

	payload, err := utils.SerializeToJSON(resp)
	if err != nil {
		return fmt.Errorf("[SentimentRequestConsumer] failed to encode response %s: %w", resp.RequestID, err)
	}
	if err := c.publisher.Publish(ctx, c.opts.ResultsTopic, resp.RequestID, payload); err != nil {
		return fmt.Errorf("[SentimentRequestConsumer] failed to publish response %s: %w", resp.RequestID, err)
	}

	if resp.Batch != nil {
		c.records.Add(models.RecordsFor(resp.RequestID, resp.Strategy, *resp.Batch)...)
		slog.Info("[SentimentRequestConsumer] Request analysed",
			slog.String("request_id", resp.RequestID),
			slog.String("strategy", string(resp.Strategy)),
			slog.Int("total", resp.Batch.Summary.Total),
			slog.Int("failed", resp.Batch.Summary.FailedCount))
	} else {
		slog.Warn("[SentimentRequestConsumer] Request rejected",
			slog.String("request_id", resp.RequestID),
			slog.String("kind", resp.Error.Kind),
			slog.String("error", resp.Error.Message))
	}

	c.pending = append(c.pending, msg)
	return nil
}

// flush persists buffered records and then commits every message they came from.
// Responses are already published by then, so a failed write is logged rather than retried forever.
func (c *SentimentRequestConsumer) flush(ctx context.Context) {
	batch := c.records.GetAndClear()
	if len(batch) > 0 && c.store != nil {
		var err error
		for i := 0; i < persistAttempts; i++ {
			if err = c.store.PutResults(ctx, batch); err == nil {
				break
			}
			slog.Error("[SentimentRequestConsumer] Failed to write results to DB",
				slog.String("error", err.Error()),
				slog.Int("attempt", i+1))
		}
		if err != nil {
			slog.Error("[SentimentRequestConsumer] Dropping results after retries",
				slog.Int("records", len(batch)))
		}
	}

	for _, msg := range c.pending {
		if err := c.committer.Commit(ctx, msg); err != nil {
			slog.Warn("[SentimentRequestConsumer] Failed to commit offset",
				slog.String("error", err.Error()))
		}
	}
	c.pending = c.pending[:0]
}
