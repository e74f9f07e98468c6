package db

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentiflow/internal/models"
)

const (
	// DynamoDB rejects BatchWriteItem calls with more than 25 requests.
	maxBatchWriteItems = 25

	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

// BatchWriter is the part of the DynamoDB client the result store uses.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// ResultStore persists batch outputs, one item per analysed text.
type ResultStore struct {
	client     BatchWriter
	table      string
	ttl        time.Duration
	clock      clockwork.Clock
	maxRetries int
	backoff    time.Duration
}

type StoreOption func(*ResultStore)

func WithStoreClock(clock clockwork.Clock) StoreOption {
	return func(s *ResultStore) { s.clock = clock }
}

// WithRetryBackoff sets the initial wait before resubmitting unprocessed items.
// It doubles after every attempt.
func WithRetryBackoff(backoff time.Duration, maxRetries int) StoreOption {
	return func(s *ResultStore) {
		s.backoff = backoff
		s.maxRetries = maxRetries
	}
}

func NewResultStore(client BatchWriter, table string, ttl time.Duration, opts ...StoreOption) *ResultStore {
	s := &ResultStore{
		client:     client,
		table:      table,
		ttl:        ttl,
		clock:      clockwork.NewRealClock(),
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutResults writes records in chunks of 25. Items DynamoDB leaves unprocessed
// are retried with exponential backoff; any still left afterwards fail the call.
func (s *ResultStore) PutResults(ctx context.Context, records []models.SentimentRecord) error {
	expiresAt := s.clock.Now().Add(s.ttl).Unix()

	for i := 0; i < len(records); i += maxBatchWriteItems {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		end := min(i+maxBatchWriteItems, len(records))
		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, record := range records[i:end] {
			item, err := ResultToDynamoDBItem(record, expiresAt)
			if err != nil {
				return err
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.writeChunk(ctx, writeRequests); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Successfully stored sentiment results",
		slog.String("table", s.table),
		slog.Int("count", len(records)))
	return nil
}

func (s *ResultStore) writeChunk(ctx context.Context, writeRequests []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{s.table: writeRequests},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write sentiment results: %w", err)
	}

	backoff := s.backoff
	for retry := 0; len(out.UnprocessedItems[s.table]) > 0 && retry < s.maxRetries; retry++ {
		slog.Warn("[DynamoDB] Retrying unprocessed sentiment items...",
			slog.Int("attempt", retry+1),
			slog.Int("remaining", len(out.UnprocessedItems[s.table])))

		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error: %w", err)
		}
	}

	if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
		slog.Error("[DynamoDB] Some sentiment items failed after retries", slog.Int("remaining", remaining))
		return fmt.Errorf("[DynamoDB] %d sentiment items unprocessed after %d retries", remaining, s.maxRetries)
	}
	return nil
}

// ResultToDynamoDBItem marshals a record and stamps the expires_at TTL attribute.
func ResultToDynamoDBItem(record models.SentimentRecord, expiresAt int64) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] Failed to marshal sentiment record %s/%d: %w",
			record.RequestID, record.ItemIndex, err)
	}
	item["expires_at"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)}
	return item, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
