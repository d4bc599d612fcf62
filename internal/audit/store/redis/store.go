// Package redis stores audit records in a Redis stream. XADD entries are
// immutable and ordered, which makes the stream a natural append-only log.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"certgate/internal/audit"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "certgate:audit"

const recordField = "record"

// Store implements audit.Store on a Redis stream.
type Store struct {
	client goredis.UniversalClient
	stream string
}

// New creates a store writing to stream. An empty stream uses DefaultStream.
func New(client goredis.UniversalClient, stream string) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if stream == "" {
		stream = DefaultStream
	}
	return &Store{client: client, stream: stream}, nil
}

func (s *Store) Append(ctx context.Context, rec audit.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	err = s.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			recordField:  payload,
			"request_id": rec.RequestID,
			"status":     string(rec.Result.Status),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd audit record: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		return []audit.Record{}, nil
	}
	msgs, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange audit stream: %w", err)
	}

	out := make([]audit.Record, len(msgs))
	// XREVRANGE is newest first; fill from the back so the result is oldest first.
	for i, msg := range msgs {
		raw, ok := msg.Values[recordField].(string)
		if !ok {
			return nil, fmt.Errorf("audit stream entry %s has no record field", msg.ID)
		}
		var rec audit.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode audit stream entry %s: %w", msg.ID, err)
		}
		out[len(msgs)-1-i] = rec
	}
	return out, nil
}
