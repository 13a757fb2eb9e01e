package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// RedisSink publishes entries onto a capped Redis stream so other
// processes can follow the audit trail.
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisSink returns a sink appending to stream. maxLen caps the stream
// approximately; zero leaves it unbounded.
func NewRedisSink(client *redis.Client, stream string, maxLen int64) *RedisSink {
	if stream == "" {
		stream = "bizhub:audit"
	}
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

// Write implements Sink.
func (s *RedisSink) Write(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"tenant_id": strconv.FormatInt(entry.TenantID, 10),
			"action":    entry.Action,
			"outcome":   string(entry.Outcome),
			"entry":     string(payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
