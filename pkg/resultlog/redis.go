// Package resultlog publishes per-stream sync results to Redis so an
// orchestrator can poll or subscribe for completion.
package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/queuebridge/tap-aptify/pkg/config"
)

// StreamResult is the state published after each stream finishes, whether
// it succeeded or failed.
//
// Redis keys:
//
//	SET  tap:stream:<tap_stream_id>:state  <JSON>  EX <ttl>  for polling
//	PUB  tap:stream:<tap_stream_id>                          for pub/sub routing
type StreamResult struct {
	Stream     string    `json:"stream"`
	Status     string    `json:"status"` // "success" | "failed"
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
	Records    int64     `json:"records"`
	Bookmark   string    `json:"bookmark,omitempty"`
	Error      *string   `json:"error,omitempty"`
}

// RedisPublisher publishes stream results to Redis.
type RedisPublisher struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPublisher connects a publisher per the result_log configuration.
func NewRedisPublisher(cfg config.ResultLogConfig) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisPublisher{
		client: client,
		ttl:    time.Duration(cfg.TTL) * time.Second,
	}
}

// Publish writes the result of one stream sync:
//   - SET tap:stream:<id>:state <JSON> EX <ttl> for polling
//   - PUBLISH tap:stream:<id> <JSON> for subscription
//
// It is called for every stream regardless of outcome; execErr == nil means
// the sync succeeded.
func (p *RedisPublisher) Publish(ctx context.Context, result StreamResult, execErr error) error {
	if execErr != nil {
		result.Status = "failed"
		msg := execErr.Error()
		result.Error = &msg
	} else {
		result.Status = "success"
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal stream result: %w", err)
	}

	stateKey := fmt.Sprintf("tap:stream:%s:state", result.Stream)
	eventChannel := fmt.Sprintf("tap:stream:%s", result.Stream)

	if err := p.client.Set(ctx, stateKey, payload, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	if err := p.client.Publish(ctx, eventChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}
	return nil
}

// Close shuts the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
