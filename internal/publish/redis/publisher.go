// Package redis publishes agent events to a Redis stream.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fleetmind/agentcore/internal/domain/event"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "agentcore:events"

// Publisher appends envelopes to a Redis stream with XADD.
type Publisher struct {
	client *redis.Client
	stream string
}

// New connects to the Redis URL and returns a stream publisher.
func New(url, stream string) (*Publisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{client: redis.NewClient(opts), stream: stream}, nil
}

// Publish appends a single envelope to the stream.
//
// Fields are flat strings so consumers can filter without decoding the
// payload. Consumers deduplicate on agent_id plus seq.
func (p *Publisher) Publish(ctx context.Context, env event.Envelope) error {
	values := map[string]any{
		"agent_id":       env.AgentID,
		"seq":            env.Seq,
		"type":           string(env.Type),
		"timestamp":      env.Timestamp.UTC().Format(time.RFC3339Nano),
		"payload":        string(env.PayloadJSON),
		"actor_id":       env.ActorID,
		"correlation_id": env.CorrelationID,
		"causation_id":   env.CausationID,
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{Stream: p.stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("xadd %s seq %d: %w", env.AgentID, env.Seq, err)
	}
	return nil
}

// Ping verifies broker connectivity.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
