// Package publish relays appended agent events to downstream consumers.
//
// Delivery is at-least-once: the relay drains the journal past each
// agent's publish cursor in sequence order and advances the cursor only
// after the broker accepts the event. Consumers deduplicate on the
// (agent id, sequence) pair.
package publish

import (
	"context"

	"github.com/fleetmind/agentcore/internal/domain/event"
)

// Publisher delivers a single envelope to a broker or sink.
type Publisher interface {
	Publish(ctx context.Context, env event.Envelope) error
}

// Func adapts a function to the Publisher interface.
type Func func(ctx context.Context, env event.Envelope) error

// Publish implements Publisher.
func (f Func) Publish(ctx context.Context, env event.Envelope) error {
	return f(ctx, env)
}
