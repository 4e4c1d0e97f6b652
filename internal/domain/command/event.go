package command

import (
	"time"

	"github.com/fleetmind/agentcore/internal/domain/event"
)

// NewEvent builds an event.Event by copying the shared envelope fields from a
// command. Callers supply the event-specific type, payload, and timestamp.
// This eliminates per-decider boilerplate and ensures that new envelope
// fields are automatically forwarded.
func NewEvent(cmd Command, eventType event.Type, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		AgentID:       cmd.AgentID,
		Type:          eventType,
		Timestamp:     now,
		ActorID:       cmd.ActorID,
		CorrelationID: cmd.CorrelationID,
		CausationID:   cmd.CausationID,
		PayloadJSON:   payloadJSON,
	}
}
