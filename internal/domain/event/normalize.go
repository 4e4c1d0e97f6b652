package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fleetmind/agentcore/internal/platform/encoding"
)

// NormalizeForAppend validates and normalizes an event before storage assigns
// sequencing. Payloads are rewritten to canonical JSON so that stored bytes
// are deterministic regardless of how the caller produced them.
func NormalizeForAppend(evt Event) (Event, error) {
	evt.AgentID = strings.TrimSpace(evt.AgentID)
	if evt.AgentID == "" {
		return Event{}, fmt.Errorf("agent id is required")
	}

	evt.Type = Type(strings.TrimSpace(string(evt.Type)))
	if !evt.Type.IsValid() {
		return Event{}, fmt.Errorf("event type is required")
	}

	if evt.Timestamp.IsZero() {
		return Event{}, fmt.Errorf("event timestamp is required")
	}

	evt.ActorID = strings.TrimSpace(evt.ActorID)
	evt.CorrelationID = strings.TrimSpace(evt.CorrelationID)
	evt.CausationID = strings.TrimSpace(evt.CausationID)

	if len(evt.PayloadJSON) == 0 {
		evt.PayloadJSON = []byte("{}")
	}
	if !json.Valid(evt.PayloadJSON) {
		return Event{}, fmt.Errorf("payload json must be valid JSON")
	}

	canonical, err := encoding.CanonicalJSON(json.RawMessage(evt.PayloadJSON))
	if err != nil {
		return Event{}, fmt.Errorf("canonical payload json: %w", err)
	}
	evt.PayloadJSON = canonical

	return evt, nil
}
