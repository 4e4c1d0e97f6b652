package event

import (
	"testing"
	"time"
)

func TestNormalizeForAppendRequiresAgentID(t *testing.T) {
	_, err := NormalizeForAppend(Event{
		Type:      TypeAgentDeployed,
		Timestamp: time.Now(),
	})
	if err == nil {
		t.Fatal("expected error for missing agent id")
	}
}

func TestNormalizeForAppendRequiresType(t *testing.T) {
	_, err := NormalizeForAppend(Event{
		AgentID:   "agt-1",
		Timestamp: time.Now(),
	})
	if err == nil {
		t.Fatal("expected error for missing event type")
	}
}

func TestNormalizeForAppendRequiresTimestamp(t *testing.T) {
	_, err := NormalizeForAppend(Event{
		AgentID: "agt-1",
		Type:    TypeAgentDeployed,
	})
	if err == nil {
		t.Fatal("expected error for zero timestamp")
	}
}

func TestNormalizeForAppendDefaultsPayload(t *testing.T) {
	evt, err := NormalizeForAppend(Event{
		AgentID:   " agt-1 ",
		Type:      TypeAgentActivated,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if evt.AgentID != "agt-1" {
		t.Fatalf("expected trimmed agent id, got %q", evt.AgentID)
	}
	if string(evt.PayloadJSON) != "{}" {
		t.Fatalf("expected empty payload default, got %s", evt.PayloadJSON)
	}
}

func TestNormalizeForAppendRejectsInvalidPayload(t *testing.T) {
	_, err := NormalizeForAppend(Event{
		AgentID:     "agt-1",
		Type:        TypeAgentActivated,
		Timestamp:   time.Now(),
		PayloadJSON: []byte("{not json"),
	})
	if err == nil {
		t.Fatal("expected error for invalid payload")
	}
}

func TestNormalizeForAppendCanonicalizesPayload(t *testing.T) {
	evt, err := NormalizeForAppend(Event{
		AgentID:     "agt-1",
		Type:        TypeAgentSuspended,
		Timestamp:   time.Now(),
		PayloadJSON: []byte(`{ "z": 1, "a": 2 }`),
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if string(evt.PayloadJSON) != `{"a":2,"z":1}` {
		t.Fatalf("expected canonical payload, got %s", evt.PayloadJSON)
	}
}

func TestTypeDomain(t *testing.T) {
	if got := TypeAgentDeployed.Domain(); got != "agent" {
		t.Fatalf("expected domain agent, got %q", got)
	}
}
