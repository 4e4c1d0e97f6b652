package command

import (
	"testing"
	"time"

	"github.com/fleetmind/agentcore/internal/domain/event"
)

func TestAcceptCopiesEvents(t *testing.T) {
	evt := event.Event{AgentID: "agt-1", Type: event.TypeAgentDeployed}
	source := []event.Event{evt}

	decision := Accept(source...)
	source[0].AgentID = "mutated"

	if len(decision.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(decision.Events))
	}
	if decision.Events[0].AgentID != "agt-1" {
		t.Fatal("expected decision events to be independent of caller slice")
	}
	if len(decision.Rejections) != 0 {
		t.Fatal("accepted decision should carry no rejections")
	}
}

func TestRejectCarriesRejections(t *testing.T) {
	decision := Reject(Rejection{Code: "AGENT_NOT_FOUND", Message: "agent does not exist"})

	if len(decision.Rejections) != 1 {
		t.Fatalf("expected 1 rejection, got %d", len(decision.Rejections))
	}
	if decision.Rejections[0].Code != "AGENT_NOT_FOUND" {
		t.Fatalf("unexpected rejection code %q", decision.Rejections[0].Code)
	}
	if len(decision.Events) != 0 {
		t.Fatal("rejected decision should carry no events")
	}
}

func TestNewEventCopiesEnvelope(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cmd := Command{
		AgentID:       "agt-1",
		Type:          Type("agent.activate"),
		ActorID:       "op-7",
		CorrelationID: "corr-1",
		CausationID:   "cause-1",
	}

	evt := NewEvent(cmd, event.TypeAgentActivated, []byte(`{}`), now)

	if evt.AgentID != cmd.AgentID {
		t.Fatalf("expected agent id %q, got %q", cmd.AgentID, evt.AgentID)
	}
	if evt.Type != event.TypeAgentActivated {
		t.Fatalf("unexpected event type %q", evt.Type)
	}
	if !evt.Timestamp.Equal(now) {
		t.Fatalf("expected timestamp %v, got %v", now, evt.Timestamp)
	}
	if evt.ActorID != "op-7" || evt.CorrelationID != "corr-1" || evt.CausationID != "cause-1" {
		t.Fatal("expected envelope fields to be forwarded")
	}
}
