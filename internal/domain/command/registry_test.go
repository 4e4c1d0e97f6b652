package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestRegistryValidateForDecision_MissingAgentID(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{
		Type: Type("agent.deploy"),
	}); err != nil {
		t.Fatalf("register type: %v", err)
	}

	cmd := Command{
		Type:        Type("agent.deploy"),
		PayloadJSON: []byte("{}"),
	}

	_, err := registry.ValidateForDecision(cmd)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrAgentIDRequired) {
		t.Fatalf("expected ErrAgentIDRequired, got %v", err)
	}
}

func TestRegistryValidateForDecision_UnknownType(t *testing.T) {
	registry := NewRegistry()

	cmd := Command{
		AgentID:     "agt-1",
		Type:        Type("unknown.command"),
		PayloadJSON: []byte("{}"),
	}

	_, err := registry.ValidateForDecision(cmd)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrTypeUnknown) {
		t.Fatalf("expected ErrTypeUnknown, got %v", err)
	}
}

func TestRegistryValidateForDecision_MissingType(t *testing.T) {
	registry := NewRegistry()

	cmd := Command{
		AgentID:     "agt-1",
		PayloadJSON: []byte("{}"),
	}

	_, err := registry.ValidateForDecision(cmd)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrTypeRequired) {
		t.Fatalf("expected ErrTypeRequired, got %v", err)
	}
}

func TestRegistryValidateForDecision_InvalidPayloadJSON(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{
		Type: Type("agent.deploy"),
	}); err != nil {
		t.Fatalf("register type: %v", err)
	}

	cmd := Command{
		AgentID:     "agt-1",
		Type:        Type("agent.deploy"),
		PayloadJSON: []byte("{broken"),
	}

	_, err := registry.ValidateForDecision(cmd)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}
}

func TestRegistryValidateForDecision_DefaultsEmptyPayload(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{
		Type: Type("agent.activate"),
	}); err != nil {
		t.Fatalf("register type: %v", err)
	}

	cmd := Command{
		AgentID: "agt-1",
		Type:    Type("agent.activate"),
	}

	validated, err := registry.ValidateForDecision(cmd)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(validated.PayloadJSON) != "{}" {
		t.Fatalf("expected empty payload default, got %s", validated.PayloadJSON)
	}
}

func TestRegistryValidateForDecision_CanonicalizesPayload(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{
		Type: Type("agent.deploy"),
	}); err != nil {
		t.Fatalf("register type: %v", err)
	}

	cmd := Command{
		AgentID:     "agt-1",
		Type:        Type("agent.deploy"),
		PayloadJSON: []byte(`{ "z": 1, "a": 2 }`),
	}

	validated, err := registry.ValidateForDecision(cmd)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(validated.PayloadJSON) != `{"a":2,"z":1}` {
		t.Fatalf("expected canonical payload, got %s", validated.PayloadJSON)
	}
}

func TestRegistryValidateForDecision_RunsPayloadValidator(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{
		Type: Type("agent.suspend"),
		ValidatePayload: func(raw json.RawMessage) error {
			var payload struct {
				Reason string `json:"reason"`
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return err
			}
			if payload.Reason == "" {
				return fmt.Errorf("reason is required")
			}
			return nil
		},
	}); err != nil {
		t.Fatalf("register type: %v", err)
	}

	cmd := Command{
		AgentID:     "agt-1",
		Type:        Type("agent.suspend"),
		PayloadJSON: []byte(`{}`),
	}

	if _, err := registry.ValidateForDecision(cmd); err == nil {
		t.Fatal("expected payload validator failure")
	}

	cmd.PayloadJSON = []byte(`{"reason":"maintenance"}`)
	if _, err := registry.ValidateForDecision(cmd); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: Type("agent.deploy")}); err != nil {
		t.Fatalf("register type: %v", err)
	}
	if err := registry.Register(Definition{Type: Type("agent.deploy")}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRegistryListDefinitionsSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"agent.suspend", "agent.activate", "agent.deploy"} {
		if err := registry.Register(Definition{Type: Type(name)}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	defs := registry.ListDefinitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	want := []Type{"agent.activate", "agent.deploy", "agent.suspend"}
	for i, def := range defs {
		if def.Type != want[i] {
			t.Fatalf("expected %s at index %d, got %s", want[i], i, def.Type)
		}
	}
}
