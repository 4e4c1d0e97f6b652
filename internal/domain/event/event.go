package event

import (
	"strings"
	"time"
)

// Type identifies the type of an agent event.
type Type string

// Lifecycle events.
const (
	// TypeAgentDeployed records the deployment of a new agent.
	TypeAgentDeployed Type = "agent.deployed"
	// TypeAgentActivated records an agent becoming active.
	TypeAgentActivated Type = "agent.activated"
	// TypeAgentSuspended records an agent being suspended.
	TypeAgentSuspended Type = "agent.suspended"
	// TypeAgentWentOffline records an agent going offline.
	TypeAgentWentOffline Type = "agent.went_offline"
	// TypeAgentDecommissioned records the terminal decommissioning of an agent.
	TypeAgentDecommissioned Type = "agent.decommissioned"
)

// Sub-state events (capability, permission, tool, and configuration changes).
const (
	// TypeCapabilitiesUpdated records changes to the agent's capability set.
	TypeCapabilitiesUpdated Type = "agent.capabilities_updated"
	// TypePermissionsGranted records permissions added to the agent.
	TypePermissionsGranted Type = "agent.permissions_granted"
	// TypePermissionsRevoked records permissions removed from the agent.
	TypePermissionsRevoked Type = "agent.permissions_revoked"
	// TypeToolsEnabled records tools enabled for the agent.
	TypeToolsEnabled Type = "agent.tools_enabled"
	// TypeToolsDisabled records tools disabled for the agent.
	TypeToolsDisabled Type = "agent.tools_disabled"
	// TypeConfigurationChanged records configuration key changes.
	TypeConfigurationChanged Type = "agent.configuration_changed"
)

// Event represents an immutable fact in an agent's event stream.
type Event struct {
	// AgentID is the agent this event belongs to.
	AgentID string
	// Type identifies the kind of event.
	Type Type
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// ActorID references who or what triggered the event (optional).
	ActorID string
	// CorrelationID links the event to the request that caused it.
	CorrelationID string
	// CausationID links the event to the event or command it was caused by.
	CausationID string
	// PayloadJSON holds event-specific data as canonical JSON.
	PayloadJSON []byte
}

// Envelope is an Event plus the stream position assigned by storage.
type Envelope struct {
	Event
	// Seq is the event sequence number within the agent's stream (starts at 1).
	Seq uint64
	// RecordedAt is when the store durably recorded the event.
	RecordedAt time.Time
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g., "agent").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}
