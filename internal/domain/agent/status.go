package agent

import "strings"

// Status describes the agent lifecycle label used by domain decisions.
type Status string

const (
	StatusUnspecified    Status = ""
	StatusDeployed       Status = "deployed"
	StatusActive         Status = "active"
	StatusSuspended      Status = "suspended"
	StatusOffline        Status = "offline"
	StatusDecommissioned Status = "decommissioned"
)

// normalizeStatusLabel canonicalizes status labels.
func normalizeStatusLabel(value string) (Status, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	switch strings.ToUpper(trimmed) {
	case "DEPLOYED", "AGENT_STATUS_DEPLOYED":
		return StatusDeployed, true
	case "ACTIVE", "AGENT_STATUS_ACTIVE":
		return StatusActive, true
	case "SUSPENDED", "AGENT_STATUS_SUSPENDED":
		return StatusSuspended, true
	case "OFFLINE", "AGENT_STATUS_OFFLINE":
		return StatusOffline, true
	case "DECOMMISSIONED", "AGENT_STATUS_DECOMMISSIONED":
		return StatusDecommissioned, true
	default:
		return "", false
	}
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusDecommissioned
}

// canActivateFrom reports whether Activate is legal from the given status.
func canActivateFrom(s Status) bool {
	return s == StatusDeployed || s == StatusSuspended || s == StatusOffline
}

// canGoOfflineFrom reports whether GoOffline is legal from the given status.
func canGoOfflineFrom(s Status) bool {
	return s == StatusActive || s == StatusSuspended
}
