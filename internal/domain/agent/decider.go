package agent

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/fleetmind/agentcore/internal/domain/command"
	"github.com/fleetmind/agentcore/internal/domain/event"
)

// Command types handled by the agent decider.
const (
	CommandTypeDeploy              command.Type = "agent.deploy"
	CommandTypeActivate            command.Type = "agent.activate"
	CommandTypeSuspend             command.Type = "agent.suspend"
	CommandTypeGoOffline           command.Type = "agent.go_offline"
	CommandTypeDecommission        command.Type = "agent.decommission"
	CommandTypeUpdateCapabilities  command.Type = "agent.update_capabilities"
	CommandTypeGrantPermissions    command.Type = "agent.grant_permissions"
	CommandTypeRevokePermissions   command.Type = "agent.revoke_permissions"
	CommandTypeEnableTools         command.Type = "agent.enable_tools"
	CommandTypeDisableTools        command.Type = "agent.disable_tools"
	CommandTypeUpdateConfiguration command.Type = "agent.update_configuration"
)

// Rejection codes produced by the agent decider.
const (
	RejectionCodeAlreadyExists          = "AGENT_ALREADY_EXISTS"
	RejectionCodeNotFound               = "AGENT_NOT_FOUND"
	RejectionCodeNameEmpty              = "AGENT_NAME_EMPTY"
	RejectionCodeVersionEmpty           = "AGENT_VERSION_EMPTY"
	RejectionCodeCategoryInvalid        = "AGENT_CATEGORY_INVALID"
	RejectionCodeSuspendReasonEmpty     = "AGENT_SUSPEND_REASON_EMPTY"
	RejectionCodeInvalidStateTransition = "AGENT_INVALID_STATE_TRANSITION"
	RejectionCodeCapabilitiesEmpty      = "AGENT_CAPABILITIES_EMPTY"
	RejectionCodePermissionsEmpty       = "AGENT_PERMISSIONS_EMPTY"
	RejectionCodeToolsEmpty             = "AGENT_TOOLS_EMPTY"
	RejectionCodeConfigurationEmpty     = "AGENT_CONFIGURATION_EMPTY"
)

// Decide returns the decision for an agent command against current state.
// It is pure: same inputs always produce the same outputs, and the clock is
// supplied by the caller.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	if cmd.Type == CommandTypeDeploy {
		if state.Deployed {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeAlreadyExists,
				Message: "agent already exists",
			})
		}
		var payload DeployPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		normalizedName := strings.TrimSpace(payload.Name)
		if normalizedName == "" {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeNameEmpty,
				Message: "agent name is required",
			})
		}
		normalizedVersion := strings.TrimSpace(payload.Version)
		if normalizedVersion == "" {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeVersionEmpty,
				Message: "agent version is required",
			})
		}
		normalizedCategory, ok := normalizeCategoryLabel(payload.Category)
		if !ok {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeCategoryInvalid,
				Message: "agent category is invalid",
			})
		}

		normalizedPayload := DeployPayload{
			Name:        normalizedName,
			Description: strings.TrimSpace(payload.Description),
			Version:     normalizedVersion,
			Owner:       strings.TrimSpace(payload.Owner),
			Category:    string(normalizedCategory),
		}
		payloadJSON, _ := json.Marshal(normalizedPayload)

		return command.Accept(command.NewEvent(cmd, event.TypeAgentDeployed, payloadJSON, now().UTC()))
	}

	// Every other command requires an existing agent.
	if !state.Deployed {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeNotFound,
			Message: "agent does not exist",
		})
	}

	// Decommissioned is terminal: every command is rejected, regardless of type.
	if state.Status.IsTerminal() {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeInvalidStateTransition,
			Message: "agent is decommissioned",
		})
	}

	switch cmd.Type {
	case CommandTypeActivate:
		if !canActivateFrom(state.Status) {
			return rejectTransition(state.Status, "activate")
		}
		return command.Accept(command.NewEvent(cmd, event.TypeAgentActivated, []byte("{}"), now().UTC()))

	case CommandTypeSuspend:
		if state.Status != StatusActive {
			return rejectTransition(state.Status, "suspend")
		}
		var payload SuspendPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		reason := strings.TrimSpace(payload.Reason)
		if reason == "" {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeSuspendReasonEmpty,
				Message: "suspend reason is required",
			})
		}
		payloadJSON, _ := json.Marshal(SuspendPayload{Reason: reason})
		return command.Accept(command.NewEvent(cmd, event.TypeAgentSuspended, payloadJSON, now().UTC()))

	case CommandTypeGoOffline:
		if !canGoOfflineFrom(state.Status) {
			return rejectTransition(state.Status, "go offline")
		}
		return command.Accept(command.NewEvent(cmd, event.TypeAgentWentOffline, []byte("{}"), now().UTC()))

	case CommandTypeDecommission:
		var payload DecommissionPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		payloadJSON, _ := json.Marshal(DecommissionPayload{Reason: strings.TrimSpace(payload.Reason)})
		return command.Accept(command.NewEvent(cmd, event.TypeAgentDecommissioned, payloadJSON, now().UTC()))

	case CommandTypeUpdateCapabilities:
		return decideUpdateCapabilities(state, cmd, now)

	case CommandTypeGrantPermissions:
		return decideGrantPermissions(state, cmd, now)

	case CommandTypeRevokePermissions:
		return decideRevokePermissions(state, cmd, now)

	case CommandTypeEnableTools:
		return decideEnableTools(state, cmd, now)

	case CommandTypeDisableTools:
		return decideDisableTools(state, cmd, now)

	case CommandTypeUpdateConfiguration:
		return decideUpdateConfiguration(state, cmd, now)
	}

	return command.Decision{}
}

func rejectTransition(from Status, action string) command.Decision {
	return command.Reject(command.Rejection{
		Code:    RejectionCodeInvalidStateTransition,
		Message: "cannot " + action + " from status " + string(from),
	})
}

func decideUpdateCapabilities(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload CapabilitiesPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)
	add := normalizeItems(payload.Add)
	remove := normalizeItems(payload.Remove)
	if len(add) == 0 && len(remove) == 0 {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeCapabilitiesEmpty,
			Message: "capability update requires items to add or remove",
		})
	}

	afterAdd, added := setAdd(state.Capabilities, add)
	_, removed := setRemove(afterAdd, remove)
	if len(added) == 0 && len(removed) == 0 {
		// Exact duplicates: the state would not change, so no event is
		// recorded and the version does not advance.
		return command.Accept()
	}

	payloadJSON, _ := json.Marshal(CapabilitiesUpdatedPayload{Added: added, Removed: removed})
	return command.Accept(command.NewEvent(cmd, event.TypeCapabilitiesUpdated, payloadJSON, now().UTC()))
}

func decideGrantPermissions(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload PermissionsPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)
	permissions := normalizeItems(payload.Permissions)
	if len(permissions) == 0 {
		return command.Reject(command.Rejection{
			Code:    RejectionCodePermissionsEmpty,
			Message: "permission grant requires permissions",
		})
	}

	_, granted := setAdd(state.Permissions, permissions)
	if len(granted) == 0 {
		return command.Accept()
	}

	payloadJSON, _ := json.Marshal(PermissionsChangedPayload{Permissions: granted})
	return command.Accept(command.NewEvent(cmd, event.TypePermissionsGranted, payloadJSON, now().UTC()))
}

func decideRevokePermissions(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload PermissionsPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)
	permissions := normalizeItems(payload.Permissions)
	if len(permissions) == 0 {
		return command.Reject(command.Rejection{
			Code:    RejectionCodePermissionsEmpty,
			Message: "permission revocation requires permissions",
		})
	}

	_, revoked := setRemove(state.Permissions, permissions)
	if len(revoked) == 0 {
		return command.Accept()
	}

	payloadJSON, _ := json.Marshal(PermissionsChangedPayload{Permissions: revoked})
	return command.Accept(command.NewEvent(cmd, event.TypePermissionsRevoked, payloadJSON, now().UTC()))
}

func decideEnableTools(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload ToolsPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)
	tools := normalizeItems(payload.Tools)
	if len(tools) == 0 {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeToolsEmpty,
			Message: "tool enablement requires tools",
		})
	}

	_, enabled := setAdd(state.Tools, tools)
	if len(enabled) == 0 {
		return command.Accept()
	}

	payloadJSON, _ := json.Marshal(ToolsChangedPayload{Tools: enabled})
	return command.Accept(command.NewEvent(cmd, event.TypeToolsEnabled, payloadJSON, now().UTC()))
}

func decideDisableTools(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload ToolsPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)
	tools := normalizeItems(payload.Tools)
	if len(tools) == 0 {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeToolsEmpty,
			Message: "tool disablement requires tools",
		})
	}

	_, disabled := setRemove(state.Tools, tools)
	if len(disabled) == 0 {
		return command.Accept()
	}

	payloadJSON, _ := json.Marshal(ToolsChangedPayload{Tools: disabled})
	return command.Accept(command.NewEvent(cmd, event.TypeToolsDisabled, payloadJSON, now().UTC()))
}

func decideUpdateConfiguration(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload ConfigurationPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)

	set := make(map[string]string, len(payload.Set))
	for key, value := range payload.Set {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		set[trimmed] = value
	}
	unset := normalizeItems(payload.Unset)
	if len(set) == 0 && len(unset) == 0 {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeConfigurationEmpty,
			Message: "configuration update requires keys to set or unset",
		})
	}

	effectiveSet := make(map[string]string, len(set))
	for key, value := range set {
		if current, ok := state.Configuration[key]; ok && current == value {
			continue
		}
		effectiveSet[key] = value
	}
	var effectiveUnset []string
	for _, key := range unset {
		if _, ok := state.Configuration[key]; !ok {
			continue
		}
		if _, resetting := effectiveSet[key]; resetting {
			continue
		}
		effectiveUnset = append(effectiveUnset, key)
	}
	if len(effectiveSet) == 0 && len(effectiveUnset) == 0 {
		return command.Accept()
	}
	if len(effectiveSet) == 0 {
		effectiveSet = nil
	}

	payloadJSON, _ := json.Marshal(ConfigurationChangedPayload{Set: effectiveSet, Unset: effectiveUnset})
	return command.Accept(command.NewEvent(cmd, event.TypeConfigurationChanged, payloadJSON, now().UTC()))
}
