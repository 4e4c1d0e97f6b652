package agent

import (
	"encoding/json"

	"github.com/fleetmind/agentcore/internal/domain/event"
)

// Fold applies an event to agent state. Every applied event advances the
// version by exactly one, so a full replay ends with version equal to the
// stream length.
func Fold(state State, evt event.Event) State {
	switch evt.Type {
	case event.TypeAgentDeployed:
		var payload DeployPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Deployed = true
		state.ID = evt.AgentID
		state.Category = Category(payload.Category)
		state.Status = StatusDeployed
		state.Metadata = Metadata{
			Name:        payload.Name,
			Description: payload.Description,
			Version:     payload.Version,
			Owner:       payload.Owner,
		}

	case event.TypeAgentActivated:
		state.Status = StatusActive

	case event.TypeAgentSuspended:
		state.Status = StatusSuspended

	case event.TypeAgentWentOffline:
		state.Status = StatusOffline

	case event.TypeAgentDecommissioned:
		state.Status = StatusDecommissioned

	case event.TypeCapabilitiesUpdated:
		var payload CapabilitiesUpdatedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		afterAdd, _ := setAdd(state.Capabilities, payload.Added)
		result, _ := setRemove(afterAdd, payload.Removed)
		state.Capabilities = result

	case event.TypePermissionsGranted:
		var payload PermissionsChangedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		result, _ := setAdd(state.Permissions, payload.Permissions)
		state.Permissions = result

	case event.TypePermissionsRevoked:
		var payload PermissionsChangedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		result, _ := setRemove(state.Permissions, payload.Permissions)
		state.Permissions = result

	case event.TypeToolsEnabled:
		var payload ToolsChangedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		result, _ := setAdd(state.Tools, payload.Tools)
		state.Tools = result

	case event.TypeToolsDisabled:
		var payload ToolsChangedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		result, _ := setRemove(state.Tools, payload.Tools)
		state.Tools = result

	case event.TypeConfigurationChanged:
		var payload ConfigurationChangedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		if len(payload.Set) > 0 || len(payload.Unset) > 0 {
			config := make(map[string]string, len(state.Configuration)+len(payload.Set))
			for key, value := range state.Configuration {
				config[key] = value
			}
			for key, value := range payload.Set {
				config[key] = value
			}
			for _, key := range payload.Unset {
				delete(config, key)
			}
			if len(config) == 0 {
				config = nil
			}
			state.Configuration = config
		}

	default:
		// Unknown event types still advance the version below so that
		// replayed streams from newer writers keep their length invariant.
	}

	state.Version++
	return state
}
