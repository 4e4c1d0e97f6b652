package agent

import (
	"encoding/json"
	"fmt"

	"github.com/fleetmind/agentcore/internal/domain/command"
)

// RegisterCommands adds every agent command definition to the registry.
// Payload validators catch malformed documents before the decider runs;
// domain rules (status guards, duplicate detection) stay in Decide.
func RegisterCommands(registry *command.Registry) error {
	definitions := []command.Definition{
		{Type: CommandTypeDeploy, ValidatePayload: validateDeployPayload},
		{Type: CommandTypeActivate},
		{Type: CommandTypeSuspend, ValidatePayload: validateSuspendPayload},
		{Type: CommandTypeGoOffline},
		{Type: CommandTypeDecommission},
		{Type: CommandTypeUpdateCapabilities},
		{Type: CommandTypeGrantPermissions},
		{Type: CommandTypeRevokePermissions},
		{Type: CommandTypeEnableTools},
		{Type: CommandTypeDisableTools},
		{Type: CommandTypeUpdateConfiguration},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return fmt.Errorf("register %s: %w", def.Type, err)
		}
	}
	return nil
}

// NewRegistry returns a registry with every agent command registered.
func NewRegistry() (*command.Registry, error) {
	registry := command.NewRegistry()
	if err := RegisterCommands(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

func validateDeployPayload(raw json.RawMessage) error {
	var payload DeployPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("deploy payload: %w", err)
	}
	return nil
}

func validateSuspendPayload(raw json.RawMessage) error {
	var payload SuspendPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("suspend payload: %w", err)
	}
	return nil
}
