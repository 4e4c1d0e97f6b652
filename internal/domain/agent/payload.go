package agent

// DeployPayload carries the fields for agent.deploy and agent.deployed.
type DeployPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
	Owner       string `json:"owner,omitempty"`
	Category    string `json:"category"`
}

// SuspendPayload carries the fields for agent.suspend and agent.suspended.
type SuspendPayload struct {
	Reason string `json:"reason"`
}

// DecommissionPayload carries the optional fields for agent.decommission and
// agent.decommissioned.
type DecommissionPayload struct {
	Reason string `json:"reason,omitempty"`
}

// CapabilitiesPayload carries the requested capability changes for
// agent.update_capabilities.
type CapabilitiesPayload struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// CapabilitiesUpdatedPayload records the effective capability delta.
type CapabilitiesUpdatedPayload struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// PermissionsPayload carries the permission identifiers for
// agent.grant_permissions and agent.revoke_permissions.
type PermissionsPayload struct {
	Permissions []string `json:"permissions"`
}

// PermissionsChangedPayload records the permissions actually granted or
// revoked, used by both agent.permissions_granted and
// agent.permissions_revoked.
type PermissionsChangedPayload struct {
	Permissions []string `json:"permissions"`
}

// ToolsPayload carries the tool identifiers for agent.enable_tools and
// agent.disable_tools.
type ToolsPayload struct {
	Tools []string `json:"tools"`
}

// ToolsChangedPayload records the tools actually enabled or disabled, used by
// both agent.tools_enabled and agent.tools_disabled.
type ToolsChangedPayload struct {
	Tools []string `json:"tools"`
}

// ConfigurationPayload carries the requested configuration changes for
// agent.update_configuration.
type ConfigurationPayload struct {
	Set   map[string]string `json:"set,omitempty"`
	Unset []string          `json:"unset,omitempty"`
}

// ConfigurationChangedPayload records the effective configuration delta.
type ConfigurationChangedPayload struct {
	Set   map[string]string `json:"set,omitempty"`
	Unset []string          `json:"unset,omitempty"`
}
