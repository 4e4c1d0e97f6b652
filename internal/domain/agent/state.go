package agent

// Metadata holds descriptive agent fields fixed at deployment.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
	Owner       string `json:"owner,omitempty"`
}

// State captures the replayed agent aggregate state used by the decider.
//
// It is derived entirely from events and serialized as-is into snapshots,
// so every field carries a JSON tag and collections stay sorted for stable
// snapshot bytes.
type State struct {
	// Deployed indicates whether agent.deploy has been successfully applied.
	Deployed bool `json:"deployed"`
	// ID is the agent identifier assigned at deployment.
	ID string `json:"id,omitempty"`
	// Category is the agent kind, fixed at deployment.
	Category Category `json:"category,omitempty"`
	// Status is the current lifecycle state that gates what commands are legal.
	Status Status `json:"status,omitempty"`
	// Metadata holds the immutable descriptive fields.
	Metadata Metadata `json:"metadata"`
	// Capabilities is the sorted set of capability identifiers.
	Capabilities []string `json:"capabilities,omitempty"`
	// Permissions is the sorted set of granted permission identifiers.
	Permissions []string `json:"permissions,omitempty"`
	// Tools is the sorted set of enabled tool identifiers.
	Tools []string `json:"tools,omitempty"`
	// Configuration is the current configuration key-value map.
	Configuration map[string]string `json:"configuration,omitempty"`
	// Version equals the number of events ever applied to this agent.
	Version uint64 `json:"version"`
}

// HasCapability reports whether the capability is present.
func (s State) HasCapability(id string) bool {
	return setContains(s.Capabilities, id)
}

// HasPermission reports whether the permission has been granted.
func (s State) HasPermission(id string) bool {
	return setContains(s.Permissions, id)
}

// HasTool reports whether the tool is enabled.
func (s State) HasTool(id string) bool {
	return setContains(s.Tools, id)
}
