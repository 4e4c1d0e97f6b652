package agent

import "strings"

// Category describes the kind of agent. It is fixed at deployment.
type Category string

const (
	CategoryUnspecified Category = ""
	CategorySystem      Category = "system"
	CategoryIntegration Category = "integration"
	CategoryAI          Category = "ai"
	CategoryUser        Category = "user"
	CategoryWorkflow    Category = "workflow"
	CategoryKnowledge   Category = "knowledge"
)

// normalizeCategoryLabel canonicalizes category labels.
func normalizeCategoryLabel(value string) (Category, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	switch strings.ToUpper(trimmed) {
	case "SYSTEM", "AGENT_CATEGORY_SYSTEM":
		return CategorySystem, true
	case "INTEGRATION", "AGENT_CATEGORY_INTEGRATION":
		return CategoryIntegration, true
	case "AI", "AGENT_CATEGORY_AI":
		return CategoryAI, true
	case "USER", "AGENT_CATEGORY_USER":
		return CategoryUser, true
	case "WORKFLOW", "AGENT_CATEGORY_WORKFLOW":
		return CategoryWorkflow, true
	case "KNOWLEDGE", "AGENT_CATEGORY_KNOWLEDGE":
		return CategoryKnowledge, true
	default:
		return "", false
	}
}
