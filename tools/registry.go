package tools

import (
	"fmt"

	"nutricoach/session"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a new tool registry backed by the given session controller.
func NewRegistry(ctrl *session.Controller) (*Registry, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("session controller is required")
	}

	tools := map[string]Tool{
		"meal_log":  NewMealLog(ctrl),
		"stats_get": NewStatsGet(ctrl),
		"coach_get": NewCoachGet(ctrl),
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry as a slice
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
