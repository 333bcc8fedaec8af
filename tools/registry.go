package tools

import (
	"context"
	"fmt"
	"sort"

	"nutrisyn/nutrients"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a registry with crop_lookup and, when lookup is not
// nil, nutrient_lookup.
func NewRegistry(provider TableProvider, lookup nutrients.Lookup) *Registry {
	registry := Registry{}
	registry.register(NewCropLookup(provider))
	if lookup != nil {
		registry.register(NewNutrientLookup(lookup))
	}
	return &registry
}

func (r Registry) register(t Tool) { r[t.Name()] = t }

// GetTools returns all tools in the registry, sorted by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
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

// Run looks up the named tool and runs it.
func (r Registry) Run(ctx context.Context, call Call) (map[string]any, error) {
	tool, err := r.GetTool(call.Name)
	if err != nil {
		return nil, err
	}
	if call.Input == nil {
		call.Input = map[string]any{}
	}
	return tool.Run(ctx, call.Input)
}
