package tool

import (
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
)

// Registry manages tools and converts them to Anthropic format
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool cannot be nil")
	}

	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	schema := t.InputSchema()
	if schema.Type != "object" {
		return fmt.Errorf("tool %s: schema type must be 'object', got %q", name, schema.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}

	r.tools[name] = t
	return nil
}

// RegisterAll adds multiple tools to the registry
func (r *Registry) RegisterAll(tools []Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, exists := r.tools[name]
	return t, exists
}

// List returns all registered tool names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ToAnthropicToolUnions converts all registered tools to Anthropic tool
// union parameters, ready to attach to a message request.
func (r *Registry) ToAnthropicToolUnions() []anthropic.ToolUnionParam {
	r.mu.RLock()
	defer r.mu.RUnlock()

	unions := make([]anthropic.ToolUnionParam, 0, len(r.tools))
	for _, t := range r.tools {
		param := convertToolToParam(t)
		unions = append(unions, anthropic.ToolUnionParam{OfTool: &param})
	}
	return unions
}

func convertToolToParam(t Tool) anthropic.ToolParam {
	schema := t.InputSchema()

	properties := make(map[string]interface{})
	for propName, propDef := range schema.Properties {
		properties[propName] = convertProperty(propDef)
	}

	inputSchema := anthropic.ToolInputSchemaParam{
		Type:       constant.Object("object"),
		Properties: properties,
	}
	if len(schema.Required) > 0 {
		inputSchema.Required = schema.Required
	}

	return anthropic.ToolParam{
		Name:        t.Name(),
		Description: anthropic.String(t.Description()),
		InputSchema: inputSchema,
	}
}

func convertProperty(def Property) map[string]interface{} {
	prop := map[string]interface{}{
		"type": def.Type,
	}
	if def.Description != "" {
		prop["description"] = def.Description
	}
	if len(def.Enum) > 0 {
		prop["enum"] = def.Enum
	}
	if def.Items != nil {
		prop["items"] = convertProperty(*def.Items)
	}
	if len(def.Properties) > 0 {
		nested := make(map[string]interface{})
		for key, nestedDef := range def.Properties {
			nested[key] = convertProperty(nestedDef)
		}
		prop["properties"] = nested
	}
	return prop
}
