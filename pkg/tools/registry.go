package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/codeready-toolchain/parley/pkg/llm"
)

// Registry is an immutable set of named tools with compiled argument
// schemas. Construct it once at startup and pass it by reference.
type Registry struct {
	order   []string
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

// NewRegistry builds a registry from the given tools, compiling each
// tool's argument schema. Duplicate names and invalid schemas are
// construction errors.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:   make(map[string]Tool, len(tools)),
		schemas: make(map[string]*jsonschema.Schema, len(tools)),
	}
	for _, t := range tools {
		name := t.Name()
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		schema, err := jsonschema.CompileString(name+".schema.json", string(t.Schema()))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for tool %q: %w", name, err)
		}
		r.order = append(r.order, name)
		r.tools[name] = t
		r.schemas[name] = schema
	}
	return r, nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Definitions returns the tool definitions to bind to an LLM turn, in
// registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	out := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      t.Schema(),
		})
	}
	return out
}

// NormalizeArguments decodes and validates the raw argument blob the
// LLM emitted for the named tool. The model emits, in practice, three
// shapes: a real JSON object, a string containing JSON, and a bare
// string. All three are handled:
//
//  1. JSON object matching the schema → use it.
//  2. JSON string whose content parses to a matching object → unwrap.
//  3. Bare string when the schema has exactly one required string
//     field → bind that field.
//
// Anything else is a ToolError with category malformed_arguments.
func (r *Registry) NormalizeArguments(name, raw string) (map[string]any, error) {
	schema, ok := r.schemas[name]
	if !ok {
		return nil, NewToolError(name, CategoryInternal, fmt.Errorf("unknown tool %q", name))
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		// Not JSON at all — treat the whole blob as a bare string.
		return r.bindBareString(name, raw)
	}

	switch v := decoded.(type) {
	case map[string]any:
		if err := schema.Validate(decoded); err != nil {
			return nil, NewToolError(name, CategoryMalformedArguments,
				fmt.Errorf("arguments do not match schema: %w", err))
		}
		return v, nil
	case string:
		// A string containing JSON, or a bare string.
		var inner any
		if err := json.Unmarshal([]byte(v), &inner); err == nil {
			if obj, ok := inner.(map[string]any); ok {
				if err := schema.Validate(inner); err != nil {
					return nil, NewToolError(name, CategoryMalformedArguments,
						fmt.Errorf("arguments do not match schema: %w", err))
				}
				return obj, nil
			}
		}
		return r.bindBareString(name, v)
	default:
		return nil, NewToolError(name, CategoryMalformedArguments,
			fmt.Errorf("arguments must be an object, got %T", decoded))
	}
}

// bindBareString binds a bare string to the schema's single required
// string field, when there is exactly one.
func (r *Registry) bindBareString(name, value string) (map[string]any, error) {
	field, ok := singleRequiredStringField(r.tools[name].Schema())
	if !ok {
		return nil, NewToolError(name, CategoryMalformedArguments,
			fmt.Errorf("bare string arguments need a schema with exactly one required string field"))
	}
	args := map[string]any{field: value}
	if err := r.schemas[name].Validate(any(args)); err != nil {
		return nil, NewToolError(name, CategoryMalformedArguments,
			fmt.Errorf("arguments do not match schema: %w", err))
	}
	return args, nil
}

// singleRequiredStringField inspects a raw JSON schema and reports the
// name of its only required string-typed property, if the schema has
// exactly one required field of type string.
func singleRequiredStringField(schema json.RawMessage) (string, bool) {
	var s struct {
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(schema, &s); err != nil {
		return "", false
	}
	if len(s.Required) != 1 {
		return "", false
	}
	field := s.Required[0]
	prop, ok := s.Properties[field]
	if !ok || prop.Type != "string" {
		return "", false
	}
	return field, true
}
