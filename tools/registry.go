package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Registry maps unique tool names to definitions. It is built once and read-only afterwards.
type Registry struct {
	defs   []ToolDefinition
	byName map[string]int
}

// NewRegistry returns a registry holding defs in registration order.
// Empty and duplicate names are rejected.
func NewRegistry(defs ...ToolDefinition) (*Registry, error) {
	r := &Registry{
		defs:   make([]ToolDefinition, 0, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("registry: tool with empty name")
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate tool name %q", d.Name)
		}
		r.byName[d.Name] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	i, ok := r.byName[name]
	if !ok {
		return ToolDefinition{}, false
	}
	return r.defs[i], true
}

// Definitions returns a copy of the registered definitions.
func (r *Registry) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d.Name)
	}
	return out
}

func (r *Registry) Len() int { return len(r.defs) }

// Invocation records one tool call: what was asked for and what came back.
type Invocation struct {
	CallID   string
	ToolName string
	Input    json.RawMessage
	Output   string
	Err      error
}

func (i Invocation) Failed() bool { return i.Err != nil }

// Content is the text reported back to the model for this invocation.
func (i Invocation) Content() string {
	if i.Err != nil {
		return i.Err.Error()
	}
	return i.Output
}

// Dispatch looks up name, validates input and executes the tool. Every failure mode
// (unknown tool, invalid input, execution error) is carried in the returned Invocation.
func (r *Registry) Dispatch(ctx context.Context, name string, input json.RawMessage) Invocation {
	inv := Invocation{ToolName: name, Input: input}
	def, ok := r.Lookup(name)
	if !ok {
		inv.Err = fmt.Errorf("%w: %q", ErrUnknownTool, name)
		return inv
	}
	inv.Output, inv.Err = def.Call(ctx, input)
	return inv
}
