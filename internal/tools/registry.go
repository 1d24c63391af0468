package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/voxlink/slackbridge/internal/ai"
)

// Definition is a named capability the generation back end may invoke.
// Execute returns the tool outcome as a string; domain failures come back as
// fail-state strings (nil error) so the generation loop can narrate them.
// A non-nil error is reserved for malformed input.
type Definition struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Execute     func(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry holds the merged tool set of a generation turn.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry merges tool definitions. A name collision is a configuration
// error: two sources claiming the same tool name must fail at startup, not
// at request time.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if _, exists := r.defs[d.Name]; exists {
			return nil, fmt.Errorf("tools: duplicate tool name %q", d.Name)
		}
		r.defs[d.Name] = d
	}
	return r, nil
}

func (r *Registry) Get(name string) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Defs returns the provider-facing tool declarations, name-sorted for
// deterministic request payloads.
func (r *Registry) Defs() []ai.ToolDef {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ai.ToolDef, 0, len(names))
	for _, name := range names {
		d := r.defs[name]
		out = append(out, ai.ToolDef{
			Name:        d.Name,
			Description: d.Description,
			Schema:      d.Schema,
		})
	}
	return out
}

// Execute runs a tool by name. Every outcome, success or failure, comes back
// as a result string for the generation loop; nothing is thrown into the turn.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) string {
	d, ok := r.defs[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", name)
	}
	result, err := d.Execute(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}
	return result
}
