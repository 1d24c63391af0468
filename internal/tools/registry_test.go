package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func textTool(name, reply string) Definition {
	return Definition{
		Name:        name,
		Description: name,
		Schema:      json.RawMessage(`{"type":"object","properties":{}}`),
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			return reply, nil
		},
	}
}

func TestNewRegistryRejectsNameCollision(t *testing.T) {
	_, err := NewRegistry(textTool("echo", "a"), textTool("echo", "b"))
	if err == nil {
		t.Fatalf("duplicate tool name accepted")
	}
	if !strings.Contains(err.Error(), "echo") {
		t.Fatalf("collision error does not name the tool: %v", err)
	}
}

func TestDefsAreNameSorted(t *testing.T) {
	r, err := NewRegistry(textTool("zeta", "z"), textTool("alpha", "a"), textTool("mid", "m"))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	defs := r.Defs()
	if len(defs) != 3 {
		t.Fatalf("expected 3 defs, got %d", len(defs))
	}
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Name > defs[i].Name {
			t.Fatalf("defs not sorted: %q before %q", defs[i-1].Name, defs[i].Name)
		}
	}
}

func TestExecuteUnknownToolIsResultNotPanic(t *testing.T) {
	r, err := NewRegistry(textTool("echo", "ok"))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	out := r.Execute(context.Background(), "missing", json.RawMessage(`{}`))
	if !strings.Contains(out, "unknown tool") {
		t.Fatalf("unexpected result for unknown tool: %q", out)
	}
}

func TestExecuteConvertsErrorsToResults(t *testing.T) {
	r, err := NewRegistry(Definition{
		Name:   "strict",
		Schema: json.RawMessage(`{"type":"object"}`),
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				N int `json:"n"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			return "ok", nil
		},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	out := r.Execute(context.Background(), "strict", json.RawMessage(`{"n":"not-a-number"}`))
	if !strings.Contains(out, "Error executing strict") {
		t.Fatalf("execution error not converted to a result: %q", out)
	}
}
