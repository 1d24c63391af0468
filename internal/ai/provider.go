package ai

import (
	"context"
	"encoding/json"
)

// Message is one entry of a provider conversation.
type Message struct {
	Role    string
	Content string

	// ToolCalls is set on assistant messages that requested tool execution.
	ToolCalls []ToolCall

	// ToolCallID is set on tool-role messages carrying a tool result.
	ToolCallID string
}

// ToolCall is a provider-selected tool invocation.
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

// ToolDef describes a callable tool to the provider. Schema is a JSON Schema
// object for the tool input.
type ToolDef struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// Request is one generation call: system prompt, conversation so far, and the
// tools the provider may select.
type Request struct {
	Model    string
	System   string
	Messages []Message
	Tools    []ToolDef
}

// Result is the provider's terminating output for one call. A non-empty
// ToolCalls means the caller must execute the tools and call again with their
// results appended.
type Result struct {
	Content   string
	ToolCalls []ToolCall
}

type Provider interface {
	Chat(ctx context.Context, req *Request) (*Result, error)
}

// StreamProvider is an optional interface. Providers may stream content
// deltas through the callback while assembling the final result.
type StreamProvider interface {
	StreamChat(ctx context.Context, req *Request, onDelta func(string)) (*Result, error)
}
