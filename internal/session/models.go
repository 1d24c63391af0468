package session

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Session is a durable, append-only conversation addressed by its key.
type Session struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionKey string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"session_key"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

// Part is one piece of message content: text, a tool call, or a tool result.
type Part struct {
	Type string `json:"type"` // "text" | "tool_call" | "tool_result"

	Text string `json:"text,omitempty"`

	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolArgs   json.RawMessage `json:"tool_args,omitempty"`
	ToolResult string          `json:"tool_result,omitempty"`
}

// Metadata carries the platform routing info a reply needs. A message's
// metadata must be sufficient on its own to resolve the reply destination.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID uint64    `gorm:"index;not null" json:"-"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"`
	Parts     []Part    `gorm:"serializer:json;type:text" json:"parts"`
	Metadata  *Metadata `gorm:"serializer:json;type:text" json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// NewTextMessage builds a single-text-part message.
func NewTextMessage(role, text string, meta *Metadata) *Message {
	return &Message{
		Role:     role,
		Parts:    []Part{{Type: "text", Text: text}},
		Metadata: meta,
	}
}

// Text concatenates the message's text parts.
func (m *Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type != "text" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// Clone deep-copies the message so callers can extend the copy without
// touching shared state.
func (m *Message) Clone() *Message {
	out := *m
	out.Parts = append([]Part(nil), m.Parts...)
	if m.Metadata != nil {
		meta := *m.Metadata
		out.Metadata = &meta
	}
	return &out
}
