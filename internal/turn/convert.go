package turn

import (
	"github.com/voxlink/slackbridge/internal/ai"
	"github.com/voxlink/slackbridge/internal/session"
)

// toProviderMessages flattens stored session messages into the provider's
// shape. Tool calls from prior turns that never received a result are
// dropped rather than replayed: a dangling call would make the back end
// wait for a result that will never come.
func toProviderMessages(msgs []session.Message) []ai.Message {
	resolved := make(map[string]bool)
	for _, m := range msgs {
		for _, p := range m.Parts {
			if p.Type == "tool_result" && p.ToolCallID != "" {
				resolved[p.ToolCallID] = true
			}
		}
	}

	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case session.RoleAssistant:
			am := ai.Message{Role: session.RoleAssistant, Content: m.Text()}
			for _, p := range m.Parts {
				if p.Type != "tool_call" {
					continue
				}
				if !resolved[p.ToolCallID] {
					continue
				}
				am.ToolCalls = append(am.ToolCalls, ai.ToolCall{
					ID:   p.ToolCallID,
					Name: p.ToolName,
					Args: p.ToolArgs,
				})
			}
			if am.Content == "" && len(am.ToolCalls) == 0 {
				continue
			}
			out = append(out, am)

		case session.RoleTool:
			for _, p := range m.Parts {
				if p.Type != "tool_result" {
					continue
				}
				out = append(out, ai.Message{
					Role:       session.RoleTool,
					ToolCallID: p.ToolCallID,
					Content:    p.ToolResult,
				})
			}

		default:
			out = append(out, ai.Message{Role: m.Role, Content: m.Text()})
		}
	}
	return out
}
