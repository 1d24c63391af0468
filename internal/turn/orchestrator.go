package turn

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/voxlink/slackbridge/internal/ai"
	"github.com/voxlink/slackbridge/internal/session"
	"github.com/voxlink/slackbridge/internal/slack"
	"github.com/voxlink/slackbridge/internal/tools"
)

const typingStatus = "is typing..."

const systemPrompt = `You are a helpful Slack bot assistant.

## Your Capabilities

You have access to Slack tools for reading messages, sending messages, reacting to messages, and posting to channels, plus web search and the current date.

## Special Feature: Daily News Summaries

This agent is configured to automatically post daily news summaries. Here's how it works:

1. **Webhook Trigger**: The agent has a /hooks/daily-news webhook endpoint that gets triggered daily
2. **Your Job**: When you receive news summary requests, you should:
   - Research the latest news using available tools
   - Create an engaging, well-formatted summary
   - Use emojis and Slack formatting to make it readable
   - Use the postToSlackChannel tool to post the summary to the specified channel

## How to Interact

Users can @mention you in channels or send you direct messages. Always be helpful, concise, and use Slack's rich formatting when appropriate.`

// Result is the terminal outcome of a successful turn.
type Result struct {
	Content   string
	MessageID uint64
}

// Orchestrator runs one generation turn over a session: status signaling,
// instruction injection, the tool-call loop, and relaying the output back
// to the platform.
type Orchestrator struct {
	repo     *session.Repo
	client   slack.Client
	registry *tools.Registry
	provider ai.Provider
	model    string

	// OnDelta, when set, receives streamed content deltas from providers
	// that support streaming.
	OnDelta func(string)
}

func NewOrchestrator(repo *session.Repo, client slack.Client, registry *tools.Registry, provider ai.Provider, model string) *Orchestrator {
	return &Orchestrator{
		repo:     repo,
		client:   client,
		registry: registry,
		provider: provider,
		model:    model,
	}
}

// InjectStatusInstruction returns a copy of msgs where the trigger message's
// part list is extended with an internal instruction to clear the thread
// status after the turn. The input slice and its messages are never mutated;
// the original sequence may be read concurrently elsewhere.
func InjectStatusInstruction(msgs []session.Message, trigger *session.Message, channel, threadTS string) []session.Message {
	out := append([]session.Message(nil), msgs...)

	idx := -1
	if trigger != nil {
		for i := range out {
			if out[i].ID == trigger.ID {
				idx = i
				break
			}
		}
	}
	if idx == -1 {
		if len(out) == 0 {
			return out
		}
		idx = len(out) - 1
	}

	cloned := out[idx].Clone()
	cloned.Parts = append(cloned.Parts, session.Part{
		Type: "text",
		Text: fmt.Sprintf("*INTERNAL INSTRUCTION*: Clear the status of this thread after you finish: channel=%s thread_ts=%s", channel, threadTS),
	})
	out[idx] = *cloned
	return out
}

// Run executes a turn over the session's accumulated messages. trigger is
// the message that caused the turn; nil for scheduled turns. Store errors
// are fatal to the turn; tool failures are not.
func (o *Orchestrator) Run(ctx context.Context, sess *session.Session, trigger *session.Message) (*Result, error) {
	// Correlates every log line of this turn across server and worker.
	turnID := uuid.NewString()
	log.Printf("turn started turn_id=%s session=%s", turnID, sess.SessionKey)

	msgs, err := o.repo.ListMessages(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("load session messages: %w", err)
	}

	var channel, threadTS string
	if trigger != nil && trigger.Metadata != nil {
		channel = trigger.Metadata.Channel
		threadTS = trigger.Metadata.ThreadTS
	}

	if channel != "" && threadTS != "" {
		if err := o.client.SetThreadStatus(ctx, channel, threadTS, typingStatus); err != nil {
			log.Printf("WARN: set thread status failed turn_id=%s channel=%s thread_ts=%s err=%v", turnID, channel, threadTS, err)
		}
		msgs = InjectStatusInstruction(msgs, trigger, channel, threadTS)
	}

	req := &ai.Request{
		Model:    o.model,
		System:   systemPrompt,
		Messages: toProviderMessages(msgs),
		Tools:    o.registry.Defs(),
	}

	var final string
	for {
		res, err := o.chat(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("generation failed: %w", err)
		}

		if len(res.ToolCalls) == 0 {
			final = res.Content
			break
		}

		// Tool round: execute every call and feed the outcomes back. The
		// provider decides when to stop calling tools; no bound here.
		assistant := ai.Message{Role: session.RoleAssistant, Content: res.Content, ToolCalls: res.ToolCalls}
		req.Messages = append(req.Messages, assistant)

		assistantParts := make([]session.Part, 0, len(res.ToolCalls)+1)
		if res.Content != "" {
			assistantParts = append(assistantParts, session.Part{Type: "text", Text: res.Content})
		}
		resultParts := make([]session.Part, 0, len(res.ToolCalls))

		for _, call := range res.ToolCalls {
			result := o.registry.Execute(ctx, call.Name, call.Args)
			req.Messages = append(req.Messages, ai.Message{
				Role:       session.RoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
			assistantParts = append(assistantParts, session.Part{
				Type:       "tool_call",
				ToolCallID: call.ID,
				ToolName:   call.Name,
				ToolArgs:   call.Args,
			})
			resultParts = append(resultParts, session.Part{
				Type:       "tool_result",
				ToolCallID: call.ID,
				ToolName:   call.Name,
				ToolResult: result,
			})
		}

		round := []*session.Message{
			{Role: session.RoleAssistant, Parts: assistantParts},
			{Role: session.RoleTool, Parts: resultParts},
		}
		if err := o.repo.AppendMessages(ctx, sess.ID, round); err != nil {
			return nil, fmt.Errorf("persist tool round: %w", err)
		}
	}

	assistantMsg := session.NewTextMessage(session.RoleAssistant, final, nil)
	if err := o.repo.AppendMessages(ctx, sess.ID, []*session.Message{assistantMsg}); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	// Relay to the platform when the trigger carried a destination.
	if channel != "" && final != "" {
		if err := o.client.PostMessage(ctx, channel, threadTS, final, true); err != nil {
			log.Printf("WARN: relay to slack failed turn_id=%s channel=%s thread_ts=%s err=%v", turnID, channel, threadTS, err)
		}
	}

	log.Printf("turn finished turn_id=%s session=%s message_id=%d", turnID, sess.SessionKey, assistantMsg.ID)
	return &Result{Content: final, MessageID: assistantMsg.ID}, nil
}

func (o *Orchestrator) chat(ctx context.Context, req *ai.Request) (*ai.Result, error) {
	if sp, ok := o.provider.(ai.StreamProvider); ok {
		return sp.StreamChat(ctx, req, o.OnDelta)
	}
	return o.provider.Chat(ctx, req)
}
