package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voxlink/slackbridge/internal/slack"
)

// SlackTools builds the platform-native tool set over the Slack client:
// sending and reading thread messages, reacting, and clearing the transient
// thread status once a turn finishes.
func SlackTools(client slack.Client) []Definition {
	return []Definition{
		sendSlackMessage(client),
		addSlackReaction(client),
		getSlackThreadReplies(client),
		clearSlackThreadStatus(client),
	}
}

func sendSlackMessage(client slack.Client) Definition {
	type input struct {
		Channel  string `json:"channel"`
		ThreadTS string `json:"thread_ts"`
		Text     string `json:"text"`
	}
	return Definition{
		Name:        "sendSlackMessage",
		Description: "Send a message to a Slack channel, optionally as a thread reply",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"channel": {"type": "string", "description": "The channel ID to send to"},
				"thread_ts": {"type": "string", "description": "Thread timestamp to reply in, if any"},
				"text": {"type": "string", "description": "The message text"}
			},
			"required": ["channel", "text"]
		}`),
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in input
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}
			if err := client.PostMessage(ctx, in.Channel, in.ThreadTS, in.Text, true); err != nil {
				return fmt.Sprintf("Failed to send message: %v", err), nil
			}
			return "Message sent successfully", nil
		},
	}
}

func addSlackReaction(client slack.Client) Definition {
	type input struct {
		Channel   string `json:"channel"`
		Timestamp string `json:"timestamp"`
		Name      string `json:"name"`
	}
	return Definition{
		Name:        "addSlackReaction",
		Description: "Add an emoji reaction to a Slack message",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"channel": {"type": "string", "description": "The channel ID of the message"},
				"timestamp": {"type": "string", "description": "Timestamp of the message to react to"},
				"name": {"type": "string", "description": "Emoji name without colons, e.g. thumbsup"}
			},
			"required": ["channel", "timestamp", "name"]
		}`),
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in input
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}
			if err := client.AddReaction(ctx, in.Channel, in.Timestamp, in.Name); err != nil {
				return fmt.Sprintf("Failed to add reaction: %v", err), nil
			}
			return "Reaction added successfully", nil
		},
	}
}

func getSlackThreadReplies(client slack.Client) Definition {
	type input struct {
		Channel  string `json:"channel"`
		ThreadTS string `json:"thread_ts"`
		Limit    int    `json:"limit"`
	}
	return Definition{
		Name:        "getSlackThreadReplies",
		Description: "Read the messages of a Slack thread, oldest first",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"channel": {"type": "string", "description": "The channel ID of the thread"},
				"thread_ts": {"type": "string", "description": "Timestamp of the thread parent message"},
				"limit": {"type": "integer", "description": "Maximum number of replies to return"}
			},
			"required": ["channel", "thread_ts"]
		}`),
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in input
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}
			msgs, err := client.ThreadReplies(ctx, in.Channel, in.ThreadTS, in.Limit)
			if err != nil {
				return fmt.Sprintf("Failed to read thread: %v", err), nil
			}
			out, err := json.Marshal(msgs)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}

func clearSlackThreadStatus(client slack.Client) Definition {
	type input struct {
		Channel  string `json:"channel"`
		ThreadTS string `json:"thread_ts"`
	}
	return Definition{
		Name:        "clearSlackThreadStatus",
		Description: "Clear the assistant status of a Slack thread",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"channel": {"type": "string", "description": "The channel ID of the thread"},
				"thread_ts": {"type": "string", "description": "Timestamp of the thread parent message"}
			},
			"required": ["channel", "thread_ts"]
		}`),
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in input
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}
			if err := client.SetThreadStatus(ctx, in.Channel, in.ThreadTS, ""); err != nil {
				return fmt.Sprintf("Failed to clear thread status: %v", err), nil
			}
			return "Thread status cleared", nil
		},
	}
}
