package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/voxlink/slackbridge/internal/search"
	"github.com/voxlink/slackbridge/internal/slack"
)

// PostToSlackChannel posts a message to a channel with link/media previews
// suppressed. Transport failures come back as fail-state strings so the
// generation step can explain them instead of aborting the turn.
func PostToSlackChannel(client slack.Client) Definition {
	type input struct {
		Channel string `json:"channel"`
		Text    string `json:"text"`
	}
	return Definition{
		Name:        "postToSlackChannel",
		Description: "Post a message to a Slack channel",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"channel": {"type": "string", "description": "The channel ID to post to"},
				"text": {"type": "string", "description": "The message text to post"}
			},
			"required": ["channel", "text"]
		}`),
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in input
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}
			if in.Channel == "" || in.Text == "" {
				return "Failed to post message: channel and text are required", nil
			}
			if err := client.PostMessage(ctx, in.Channel, "", in.Text, false); err != nil {
				return fmt.Sprintf("Failed to post message: %v", err), nil
			}
			return "Message posted successfully", nil
		},
	}
}

// GetCurrentDate reports the current date/time as a human-readable long
// form, RFC 3339, and Unix epoch seconds, so the model can both reason in
// natural language and do date arithmetic.
func GetCurrentDate() Definition {
	return Definition{
		Name:        "getCurrentDate",
		Description: "Get the current date and time",
		Schema:      json.RawMessage(`{"type": "object", "properties": {}}`),
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			now := time.Now().UTC()
			out, err := json.Marshal(map[string]any{
				"human":   now.Format("Monday, January 2, 2006 at 3:04 PM MST"),
				"rfc3339": now.Format(time.RFC3339),
				"epoch":   now.Unix(),
			})
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}

// WebSearch searches the web through the configured provider. A missing
// credential is a fail-state naming the configuration key, not an error:
// the turn proceeds and the model explains the limitation.
func WebSearch(client *search.Client) Definition {
	type input struct {
		Query      string `json:"query"`
		NumResults int    `json:"numResults"`
	}
	return Definition{
		Name:        "webSearch",
		Description: "Search the web for up-to-date information",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "The search query"},
				"numResults": {"type": "integer", "description": "Number of results to return (default 10)"}
			},
			"required": ["query"]
		}`),
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in input
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("invalid input: %w", err)
			}
			if !client.Configured() {
				return "Web search is not available: EXA_API_KEY is not configured", nil
			}
			if in.NumResults <= 0 {
				in.NumResults = 10
			}
			results, err := client.Search(ctx, in.Query, in.NumResults)
			if err != nil {
				return fmt.Sprintf("Web search failed: %v", err), nil
			}
			out, err := json.Marshal(results)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}
