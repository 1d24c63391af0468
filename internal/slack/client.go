package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the subset of the Slack Web API the bridge depends on.
type Client interface {
	// PostMessage posts text to a channel, optionally inside a thread.
	// unfurl toggles link/media preview expansion.
	PostMessage(ctx context.Context, channel, threadTS, text string, unfurl bool) error

	// ChannelKind resolves a channel to its kind ("im", "channel", "group", "mpim").
	ChannelKind(ctx context.Context, channel string) (string, error)

	// SetThreadStatus sets or clears (empty status) the assistant status of a thread.
	SetThreadStatus(ctx context.Context, channel, threadTS, status string) error

	AddReaction(ctx context.Context, channel, timestamp, name string) error

	// ThreadReplies returns the messages of a thread, oldest first.
	ThreadReplies(ctx context.Context, channel, threadTS string, limit int) ([]ThreadMessage, error)
}

// ThreadMessage is one message read back from a thread.
type ThreadMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
	TS   string `json:"ts"`
}

// APIClient talks to the Slack Web API over HTTP.
type APIClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

var _ Client = (*APIClient)(nil)

func NewAPIClient(baseURL, token string) *APIClient {
	if baseURL == "" {
		baseURL = "https://slack.com/api"
	}
	return &APIClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type apiResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	Channel *struct {
		IsIM      bool `json:"is_im"`
		IsMPIM    bool `json:"is_mpim"`
		IsGroup   bool `json:"is_group"`
		IsChannel bool `json:"is_channel"`
	} `json:"channel,omitempty"`

	Messages []ThreadMessage `json:"messages,omitempty"`
}

func (c *APIClient) call(ctx context.Context, method string, args map[string]any) (*apiResp, error) {
	if strings.TrimSpace(c.Token) == "" {
		return nil, errors.New("slack: bot token is required")
	}

	b, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(c.BaseURL, "/"), method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("slack: %s status %d", method, resp.StatusCode)
	}

	var decoded apiResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if !decoded.OK {
		msg := decoded.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("slack: %s: %s", method, msg)
	}
	return &decoded, nil
}

func (c *APIClient) get(ctx context.Context, method string, query url.Values) (*apiResp, error) {
	if strings.TrimSpace(c.Token) == "" {
		return nil, errors.New("slack: bot token is required")
	}

	endpoint := fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.BaseURL, "/"), method, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("slack: %s status %d", method, resp.StatusCode)
	}

	var decoded apiResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if !decoded.OK {
		msg := decoded.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("slack: %s: %s", method, msg)
	}
	return &decoded, nil
}

func (c *APIClient) PostMessage(ctx context.Context, channel, threadTS, text string, unfurl bool) error {
	args := map[string]any{
		"channel":      channel,
		"text":         text,
		"unfurl_links": unfurl,
		"unfurl_media": unfurl,
	}
	if threadTS != "" {
		args["thread_ts"] = threadTS
	}
	_, err := c.call(ctx, "chat.postMessage", args)
	return err
}

func (c *APIClient) ChannelKind(ctx context.Context, channel string) (string, error) {
	q := url.Values{}
	q.Set("channel", channel)
	resp, err := c.get(ctx, "conversations.info", q)
	if err != nil {
		return "", err
	}
	if resp.Channel == nil {
		return "", errors.New("slack: conversations.info: missing channel")
	}
	switch {
	case resp.Channel.IsIM:
		return "im", nil
	case resp.Channel.IsMPIM:
		return "mpim", nil
	case resp.Channel.IsGroup:
		return "group", nil
	default:
		return "channel", nil
	}
}

func (c *APIClient) SetThreadStatus(ctx context.Context, channel, threadTS, status string) error {
	_, err := c.call(ctx, "assistant.threads.setStatus", map[string]any{
		"channel_id": channel,
		"thread_ts":  threadTS,
		"status":     status,
	})
	return err
}

func (c *APIClient) AddReaction(ctx context.Context, channel, timestamp, name string) error {
	_, err := c.call(ctx, "reactions.add", map[string]any{
		"channel":   channel,
		"timestamp": timestamp,
		"name":      name,
	})
	return err
}

func (c *APIClient) ThreadReplies(ctx context.Context, channel, threadTS string, limit int) ([]ThreadMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}
	q.Set("channel", channel)
	q.Set("ts", threadTS)
	q.Set("limit", fmt.Sprintf("%d", limit))
	resp, err := c.get(ctx, "conversations.replies", q)
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}
