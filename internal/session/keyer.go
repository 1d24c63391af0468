package session

import (
	"strings"

	"github.com/voxlink/slackbridge/internal/common"
)

const (
	// PlatformSlack is the leading coordinate of every Slack-sourced session.
	PlatformSlack = "slack"

	// DailyNewsTask is the leading coordinate of scheduled daily-news sessions.
	DailyNewsTask = "daily-news"
)

// Key derives a stable session key from ordered coordinates. Empty
// coordinates are omitted rather than replaced with a placeholder, so a
// DM session keyed without a thread collapses to one key per channel.
func Key(coords ...string) string {
	kept := make([]string, 0, len(coords))
	for _, c := range coords {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, "/")
}

// SlackKey keys a Slack conversation by channel and optional thread.
func SlackKey(channel, threadTS string) string {
	return Key(PlatformSlack, channel, threadTS)
}

// DailyNewsKey returns a fresh key for a scheduled daily-news run. Each run
// gets its own isolated session: the ULID nonce keeps keys distinct even for
// runs triggered within the same millisecond.
func DailyNewsKey() (string, error) {
	nonce, err := common.NewULID()
	if err != nil {
		return "", err
	}
	return Key(DailyNewsTask, nonce), nil
}
