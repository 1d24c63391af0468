package slack

import (
	"context"
	"log"

	"github.com/voxlink/slackbridge/internal/session"
)

// KindCache caches channel-kind lookups so DM disambiguation does not hit
// the Slack API on every message event. Implementations may fail; the
// normalizer falls through to the API on any cache error.
type KindCache interface {
	GetChannelKind(ctx context.Context, channel string) (string, error)
	SetChannelKind(ctx context.Context, channel, kind string) error
}

// Normalizer converts platform events into session messages.
type Normalizer struct {
	client Client
	cache  KindCache // optional
}

func NewNormalizer(client Client, cache KindCache) *Normalizer {
	return &Normalizer{client: client, cache: cache}
}

// dropped reports whether an event must never produce a message:
// bot-authored events would feed the bridge its own output back, and
// subtyped events are edits or system notifications.
func dropped(ev *Event) bool {
	return ev.BotID != "" || ev.Subtype != ""
}

// ThreadTS returns the thread discriminator of an event, falling back to the
// event's own timestamp. Replies to the resulting message target this thread.
func ThreadTS(ev *Event) string {
	if ev.ThreadTS != "" {
		return ev.ThreadTS
	}
	return ev.TS
}

// FromMention normalizes an app_mention event. Returns nil for events that
// must be dropped.
func (n *Normalizer) FromMention(ev *Event) *session.Message {
	if dropped(ev) {
		return nil
	}
	return session.NewTextMessage(session.RoleUser, ev.Text, &session.Metadata{
		Channel:  ev.Channel,
		ThreadTS: ThreadTS(ev),
	})
}

// FromMessage normalizes a generic message event. Only direct messages
// produce a message; the channel kind is resolved through the cache, then
// the Slack API. A failed lookup drops the event.
func (n *Normalizer) FromMessage(ctx context.Context, ev *Event) *session.Message {
	if dropped(ev) {
		return nil
	}

	kind, err := n.channelKind(ctx, ev.Channel)
	if err != nil {
		log.Printf("WARN: channel kind lookup failed channel=%s err=%v", ev.Channel, err)
		return nil
	}
	if kind != "im" {
		return nil
	}

	return session.NewTextMessage(session.RoleUser, ev.Text, &session.Metadata{
		Channel:  ev.Channel,
		ThreadTS: ThreadTS(ev),
	})
}

func (n *Normalizer) channelKind(ctx context.Context, channel string) (string, error) {
	if n.cache != nil {
		if kind, err := n.cache.GetChannelKind(ctx, channel); err == nil && kind != "" {
			return kind, nil
		}
	}

	kind, err := n.client.ChannelKind(ctx, channel)
	if err != nil {
		return "", err
	}

	if n.cache != nil {
		if err := n.cache.SetChannelKind(ctx, channel, kind); err != nil {
			log.Printf("WARN: channel kind cache write failed channel=%s err=%v", channel, err)
		}
	}
	return kind, nil
}
