package slack

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
)

const (
	EventAppMention = "app_mention"
	EventMessage    = "message"
)

// Event is the platform-native payload delivered inside an event callback.
type Event struct {
	Type        string `json:"type"`
	User        string `json:"user,omitempty"`
	BotID       string `json:"bot_id,omitempty"`
	Subtype     string `json:"subtype,omitempty"`
	Channel     string `json:"channel"`
	ChannelType string `json:"channel_type,omitempty"`
	Text        string `json:"text"`
	TS          string `json:"ts"`
	ThreadTS    string `json:"thread_ts,omitempty"`
}

type envelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge,omitempty"`
	Event     Event  `json:"event"`
}

type EventHandler func(ctx context.Context, ev *Event)

// Dispatcher is the platform client's inbound request handler: it answers
// URL verification and fans event callbacks out to registered handlers.
// Signature verification happens upstream of this handler.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]EventHandler)}
}

// On registers a handler for an event type ("app_mention", "message").
func (d *Dispatcher) On(eventType string, h EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	switch env.Type {
	case "url_verification":
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(env.Challenge))

	case "event_callback":
		// Ack immediately; Slack retries on slow responses. Handlers run
		// detached from the request context.
		w.WriteHeader(http.StatusOK)

		ev := env.Event
		d.mu.RLock()
		hs := append([]EventHandler(nil), d.handlers[ev.Type]...)
		d.mu.RUnlock()
		if len(hs) == 0 {
			return
		}
		go func() {
			for _, h := range hs {
				h(context.Background(), &ev)
			}
		}()

	default:
		log.Printf("slack dispatcher: unknown envelope type=%q", env.Type)
		w.WriteHeader(http.StatusOK)
	}
}
