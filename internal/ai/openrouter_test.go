package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenRouterChatParsesToolCalls(t *testing.T) {
	var gotReq openRouterChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"webSearch","arguments":"{\"query\":\"news\"}"}}
		]}}]}`))
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "key", "test-model", "", "")

	res, err := p.Chat(context.Background(), &Request{
		System:   "be helpful",
		Messages: []Message{{Role: "user", Content: "hi"}},
		Tools: []ToolDef{{
			Name:        "webSearch",
			Description: "search",
			Schema:      json.RawMessage(`{"type":"object"}`),
		}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if len(res.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(res.ToolCalls))
	}
	tc := res.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "webSearch" {
		t.Fatalf("unexpected tool call: %+v", tc)
	}
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(tc.Args, &args); err != nil || args.Query != "news" {
		t.Fatalf("tool args mangled: %s", string(tc.Args))
	}

	// System prompt leads the outbound message sequence; tools declared.
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("system prompt not first: %+v", gotReq.Messages)
	}
	if len(gotReq.Tools) != 1 || gotReq.Tools[0].Function.Name != "webSearch" {
		t.Fatalf("tools not declared: %+v", gotReq.Tools)
	}
}

func TestOpenRouterStreamAssemblesContentAndToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"choices":[{"delta":{"content":"Hel"}}]}`,
			`{"choices":[{"delta":{"content":"lo"}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_9","function":{"name":"getCurrentDate","arguments":"{"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"}"}}]}}]}`,
		}
		for _, c := range chunks {
			_, _ = io.WriteString(w, "data: "+c+"\n\n")
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "key", "test-model", "", "")

	var deltas []string
	res, err := p.StreamChat(context.Background(), &Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	}, func(d string) { deltas = append(deltas, d) })
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	if res.Content != "Hello" {
		t.Fatalf("content not assembled: %q", res.Content)
	}
	if strings.Join(deltas, "|") != "Hel|lo" {
		t.Fatalf("deltas not relayed: %v", deltas)
	}
	if len(res.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(res.ToolCalls))
	}
	tc := res.ToolCalls[0]
	if tc.ID != "call_9" || tc.Name != "getCurrentDate" || string(tc.Args) != "{}" {
		t.Fatalf("tool call not assembled: %+v", tc)
	}
}

func TestOpenRouterRequiresAPIKey(t *testing.T) {
	p := NewOpenRouterProvider("http://localhost:1", "", "test-model", "", "")
	_, err := p.Chat(context.Background(), &Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	if err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("missing key not rejected: %v", err)
	}
}
