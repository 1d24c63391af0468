package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSearchSendsCredentialAndQuery(t *testing.T) {
	var gotKey string
	var gotReq exaSearchReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		_, _ = w.Write([]byte(`{"results":[
			{"title":"First","url":"https://a.example","author":"Ada","publishedDate":"2026-08-01","summary":"s1","score":0.9},
			{"title":"Second","url":"https://b.example","summary":"s2","score":0.4}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "exa-key")
	results, err := c.Search(context.Background(), "go concurrency", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if gotKey != "exa-key" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if gotReq.Query != "go concurrency" {
		t.Fatalf("query = %q", gotReq.Query)
	}
	if gotReq.NumResults != 10 {
		t.Fatalf("numResults default = %d", gotReq.NumResults)
	}
	if !gotReq.Contents.Summary {
		t.Fatal("summary contents not requested")
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Author != "Ada" || results[0].PublishedDate != "2026-08-01" {
		t.Fatalf("first result not preserved: %+v", results[0])
	}
	if results[1].Author != "Unknown" {
		t.Fatalf("missing author not normalized: %q", results[1].Author)
	}
	if results[1].PublishedDate != "Date not available" {
		t.Fatalf("missing date not normalized: %q", results[1].PublishedDate)
	}
}

func TestSearchSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid api key"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key")
	_, err := c.Search(context.Background(), "anything", 5)
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("api error not surfaced: %v", err)
	}
}

func TestSearchWithoutCredential(t *testing.T) {
	c := NewClient("http://localhost:1", "")
	if c.Configured() {
		t.Fatal("empty key reported as configured")
	}
	if _, err := c.Search(context.Background(), "q", 1); err == nil {
		t.Fatal("expected error without credential")
	}
}
