package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result is one normalized search hit.
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Author        string  `json:"author"`
	PublishedDate string  `json:"published_date"`
	Summary       string  `json:"summary"`
	Score         float64 `json:"score"`
}

// Client calls the Exa search API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.exa.ai"
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether a search credential is present.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type exaSearchReq struct {
	Query      string `json:"query"`
	NumResults int    `json:"numResults"`
	Contents   struct {
		Summary bool `json:"summary"`
	} `json:"contents"`
}

type exaSearchResp struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Author        string  `json:"author"`
		PublishedDate string  `json:"publishedDate"`
		Summary       string  `json:"summary"`
		Score         float64 `json:"score"`
	} `json:"results"`
}

// Search runs a web search and normalizes the hits. Missing author and
// publication-date fields get placeholder values so downstream consumers
// never see empty columns.
func (c *Client) Search(ctx context.Context, query string, numResults int) ([]Result, error) {
	if !c.Configured() {
		return nil, errors.New("search: api key is required")
	}
	if numResults <= 0 {
		numResults = 10
	}

	reqBody := exaSearchReq{Query: query, NumResults: numResults}
	reqBody.Contents.Summary = true

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/search", strings.TrimRight(c.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("search: %s", msg)
	}

	var decoded exaSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		author := r.Author
		if author == "" {
			author = "Unknown"
		}
		published := r.PublishedDate
		if published == "" {
			published = "Date not available"
		}
		out = append(out, Result{
			Title:         r.Title,
			URL:           r.URL,
			Author:        author,
			PublishedDate: published,
			Summary:       r.Summary,
			Score:         r.Score,
		})
	}
	return out, nil
}
