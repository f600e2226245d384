// Package search provides the external web search client used by the
// research stage of the generation pipeline.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is a single ranked web search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ErrNoQuery is returned when the search query is empty
var ErrNoQuery = errors.New("search query cannot be empty")

// Client calls a JSON web search API. Failures are not retried here;
// the job orchestrator's retry policy owns all retries.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

type Config struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	Timeout    time.Duration
}

// NewClient creates a search client for the configured API endpoint.
func NewClient(cfg Config) *Client {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxResults: cfg.MaxResults,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search runs a web search for the given query and returns ranked
// results. An empty result set is returned as-is; the caller decides
// whether that is fatal.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if query == "" {
		return nil, ErrNoQuery
	}

	body, err := json.Marshal(searchRequest{Query: query, MaxResults: c.maxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(payload))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return parsed.Results, nil
}
