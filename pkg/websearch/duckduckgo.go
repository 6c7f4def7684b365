// Package websearch provides optional web enrichment for legal answers
// via the DuckDuckGo instant answer API. Failures degrade to an empty
// result list; web search never blocks the core pipeline.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Result is one web reference.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Client queries the DuckDuckGo instant answer endpoint.
type Client struct {
	endpoint   string
	maxResults int
	httpClient *http.Client
	logger     *slog.Logger
}

// Config configures the web search client.
type Config struct {
	Endpoint       string
	RequestTimeout time.Duration
	MaxResults     int
}

// NewClient creates a web search client.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.duckduckgo.com/"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		maxResults: cfg.MaxResults,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     slog.Default().With("component", "web-search"),
	}
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// Search returns up to MaxResults web references for query. An empty
// slice with a nil error means the web had nothing useful; transport
// failures return the error for the caller to log and ignore.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned status %d", resp.StatusCode)
	}

	var parsed ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding web search response: %w", err)
	}

	var results []Result
	if parsed.AbstractText != "" {
		results = append(results, Result{
			Title:   parsed.Heading,
			URL:     parsed.AbstractURL,
			Snippet: parsed.AbstractText,
		})
	}
	results = append(results, flattenTopics(parsed.RelatedTopics)...)

	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}
	c.logger.Debug("web search completed", "query", query, "results", len(results))
	return results, nil
}

// SearchLegal scopes a query to Saudi Arabian legal context.
func (c *Client) SearchLegal(ctx context.Context, query, jurisdiction string) ([]Result, error) {
	if jurisdiction == "" {
		jurisdiction = "Saudi Arabia"
	}
	return c.Search(ctx, fmt.Sprintf("%s %s law regulations", query, jurisdiction))
}

func flattenTopics(topics []ddgTopic) []Result {
	var results []Result
	for _, topic := range topics {
		if topic.Text != "" && topic.FirstURL != "" {
			results = append(results, Result{
				Title:   topic.Text,
				URL:     topic.FirstURL,
				Snippet: topic.Text,
			})
		}
		if len(topic.Topics) > 0 {
			results = append(results, flattenTopics(topic.Topics)...)
		}
	}
	return results
}
