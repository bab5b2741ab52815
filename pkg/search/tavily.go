package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.tavily.com"

// Result is one hit returned by the web search provider.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Raw     []byte  `json:"-"` // Provider payload, kept for persistence
}

// Searcher is the contract for web search backends.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	Client     *http.Client
}

var _ Searcher = &TavilyClient{}

func NewTavilyClient(apiKey string, maxResults int) *TavilyClient {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &TavilyClient{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		MaxResults: maxResults,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type tavilySearchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilySearchResponse struct {
	Query   string            `json:"query"`
	Results []json.RawMessage `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

func (c *TavilyClient) Search(ctx context.Context, query string) ([]Result, error) {
	reqPayload := tavilySearchRequest{
		APIKey:     c.APIKey,
		Query:      query,
		MaxResults: c.MaxResults,
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.BaseURL + "/search"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var searchResp tavilySearchResponse
	if err := json.Unmarshal(bodyBytes, &searchResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	results := make([]Result, 0, len(searchResp.Results))
	for _, raw := range searchResp.Results {
		var r tavilyResult
		if err := json.Unmarshal(raw, &r); err != nil {
			continue // Skip malformed entries, keep the rest
		}
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
			Raw:     append([]byte(nil), raw...),
		})
	}

	return results, nil
}
