package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req tavilySearchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req.APIKey)
		assert.Equal(t, "golang", req.Query)
		assert.Equal(t, 3, req.MaxResults)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"query": "golang",
			"results": [
				{"title": "Go", "url": "https://go.dev", "content": "The Go language", "score": 0.98},
				{"title": "Tour", "url": "https://go.dev/tour", "content": "A Tour of Go", "score": 0.75}
			]
		}`))
	}))
	defer server.Close()

	client := NewTavilyClient("test-key", 3)
	client.BaseURL = server.URL

	results, err := client.Search(context.Background(), "golang")
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "Go", results[0].Title)
	assert.Equal(t, "https://go.dev", results[0].URL)
	assert.Equal(t, 0.98, results[0].Score)
	// Raw keeps the provider payload verbatim.
	assert.Contains(t, string(results[0].Raw), `"title": "Go"`)
}

func TestTavilySearchSkipsMalformedEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"query": "q",
			"results": [
				{"title": "Good", "url": "https://ok.example.com", "score": 0.5},
				"not an object"
			]
		}`))
	}))
	defer server.Close()

	client := NewTavilyClient("key", 3)
	client.BaseURL = server.URL

	results, err := client.Search(context.Background(), "q")
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "Good", results[0].Title)
}

func TestTavilySearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "invalid api key"}`))
	}))
	defer server.Close()

	client := NewTavilyClient("bad-key", 3)
	client.BaseURL = server.URL

	_, err := client.Search(context.Background(), "q")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
