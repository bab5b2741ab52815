package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"spectra-chat/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestChatSendsExpectedRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		assert.Len(t, req.Messages, 2)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "hello there"}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", "gpt-4o")
	provider.BaseURL = server.URL

	reply, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "You are helpful."},
		{Role: "user", Content: "hi"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "hello there", reply)
}

func TestChatMapsModelRoleToAssistant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "assistant", req.Messages[0].Role)

		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", "gpt-4o")
	provider.BaseURL = server.URL

	_, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "model", Content: "previous reply"},
	})
	assert.NoError(t, err)
}

func TestChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", "gpt-4o")
	provider.BaseURL = server.URL

	_, err := provider.Generate(context.Background(), "hi")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestGenerateWrapsPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "just a prompt", req.Messages[0].Content)

		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "reply"}}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", "gpt-4o")
	provider.BaseURL = server.URL

	reply, err := provider.Generate(context.Background(), "just a prompt")
	assert.NoError(t, err)
	assert.Equal(t, "reply", reply)
}
