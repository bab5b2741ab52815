package synthesis

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"spectra-chat/pkg/llm"
	"spectra-chat/pkg/search"

	"github.com/stretchr/testify/assert"
)

type fakeSearcher struct {
	results []search.Result
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]search.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeLLM struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestPipelineAttachesSources(t *testing.T) {
	searcher := &fakeSearcher{
		results: []search.Result{
			{Title: "Doc A", URL: "https://a.example.com", Content: "about A", Score: 0.9},
			{Title: "Doc B", URL: "https://b.example.com", Content: "about B", Score: 0.5},
		},
	}
	provider := &fakeLLM{reply: "the answer"}

	p := NewPipeline(searcher, provider, testLogger())
	answer, err := p.Execute(context.Background(), "what is A?")
	assert.NoError(t, err)

	assert.Equal(t, "what is A?", answer.Query)
	assert.Equal(t, "the answer", answer.FinalAnswer)
	assert.Len(t, answer.Sources, 2)
	assert.Equal(t, "Doc A", answer.Sources[0].Title)

	// Search results reach the prompt as numbered context.
	assert.True(t, strings.Contains(provider.lastPrompt, "[1] Doc A"))
	assert.True(t, strings.Contains(provider.lastPrompt, "[2] Doc B"))
	assert.True(t, strings.Contains(provider.lastPrompt, "what is A?"))
}

func TestPipelineSearchFailureDegrades(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("search api down")}
	provider := &fakeLLM{reply: "best effort answer"}

	p := NewPipeline(searcher, provider, testLogger())
	answer, err := p.Execute(context.Background(), "query")
	assert.NoError(t, err)

	// Generation still runs, just without sources.
	assert.Equal(t, "best effort answer", answer.FinalAnswer)
	assert.Empty(t, answer.Sources)
	assert.True(t, strings.Contains(provider.lastPrompt, "(no results)"))
}

func TestPipelineGenerateFailureFails(t *testing.T) {
	searcher := &fakeSearcher{
		results: []search.Result{{Title: "Doc", Content: "text"}},
	}
	provider := &fakeLLM{err: errors.New("llm down")}

	p := NewPipeline(searcher, provider, testLogger())
	answer, err := p.Execute(context.Background(), "query")
	assert.Error(t, err)
	assert.Nil(t, answer)
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_, found := cache.Get(ctx, "query")
	assert.False(t, found)

	answer := &Answer{Query: "query", FinalAnswer: "cached"}
	cache.Set(ctx, "query", answer)

	got, found := cache.Get(ctx, "query")
	assert.True(t, found)
	assert.Equal(t, "cached", got.FinalAnswer)

	// Keys are normalized, so casing and padding hit the same entry.
	got, found = cache.Get(ctx, "  QUERY ")
	assert.True(t, found)
	assert.Equal(t, "cached", got.FinalAnswer)
}
