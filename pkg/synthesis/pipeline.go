package synthesis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"spectra-chat/pkg/llm"
	"spectra-chat/pkg/search"
)

// Source is one cited web source attached to a synthesized answer.
type Source struct {
	Title string  `json:"title,omitempty"`
	URL   string  `json:"url,omitempty"`
	Score float64 `json:"score,omitempty"`
	Raw   []byte  `json:"-"`
}

// Answer is the final output of the pipeline.
type Answer struct {
	Query       string   `json:"query"`
	FinalAnswer string   `json:"final_answer"`
	Sources     []Source `json:"sources"`
}

// --- Stage contracts ---
// Each stage has a typed input and output so retries or timeouts can be
// added per stage later without restructuring the flow.

type SearchInput struct {
	Query string
}

type SearchOutput struct {
	Context string
	Sources []Source
}

type GenerateInput struct {
	Query   string
	Context string
}

type GenerateOutput struct {
	Answer string
}

// SearchStage resolves web context for the query.
type SearchStage struct {
	searcher search.Searcher
	logger   *log.Logger
}

func NewSearchStage(searcher search.Searcher, logger *log.Logger) *SearchStage {
	return &SearchStage{searcher: searcher, logger: logger}
}

func (s *SearchStage) Run(ctx context.Context, in SearchInput) (SearchOutput, error) {
	results, err := s.searcher.Search(ctx, in.Query)
	if err != nil {
		return SearchOutput{}, fmt.Errorf("search stage: %w", err)
	}

	var sb strings.Builder
	sources := make([]Source, 0, len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i+1, r.Title, r.Content)
		sources = append(sources, Source{
			Title: r.Title,
			URL:   r.URL,
			Score: r.Score,
			Raw:   r.Raw,
		})
	}

	return SearchOutput{
		Context: sb.String(),
		Sources: sources,
	}, nil
}

// GenerateStage produces the final answer from the query and search context.
type GenerateStage struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewGenerateStage(provider llm.LLMProvider, logger *log.Logger) *GenerateStage {
	return &GenerateStage{provider: provider, logger: logger}
}

const answerPromptV1 = `Answer the question below. Use the numbered web search
results when they are relevant and keep the answer concise.

Search results:
%s
Question: %s`

func (g *GenerateStage) Run(ctx context.Context, in GenerateInput) (GenerateOutput, error) {
	searchContext := in.Context
	if searchContext == "" {
		searchContext = "(no results)\n"
	}

	prompt := fmt.Sprintf(answerPromptV1, searchContext, in.Query)
	reply, err := g.provider.Generate(ctx, prompt)
	if err != nil {
		return GenerateOutput{}, fmt.Errorf("generate stage: %w", err)
	}

	return GenerateOutput{Answer: reply}, nil
}

// Pipeline runs the two stages in order: search, then generate.
type Pipeline struct {
	searchStage   *SearchStage
	generateStage *GenerateStage
	logger        *log.Logger
}

func NewPipeline(searcher search.Searcher, provider llm.LLMProvider, logger *log.Logger) *Pipeline {
	return &Pipeline{
		searchStage:   NewSearchStage(searcher, logger),
		generateStage: NewGenerateStage(provider, logger),
		logger:        logger,
	}
}

// Execute synthesizes an answer for the query. A search failure degrades to
// generation without sources; a generation failure fails the pipeline.
func (p *Pipeline) Execute(ctx context.Context, query string) (*Answer, error) {
	p.logger.Printf("[PIPELINE] Starting synthesis for query: %s", truncate(query, 50))

	searchOut, err := p.searchStage.Run(ctx, SearchInput{Query: query})
	if err != nil {
		p.logger.Printf("[PIPELINE] Search failed, continuing without sources: %v", err)
		searchOut = SearchOutput{}
	} else {
		p.logger.Printf("[PIPELINE] Search returned %d sources", len(searchOut.Sources))
	}

	genOut, err := p.generateStage.Run(ctx, GenerateInput{
		Query:   query,
		Context: searchOut.Context,
	})
	if err != nil {
		p.logger.Printf("[PIPELINE] Generation failed: %v", err)
		return nil, err
	}

	return &Answer{
		Query:       query,
		FinalAnswer: genOut.Answer,
		Sources:     searchOut.Sources,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
