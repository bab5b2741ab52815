package service

import (
	"context"
	"log"
	"os"

	"spectra-chat/internal/dto"
	"spectra-chat/pkg/llm"
	"spectra-chat/pkg/search"
	"spectra-chat/pkg/synthesis"
)

type ISynthesisService interface {
	Synthesize(ctx context.Context, req *dto.SynthesizeRequest) (*dto.SynthesizeResponse, error)
}

type synthesisService struct {
	pipeline *synthesis.Pipeline
	cache    synthesis.AnswerCache
	logger   *log.Logger
}

func NewSynthesisService(searcher search.Searcher, provider llm.LLMProvider, cache synthesis.AnswerCache) ISynthesisService {
	logger := initSynthesisLogger()
	return &synthesisService{
		pipeline: synthesis.NewPipeline(searcher, provider, logger),
		cache:    cache,
		logger:   logger,
	}
}

func initSynthesisLogger() *log.Logger {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("[WARN] Could not create logs directory: %v", err)
		return log.New(os.Stdout, "[SYNTHESIS] ", log.LstdFlags)
	}

	file, err := os.OpenFile("logs/synthesis.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("[WARN] Could not open synthesis log file: %v", err)
		return log.New(os.Stdout, "[SYNTHESIS] ", log.LstdFlags)
	}

	return log.New(file, "", log.LstdFlags)
}

func (s *synthesisService) Synthesize(ctx context.Context, req *dto.SynthesizeRequest) (*dto.SynthesizeResponse, error) {
	if answer, found := s.cache.Get(ctx, req.Query); found {
		s.logger.Printf("[CACHE] Hit for query: %s", req.Query)
		return toSynthesizeResponse(answer), nil
	}

	answer, err := s.pipeline.Execute(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, req.Query, answer)

	return toSynthesizeResponse(answer), nil
}

func toSynthesizeResponse(answer *synthesis.Answer) *dto.SynthesizeResponse {
	res := &dto.SynthesizeResponse{
		Query:       answer.Query,
		FinalAnswer: answer.FinalAnswer,
		Sources:     make([]dto.SourceDTO, 0, len(answer.Sources)),
	}
	for i := range answer.Sources {
		src := answer.Sources[i]
		res.Sources = append(res.Sources, dto.SourceDTO{
			Title: &src.Title,
			URL:   &src.URL,
			Score: &src.Score,
		})
	}
	return res
}
