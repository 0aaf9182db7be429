package extract

import (
	"context"
	"strings"

	"github.com/poiesic/anirag/ai"
)

// LLMStrategy extracts titles by asking a language model. It is the
// expensive last resort behind PatternStrategy: an external call with
// real latency and a nonzero failure rate.
type LLMStrategy struct {
	extractor ai.TitleExtractor
}

// NewLLMStrategy wraps an ai.TitleExtractor as a chain strategy.
func NewLLMStrategy(extractor ai.TitleExtractor) *LLMStrategy {
	return &LLMStrategy{extractor: extractor}
}

// Name identifies the strategy in logs.
func (s *LLMStrategy) Name() string {
	return "llm"
}

// Extract delegates to the model. An empty answer maps to no-match;
// call errors propagate so the chain can log them and move on.
func (s *LLMStrategy) Extract(ctx context.Context, question string) (string, bool, error) {
	title, err := s.extractor.ExtractTitle(ctx, question)
	if err != nil {
		return "", false, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return "", false, nil
	}
	return title, true, nil
}
