package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/anirag/ai"
)

// Strategy is one way of deriving a show title from a question.
// Strategies report no-match with matched=false and a nil error; an
// error means the strategy itself failed (e.g. an LLM call timed out).
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Extract returns the extracted title and whether anything matched.
	Extract(ctx context.Context, question string) (title string, matched bool, err error)
}

// Chain evaluates strategies in order until one matches. Precedence is
// explicit: earlier strategies win, so cheap deterministic strategies
// go first and the LLM goes last.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewChain creates a chain over the given strategies, evaluated in order.
func NewChain(strategies []Strategy, opts ...Option) *Chain {
	c := &Chain{
		strategies: strategies,
		logger:     slog.Default().With("component", "title-extractor"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefaultChain builds the standard chain: deterministic patterns
// first, the LLM extractor as fallback.
func NewDefaultChain(extractor ai.TitleExtractor, opts ...Option) *Chain {
	return NewChain([]Strategy{
		NewPatternStrategy(),
		NewLLMStrategy(extractor),
	}, opts...)
}

// Extract runs the chain and returns the first match.
// Returns ErrNoTitle when every strategy misses. A failing strategy is
// logged and skipped; its failure never masks a later match.
func (c *Chain) Extract(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	for _, strategy := range c.strategies {
		title, matched, err := strategy.Extract(ctx, question)
		if err != nil {
			c.logger.Warn("title strategy failed", "strategy", strategy.Name(), "err", err)
			continue
		}
		if matched {
			c.logger.Debug("title extracted", "strategy", strategy.Name(), "title", title)
			return title, nil
		}
	}

	return "", ErrNoTitle
}
