// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/anirag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Anime titles can be very long (especially isekai), so allow a
// generous completion budget for what is otherwise a one-line answer.
const titleMaxTokens = 150

// TitleExtractor implements ai.TitleExtractor using OpenAI-compatible chat APIs.
type TitleExtractor struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newTitleExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTitleExtractor(config *ai.Config) (*TitleExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for title extraction
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken("none"),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &TitleExtractor{
		client:  client,
		timeout: config.CallTimeout,
		logger:  slog.Default().With("component", "openai-title-extractor"),
	}, nil
}

// NewTitleExtractor creates a new title extractor using the provided configuration.
//
// Returns ai.TitleExtractor interface to enforce abstraction.
func NewTitleExtractor(config *ai.Config) (ai.TitleExtractor, error) {
	return newTitleExtractor(config)
}

// ExtractTitle asks the model for the show title mentioned in the
// question. Returns "" with a nil error when the model reports no
// title; that is a normal branch for the caller, not a failure.
func (e *TitleExtractor) ExtractTitle(ctx context.Context, question string) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(titleExtractionSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(titleExtractionUserPrompt + question),
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	response, err := e.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.0),
		llms.WithMaxTokens(titleMaxTokens))
	if err != nil {
		e.logger.Error("title extraction call failed", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		e.logger.Debug("no choices returned from model")
		return "", nil
	}

	title := cleanTitle(response.Choices[0].Content)

	// Models sometimes echo the whole question back when unsure; treat
	// that the same as an explicit no-title answer.
	if title == "" || strings.EqualFold(title, "NONE") || strings.EqualFold(title, strings.TrimSpace(question)) {
		e.logger.Debug("model found no title", "question", question)
		return "", nil
	}

	e.logger.Info("extracted title", "title", title, "question", question)
	return title, nil
}

// cleanTitle strips quoting and stray trailing punctuation the model
// tends to wrap around an otherwise correct answer.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`")
	s = strings.TrimRight(s, ".!?")
	return strings.TrimSpace(s)
}
