package mock

import (
	"context"
	"strings"
)

// MockTitleExtractor is a test double for ai.TitleExtractor.
// It allows custom behavior injection via function fields.
type MockTitleExtractor struct {
	// ExtractTitleFunc is called by ExtractTitle if set.
	// If nil, uses default behavior driven by the Titles map.
	ExtractTitleFunc func(ctx context.Context, question string) (string, error)

	// Titles maps lowercased questions to the title to return.
	// Questions not present return "" (no title found).
	Titles map[string]string

	callCount int
}

// NewMockTitleExtractor creates a mock title extractor with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockTitleExtractor() *MockTitleExtractor {
	return &MockTitleExtractor{
		Titles: make(map[string]string),
	}
}

// ExtractTitle returns the configured title for the question, or "" when
// the question is unknown, mirroring the production no-title contract.
func (m *MockTitleExtractor) ExtractTitle(ctx context.Context, question string) (string, error) {
	m.callCount++

	if m.ExtractTitleFunc != nil {
		return m.ExtractTitleFunc(ctx, question)
	}

	if title, ok := m.Titles[strings.ToLower(strings.TrimSpace(question))]; ok {
		return title, nil
	}
	return "", nil
}

// CallCount returns the number of times ExtractTitle was called.
func (m *MockTitleExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockTitleExtractor) Reset() {
	m.callCount = 0
	m.ExtractTitleFunc = nil
	m.Titles = make(map[string]string)
}
