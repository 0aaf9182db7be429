package extract

import (
	"context"
	"regexp"
	"strings"
)

// Question patterns tried in order against the lowercased question.
// Order is a tie-break: the first capture wins, not the best.
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`tell me about (?:the )?(?:anime )?(?:called )?['"]?(.+?)['"]?\.?$`),
	regexp.MustCompile(`what (?:is|are) (?:the )?(?:anime )?['"]?(.+?)['"]? (?:about|like)`),
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile(`(?:search for|find) (?:the )?(?:anime )?['"]?(.+?)['"]?\.?$`),
	regexp.MustCompile(`(?:anime )?(?:called|named) ['"]?(.+?)['"]?\.?$`),
	regexp.MustCompile(`(?:best|worst|top) (?:episodes?|seasons?) (?:of|from) (?:the )?(?:anime )?['"]?(.+?)['"]?\.?$`),
}

var trailingPunct = regexp.MustCompile(`[.!?]+$`)

// PatternStrategy extracts titles with deterministic regular
// expressions. It is pure: no external calls, no latency, and the same
// question always yields the same answer.
type PatternStrategy struct{}

// NewPatternStrategy creates the deterministic pattern strategy.
func NewPatternStrategy() *PatternStrategy {
	return &PatternStrategy{}
}

// Name identifies the strategy in logs.
func (s *PatternStrategy) Name() string {
	return "patterns"
}

// Extract applies each pattern to the lowercased question and returns
// the first non-empty capture group.
func (s *PatternStrategy) Extract(ctx context.Context, question string) (string, bool, error) {
	q := strings.ToLower(strings.TrimSpace(question))

	for _, pattern := range titlePatterns {
		match := pattern.FindStringSubmatch(q)
		if match == nil {
			continue
		}
		title := strings.TrimSpace(match[1])
		title = trailingPunct.ReplaceAllString(title, "")
		if title != "" {
			return title, true, nil
		}
	}

	return "", false, nil
}
