package catalog

import (
	"regexp"
	"strings"
)

var (
	pipeSplit = regexp.MustCompile(`\s*\|\s*`)
	bbcodeTag = regexp.MustCompile(`(?i)\[/?(?:i|b|u|spoiler|quote|code)\]`)
	spaceRuns = regexp.MustCompile(`[ \t]+`)
)

// SplitPipe splits a pipe-delimited catalog field into trimmed parts,
// dropping empties and case-insensitive duplicates while preserving
// first-occurrence order and casing.
func SplitPipe(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, part := range pipeSplit.Split(s, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := strings.ToLower(part)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, part)
	}
	return out
}

// CleanDescription strips the BBCode markup AniDB embeds in synopses
// and collapses runs of spaces and tabs.
func CleanDescription(desc string) string {
	if desc == "" {
		return ""
	}
	text := bbcodeTag.ReplaceAllString(desc, "")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
