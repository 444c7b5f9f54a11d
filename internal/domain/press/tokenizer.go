// Package press implements word-level "Dissociated Press" text generation.
// Source text is split into word tokens; new text is grown chunk by chunk by
// finding where the latest chunk occurred in the source and splicing in what
// followed one of those occurrences, picked at random.
package press

import "strings"

// Join concatenates source texts in order with no separator.
// Callers that read several files feed the result to Tokenize.
func Join(sources []string) string {
	return strings.Join(sources, "")
}

// Tokenize normalizes text into word tokens.
//
// Rules:
//   - Every "\n" becomes a single space and every "\r" is removed.
//   - The result is split on single spaces; empty tokens are dropped.
//   - Tabs and other whitespace are NOT separators; no case folding, no punctuation stripping.
func Tokenize(text string) []string {
	clean := strings.ReplaceAll(text, "\n", " ")
	clean = strings.ReplaceAll(clean, "\r", "")

	parts := strings.Split(clean, " ")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}
