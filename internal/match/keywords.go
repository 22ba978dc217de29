// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package match

import "strings"

// stopwords are query tokens that carry no matching signal. The list is
// intentionally small; the coverage gate handles the rest.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "when": {}, "how": {},
	"why": {}, "what": {}, "not": {}, "but": {}, "are": {}, "can": {},
	"does": {}, "have": {}, "from": {}, "into": {}, "this": {}, "that": {},
	"its": {}, "was": {}, "were": {}, "been": {}, "then": {}, "than": {},
	"after": {}, "before": {}, "while": {}, "during": {}, "very": {},
	"some": {}, "all": {}, "any": {}, "out": {}, "only": {}, "just": {},
	"still": {}, "getting": {}, "get": {}, "gets": {}, "got": {},
	"problem": {}, "issue": {}, "issues": {}, "error": {}, "errors": {},
	"help": {}, "fix": {}, "make": {}, "makes": {}, "using": {}, "use": {},
}

// minKeywordLen drops short tokens that would match almost anything.
const minKeywordLen = 3

// Keywords tokenizes free text into lowercase query keywords: letters and
// digits only, stopwords removed, deduplicated, order preserved.
func Keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	seen := make(map[string]struct{}, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minKeywordLen {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		keywords = append(keywords, f)
	}
	return keywords
}

// sharedStem reports whether two words of at least minLen characters share a
// common prefix of minLen characters, a cheap stand-in for stemming
// ("flicker" ~ "flickering").
func sharedStem(a, b string, minLen int) bool {
	if a == b || len(a) < minLen || len(b) < minLen {
		return false
	}
	return a[:minLen] == b[:minLen]
}

// splitSentences splits text on common sentence terminators.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// lastSentence returns the trailing sentence of text, or "".
func lastSentence(text string) string {
	s := splitSentences(text)
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

// firstSentence returns the leading sentence of text, or "".
func firstSentence(text string) string {
	s := splitSentences(text)
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
