// Package strategy selects the text-matching approach for a query.
package strategy

import (
	"strings"
	"unicode/utf8"
)

// Strategy is the text-matching strategy.
type Strategy string

// Matching strategy constants.
const (
	// ILike performs a plain substring match.
	ILike Strategy = "ilike"
	// Trigram performs a fuzzy similarity match.
	Trigram Strategy = "trigram"
	// FullText performs tokenized full-text search with relevance scores.
	FullText Strategy = "fulltext"
)

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == ILike || s == Trigram || s == FullText
}

// Select picks the fastest adequate strategy for the given query text.
// Short strings carry too little signal for trigram or full-text matching;
// multi-word queries benefit from tokenized search. The choice is a
// heuristic: a suboptimal pick degrades recall or latency, never
// correctness.
func Select(query string) Strategy {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < 3 {
		return ILike
	}
	if len(strings.Fields(trimmed)) > 2 {
		return FullText
	}
	return Trigram
}
