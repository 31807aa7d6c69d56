package db

import "github.com/marketdz/searchd/internal/domain/search/filter"

// MatchMode is the text-matching mode for a TextQuery.
type MatchMode int

const (
	// MatchNone applies filters only, no text predicate.
	MatchNone MatchMode = iota
	// MatchSubstring matches via infix wildcard (DIALECT 2 w'*term*').
	MatchSubstring
	// MatchFuzzy matches via Levenshtein fuzzy terms (%term%).
	MatchFuzzy
	// MatchText matches via tokenized full-text search with BM25 scores.
	MatchText
)

// SortSpec orders results by an indexed SORTABLE field.
type SortSpec struct {
	Field string
	Desc  bool
}

// TextQuery is the input for a filtered text search.
type TextQuery struct {
	IndexName string
	// Text is the normalized query text; with MatchNone it is ignored.
	Text string
	Mode MatchMode
	// TextFields are the TEXT fields the predicate runs against.
	// Defaults to title and description.
	TextFields []string
	Filters    filter.Expression
	// SortBy orders by a sortable field; nil with MatchText keeps BM25 order.
	SortBy       *SortSpec
	WithScores   bool
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	// Total is the exact number of matches, independent of Offset/Limit.
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
