// Package suggest provides autocomplete candidates from listing titles and
// static trending terms per category.
package suggest

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/marketdz/searchd/internal/domain/arabic"
	"github.com/marketdz/searchd/internal/domain/listing"
)

// Autocomplete bounds.
const (
	// MinPartialRunes is the shortest partial query worth a store round-trip.
	MinPartialRunes = 2
	// MinTokenRunes filters out stop-word-sized tokens from suggestions.
	MinTokenRunes = 3
	// DefaultLimit caps suggestions when the caller does not specify one.
	DefaultLimit = 10
	// DefaultTitleFetchLimit is how many matching titles are pulled per call.
	// More titles than suggestions, since many titles share the same tokens.
	DefaultTitleFetchLimit = 200
)

// trendingTerms is a hand-curated static table, not a live trending
// algorithm. The empty key serves categories without their own entry.
var trendingTerms = map[listing.Category][]string{
	listing.ForSale: {"ايفون", "samsung", "pc portable", "voiture", "golf 7", "appartement"},
	listing.ForRent: {"appartement f3", "studio", "villa", "local commercial", "شقة للايجار"},
	listing.Job:     {"developpeur", "chauffeur", "comptable", "vendeuse", "عمل عن بعد"},
	listing.Service: {"plombier", "electricien", "demenagement", "reparation tv", "نقل البضائع"},
	listing.Urgent:  {"ايفون", "voiture", "appartement"},
	"":              {"ايفون", "voiture", "appartement", "emploi", "samsung"},
}

// Service derives autocomplete terms from listing titles.
type Service struct {
	titles     TitleSource
	logger     *zap.Logger
	fetchLimit int
}

// New creates a suggestion service.
func New(titles TitleSource, logger *zap.Logger) *Service {
	return &Service{titles: titles, logger: logger, fetchLimit: DefaultTitleFetchLimit}
}

// WithTitleFetchLimit overrides how many titles are pulled per call.
func (s *Service) WithTitleFetchLimit(limit int) *Service {
	if limit > 0 {
		s.fetchLimit = limit
	}
	return s
}

// Autocomplete returns up to limit suggestion tokens for the partial query.
// Partials under MinPartialRunes return nothing without touching the store.
// Tokens are collected in first-occurrence order, not frequency-ranked.
func (s *Service) Autocomplete(ctx context.Context, partial string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	norm := arabic.Normalize(partial)
	if utf8.RuneCountInString(norm) < MinPartialRunes {
		return []string{}, nil
	}

	titles, err := s.titles.Titles(ctx, norm, s.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete %q: %w", norm, err)
	}

	seen := make(map[string]struct{})
	suggestions := make([]string, 0, limit)
	for _, title := range titles {
		for _, tok := range arabic.Tokens(title) {
			if utf8.RuneCountInString(tok) < MinTokenRunes {
				continue
			}
			if !strings.Contains(tok, norm) {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			suggestions = append(suggestions, tok)
			if len(suggestions) == limit {
				return suggestions, nil
			}
		}
	}
	return suggestions, nil
}

// Trending returns the static trending terms for a category. Unknown or empty
// categories fall back to the marketplace-wide table.
func (s *Service) Trending(category listing.Category) []string {
	terms, ok := trendingTerms[category]
	if !ok {
		terms = trendingTerms[""]
	}
	out := make([]string, len(terms))
	copy(out, terms)
	return out
}
