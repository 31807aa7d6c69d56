// Package listing adapts the listings store to the search use cases.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marketdz/searchd/internal/db"
	"github.com/marketdz/searchd/internal/domain"
	domlisting "github.com/marketdz/searchd/internal/domain/listing"
	"github.com/marketdz/searchd/internal/domain/search/filter"
	"github.com/marketdz/searchd/internal/domain/search/query"
	"github.com/marketdz/searchd/internal/domain/search/strategy"
)

// Default store layout.
const (
	DefaultIndexName = "listings:idx"
	DefaultKeyPrefix = "listing:"
)

// store is the consumer interface for listing reads (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements the listings store contract for the search service.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
}

// New creates a listings repository.
func New(s store) *Repo {
	return &Repo{store: s, indexName: DefaultIndexName, keyPrefix: DefaultKeyPrefix}
}

// WithLayout overrides index name and key prefix.
func (r *Repo) WithLayout(indexName, keyPrefix string) *Repo {
	if indexName != "" {
		r.indexName = indexName
	}
	if keyPrefix != "" {
		r.keyPrefix = keyPrefix
	}
	return r
}

// EnsureIndex creates the listings FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("probe listings index: %w", err)
	}
	if exists {
		return nil
	}

	def := db.NewIndex(r.indexName).
		Prefix(r.keyPrefix).
		TextWithOpts(fieldTitle, true, true).
		TextWithOpts(fieldDescription, false, true).
		Tag(fieldCategory).
		Tag(fieldWilaya).
		Tag(fieldCity).
		Tag(fieldStatus).
		NumericSortable(fieldPrice).
		NumericSortable(fieldCreatedAt).
		NumericSortable(fieldViews).
		NumericSortable(fieldOwnerRating).
		MustBuild()

	if err := r.store.CreateIndex(ctx, def); err != nil {
		// Lost the create race to another instance.
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create listings index: %w", err)
	}
	return nil
}

// Search executes a filtered, strategy-driven text search and returns one
// page of scored listings plus the exact total match count.
func (r *Repo) Search(
	ctx context.Context, q query.Query, strat strategy.Strategy,
) ([]domlisting.Scored, int, error) {
	filters, err := buildFilters(q)
	if err != nil {
		return nil, 0, err
	}

	mode := matchMode(q, strat)
	sortBy, withScores := sortSpec(q, mode)

	tq := &db.TextQuery{
		IndexName:  r.indexName,
		Text:       q.NormalizedText(),
		Mode:       mode,
		Filters:    filters,
		SortBy:     sortBy,
		WithScores: withScores,
		Offset:     q.Offset(),
		Limit:      q.PageSize(),
	}

	sr, err := r.store.SearchText(ctx, tq)
	if err != nil {
		return nil, 0, storeErr("search listings", err)
	}

	scored := make([]domlisting.Scored, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		l := listingFromFields(strings.TrimPrefix(entry.Key, r.keyPrefix), entry.Fields)
		scored = append(scored, domlisting.Scored{Listing: l, SearchRank: entry.Score})
	}
	normalizeRanks(scored, withScores)

	return scored, sr.Total, nil
}

// Titles returns titles whose text contains the partial query, bounded by limit rows.
func (r *Repo) Titles(ctx context.Context, partial string, limit int) ([]string, error) {
	active, err := filter.NewMatch(fieldStatus, string(domlisting.StatusActive))
	if err != nil {
		return nil, err
	}
	filters, err := filter.NewExpression(active)
	if err != nil {
		return nil, err
	}

	tq := &db.TextQuery{
		IndexName:    r.indexName,
		Text:         partial,
		Mode:         db.MatchSubstring,
		TextFields:   []string{fieldTitle},
		Filters:      filters,
		Offset:       0,
		Limit:        limit,
		ReturnFields: []string{fieldTitle},
	}

	sr, err := r.store.SearchText(ctx, tq)
	if err != nil {
		return nil, storeErr("search titles", err)
	}

	titles := make([]string, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if t := entry.Fields[fieldTitle]; t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

// storeErr folds driver failures into the store-unavailable sentinel so the
// transport layer answers 503 instead of a generic 500.
func storeErr(op string, err error) error {
	var dbErr *db.Error
	if errors.As(err, &dbErr) {
		return fmt.Errorf("%s: %v: %w", op, dbErr, domain.ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// buildFilters converts the domain query filters into a store expression.
// Status is always restricted to active listings.
func buildFilters(q query.Query) (filter.Expression, error) {
	conds := make([]filter.Condition, 0, 5)

	active, err := filter.NewMatch(fieldStatus, string(domlisting.StatusActive))
	if err != nil {
		return filter.Expression{}, err
	}
	conds = append(conds, active)

	if c := q.Category(); c != "" {
		cond, err := filter.NewMatch(fieldCategory, string(c))
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, cond)
	}
	if w := q.Wilaya(); w != "" {
		cond, err := filter.NewMatch(fieldWilaya, w)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, cond)
	}
	if c := q.City(); c != "" {
		cond, err := filter.NewMatch(fieldCity, c)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, cond)
	}
	if q.MinPrice() != nil || q.MaxPrice() != nil {
		rng, err := filter.NewRangeBounds(q.MinPrice(), q.MaxPrice())
		if err != nil {
			return filter.Expression{}, err
		}
		cond, err := filter.NewRange(fieldPrice, rng)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, cond)
	}

	return filter.NewExpression(conds...)
}

func matchMode(q query.Query, strat strategy.Strategy) db.MatchMode {
	if q.NormalizedText() == "" {
		return db.MatchNone
	}
	switch strat {
	case strategy.ILike:
		return db.MatchSubstring
	case strategy.Trigram:
		return db.MatchFuzzy
	default:
		return db.MatchText
	}
}

// sortSpec maps the sort key to a store ordering. Relevance keeps BM25 order
// when a text predicate is present and falls back to recency otherwise;
// smart and distance fetch in relevance order for the rerank pipeline.
func sortSpec(q query.Query, mode db.MatchMode) (*db.SortSpec, bool) {
	recency := &db.SortSpec{Field: fieldCreatedAt, Desc: true}

	switch q.Sort() {
	case query.SortPriceAsc:
		return &db.SortSpec{Field: fieldPrice}, false
	case query.SortPriceDesc:
		return &db.SortSpec{Field: fieldPrice, Desc: true}, false
	case query.SortPopularity:
		return &db.SortSpec{Field: fieldViews, Desc: true}, false
	case query.SortRating:
		return &db.SortSpec{Field: fieldOwnerRating, Desc: true}, false
	case query.SortRelevance, query.SortSmart, query.SortDistance:
		if mode == db.MatchText {
			return nil, true
		}
		return recency, false
	default:
		return recency, false
	}
}

// normalizeRanks scales BM25 scores into [0,1] relative to the best hit.
// Strategies without scores leave every rank at the neutral 0.5.
func normalizeRanks(scored []domlisting.Scored, withScores bool) {
	if !withScores {
		for i := range scored {
			scored[i].SearchRank = 0.5
		}
		return
	}

	var maxScore float64
	for i := range scored {
		if scored[i].SearchRank > maxScore {
			maxScore = scored[i].SearchRank
		}
	}
	if maxScore <= 0 {
		for i := range scored {
			scored[i].SearchRank = 0.5
		}
		return
	}
	for i := range scored {
		scored[i].SearchRank /= maxScore
	}
}
