// Package query holds the validated, immutable search query value.
package query

import (
	"fmt"

	"github.com/marketdz/searchd/internal/domain/arabic"
	"github.com/marketdz/searchd/internal/domain/listing"
	"github.com/marketdz/searchd/internal/domain/search/strategy"
)

// Search parameter limits.
const (
	MaxTextLength   = 256
	DefaultPage     = 1
	DefaultPageSize = 20
	// MaxPageSize is a hard cap applied regardless of the requested size.
	MaxPageSize = 100
)

// Sort is the result ordering key.
type Sort string

// Sort key constants.
const (
	// SortDate orders by creation time, newest first. This is the default.
	SortDate      Sort = "date"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	// SortPopularity orders by the listing view counter.
	SortPopularity Sort = "popularity"
	// SortRating orders by the owner's aggregate star rating.
	SortRating Sort = "rating"
	// SortRelevance orders by text-match rank when query text is present,
	// falling back to recency otherwise.
	SortRelevance Sort = "relevance"
	// SortDistance orders by geo distance; valid only on the rerank path.
	SortDistance Sort = "distance"
	// SortSmart orders by the weighted composite score; rerank path only.
	SortSmart Sort = "smart"
)

// IsValid checks if the sort key is one of the supported values.
func (s Sort) IsValid() bool {
	switch s {
	case SortDate, SortPriceAsc, SortPriceDesc, SortPopularity,
		SortRating, SortRelevance, SortDistance, SortSmart:
		return true
	}
	return false
}

// RerankOnly reports whether the sort key requires the rerank pipeline.
func (s Sort) RerankOnly() bool {
	return s == SortDistance || s == SortSmart
}

// Query is a validated search query. Construct with New; immutable once built.
type Query struct {
	text     string
	normText string
	category listing.Category
	wilaya   string
	city     string
	minPrice *float64
	maxPrice *float64
	sortBy   Sort
	page     int
	pageSize int
	strategy strategy.Strategy // empty = select automatically
}

// New validates and normalizes search parameters.
// Defaults: sort=date, page=1, pageSize=20. pageSize is capped at 100.
func New(
	text string,
	category listing.Category,
	wilaya, city string,
	minPrice, maxPrice *float64,
	sortBy Sort,
	page, pageSize int,
	strat strategy.Strategy,
) (Query, error) {
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("query text too long (max %d bytes)", MaxTextLength)
	}
	if category != "" && !category.IsValid() {
		return Query{}, fmt.Errorf("invalid category: %q", category)
	}
	if minPrice != nil && *minPrice < 0 {
		return Query{}, fmt.Errorf("min price must not be negative")
	}
	if maxPrice != nil && *maxPrice < 0 {
		return Query{}, fmt.Errorf("max price must not be negative")
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return Query{}, fmt.Errorf("min price %v exceeds max price %v", *minPrice, *maxPrice)
	}
	if sortBy == "" {
		sortBy = SortDate
	}
	if !sortBy.IsValid() {
		return Query{}, fmt.Errorf("invalid sort key: %q", sortBy)
	}
	if strat != "" && !strat.IsValid() {
		return Query{}, fmt.Errorf("invalid strategy: %q", strat)
	}
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return Query{
		text:     text,
		normText: arabic.Normalize(text),
		category: category,
		wilaya:   wilaya,
		city:     city,
		minPrice: minPrice,
		maxPrice: maxPrice,
		sortBy:   sortBy,
		page:     page,
		pageSize: pageSize,
		strategy: strat,
	}, nil
}

// Text returns the raw query text.
func (q *Query) Text() string { return q.text }

// NormalizedText returns the canonicalized query text used for matching.
func (q *Query) NormalizedText() string { return q.normText }

// Category returns the category filter ("" = any).
func (q *Query) Category() listing.Category { return q.category }

// Wilaya returns the wilaya filter ("" = any).
func (q *Query) Wilaya() string { return q.wilaya }

// City returns the city filter ("" = any).
func (q *Query) City() string { return q.city }

// MinPrice returns the inclusive lower price bound.
func (q *Query) MinPrice() *float64 { return q.minPrice }

// MaxPrice returns the inclusive upper price bound.
func (q *Query) MaxPrice() *float64 { return q.maxPrice }

// Sort returns the requested ordering.
func (q *Query) Sort() Sort { return q.sortBy }

// Page returns the 1-based page number.
func (q *Query) Page() int { return q.page }

// PageSize returns the page size after defaulting and capping.
func (q *Query) PageSize() int { return q.pageSize }

// Strategy returns the explicit strategy override ("" = automatic).
func (q *Query) Strategy() strategy.Strategy { return q.strategy }

// Offset returns the store offset for the current page.
func (q *Query) Offset() int { return (q.page - 1) * q.pageSize }

// WithPage returns a copy targeting a different page window.
func (q Query) WithPage(page, pageSize int) Query {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	q.page = page
	q.pageSize = pageSize
	return q
}

// WithSort returns a copy with a different sort key.
func (q Query) WithSort(s Sort) Query {
	q.sortBy = s
	return q
}
