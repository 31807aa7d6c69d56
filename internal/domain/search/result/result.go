// Package result holds the per-request search result value.
package result

import (
	"time"

	"github.com/marketdz/searchd/internal/domain/listing"
	"github.com/marketdz/searchd/internal/domain/search/strategy"
)

// Page is pagination metadata for one result page.
type Page struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int
	HasNext     bool
	HasPrev     bool
}

// NewPage computes pagination metadata from an exact total count.
func NewPage(page, pageSize, totalItems int) Page {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}
	return Page{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// NewPageInferred computes pagination metadata without a total count: a full
// page implies there may be a next one.
func NewPageInferred(page, pageSize, returned int) Page {
	return Page{
		CurrentPage: page,
		HasNext:     returned == pageSize,
		HasPrev:     page > 1,
	}
}

// Metadata describes how a result was produced.
type Metadata struct {
	Strategy      strategy.Strategy
	ExecutionTime time.Duration
	// SkippedStages lists rerank stages that degraded gracefully, if any.
	SkippedStages []string
}

// Result is an ordered page of scored listings. Produced fresh per query,
// never persisted.
type Result struct {
	Listings   []listing.Scored
	Pagination Page
	Metadata   Metadata
}
