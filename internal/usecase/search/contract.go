package search

import (
	"context"

	"github.com/marketdz/searchd/internal/domain/listing"
	"github.com/marketdz/searchd/internal/domain/search/query"
	"github.com/marketdz/searchd/internal/domain/search/strategy"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Search(
		ctx context.Context, q query.Query, strat strategy.Strategy,
	) ([]listing.Scored, int, error)
}
