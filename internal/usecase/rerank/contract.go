package rerank

import (
	"context"

	"github.com/marketdz/searchd/internal/domain/geo"
	"github.com/marketdz/searchd/internal/domain/profile"
	"github.com/marketdz/searchd/internal/domain/search/query"
	"github.com/marketdz/searchd/internal/domain/search/result"
)

// Searcher runs the base query that seeds the pipeline.
type Searcher interface {
	Search(ctx context.Context, q query.Query) (result.Result, error)
}

// GeoLookup resolves which candidate listings lie within a radius.
type GeoLookup interface {
	WithinRadius(
		ctx context.Context, center geo.Point, radiusKm float64, ids []string,
	) (map[string]float64, error)
}

// ProfileStore supplies user browsing profiles for the affinity stage.
type ProfileStore interface {
	Profile(ctx context.Context, userID string) (profile.Profile, error)
}
