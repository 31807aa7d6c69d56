package rerank

import (
	"fmt"

	"github.com/marketdz/searchd/internal/domain/geo"
	"github.com/marketdz/searchd/internal/domain/search/query"
)

// Request is an advanced search request: the base query plus optional
// enrichment parameters.
type Request struct {
	Query query.Query

	// UserID enables the affinity stage when set.
	UserID string

	// Center and RadiusKm enable the geo filter when Center is set.
	Center   *geo.Point
	RadiusKm float64

	// Optional hard post-filters on trust-stage scores, each in [0,1].
	MinTrust     *float64
	MinSentiment *float64
	MinQuality   *float64
}

// HasGeo reports whether the geo filter was requested.
func (r Request) HasGeo() bool { return r.Center != nil }

// Validate rejects malformed stage parameters before the pipeline runs.
func (r Request) Validate() error {
	if r.Center != nil {
		if !r.Center.Valid() {
			return fmt.Errorf("invalid geo center: lat=%v lng=%v", r.Center.Lat, r.Center.Lng)
		}
		if r.RadiusKm <= 0 {
			return fmt.Errorf("geo filter requires a positive radius, got %v", r.RadiusKm)
		}
	} else if r.RadiusKm != 0 {
		return fmt.Errorf("radius given without a center point")
	}

	if r.Query.Sort() == query.SortDistance && r.Center == nil {
		return fmt.Errorf("distance sort requires a geo center")
	}

	for name, v := range map[string]*float64{
		"min_trust":     r.MinTrust,
		"min_sentiment": r.MinSentiment,
		"min_quality":   r.MinQuality,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be in [0,1], got %v", name, *v)
		}
	}

	return nil
}
