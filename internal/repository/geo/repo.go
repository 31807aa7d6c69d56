// Package geo resolves listing coordinates from the shared store and answers
// radius queries for the rerank pipeline.
package geo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/marketdz/searchd/internal/db"
	"github.com/marketdz/searchd/internal/domain"
	domgeo "github.com/marketdz/searchd/internal/domain/geo"
)

const (
	fieldLatitude  = "lat"
	fieldLongitude = "lng"
)

type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Lookup answers within-radius queries against stored listing coordinates.
type Lookup struct {
	store     store
	keyPrefix string
}

// New creates a geo lookup reading listing hashes under keyPrefix.
func New(s store, keyPrefix string) *Lookup {
	return &Lookup{store: s, keyPrefix: keyPrefix}
}

// WithinRadius returns, for each listing id whose stored coordinates fall
// within radiusKm of center, the distance in kilometers. Listings without
// coordinates are omitted.
func (l *Lookup) WithinRadius(
	ctx context.Context, center domgeo.Point, radiusKm float64, ids []string,
) (map[string]float64, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("invalid center point: %+v", center)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %v", radiusKm)
	}
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = l.keyPrefix + id
	}

	hashes, err := l.store.HGetAllMulti(ctx, keys)
	if err != nil {
		var dbErr *db.Error
		if errors.As(err, &dbErr) {
			return nil, fmt.Errorf("load listing coordinates: %v: %w", dbErr, domain.ErrStoreUnavailable)
		}
		return nil, fmt.Errorf("load listing coordinates: %w", err)
	}

	within := make(map[string]float64)
	for i, fields := range hashes {
		pt, ok := pointFromFields(fields)
		if !ok {
			continue
		}
		if d := domgeo.HaversineKm(center, pt); d <= radiusKm {
			within[ids[i]] = d
		}
	}
	return within, nil
}

func pointFromFields(fields map[string]string) (domgeo.Point, bool) {
	lat, err := strconv.ParseFloat(fields[fieldLatitude], 64)
	if err != nil {
		return domgeo.Point{}, false
	}
	lng, err := strconv.ParseFloat(fields[fieldLongitude], 64)
	if err != nil {
		return domgeo.Point{}, false
	}
	pt := domgeo.Point{Lat: lat, Lng: lng}
	return pt, pt.Valid()
}
