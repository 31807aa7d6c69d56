// Package profile holds the user browsing profile used for personalization.
package profile

import "github.com/marketdz/searchd/internal/domain/listing"

// Profile summarizes a user's recent marketplace activity. A zero Profile is
// valid and yields neutral personalization.
type Profile struct {
	UserID           string
	RecentCategories []listing.Category
	RecentWilayas    []string
	MinViewedPrice   *float64
	MaxViewedPrice   *float64
	FavStyleTags     []string
	HomeWilaya       string
}

// HasPriceRange reports whether the profile carries a usable viewed-price range.
func (p Profile) HasPriceRange() bool {
	return p.MinViewedPrice != nil && p.MaxViewedPrice != nil && *p.MinViewedPrice <= *p.MaxViewedPrice
}

// InPriceRange reports whether price falls inside the viewed-price range.
func (p Profile) InPriceRange(price float64) bool {
	return p.HasPriceRange() && price >= *p.MinViewedPrice && price <= *p.MaxViewedPrice
}

// HasCategory reports whether c is among the recently browsed categories.
func (p Profile) HasCategory(c listing.Category) bool {
	for _, rc := range p.RecentCategories {
		if rc == c {
			return true
		}
	}
	return false
}

// HasWilaya reports whether w is among the recently browsed wilayas.
func (p Profile) HasWilaya(w string) bool {
	for _, rw := range p.RecentWilayas {
		if rw == w {
			return true
		}
	}
	return false
}

// StyleOverlap counts tags shared between the profile's favourite styles and tags.
func (p Profile) StyleOverlap(tags []string) int {
	if len(p.FavStyleTags) == 0 || len(tags) == 0 {
		return 0
	}
	fav := make(map[string]struct{}, len(p.FavStyleTags))
	for _, t := range p.FavStyleTags {
		fav[t] = struct{}{}
	}
	n := 0
	for _, t := range tags {
		if _, ok := fav[t]; ok {
			n++
		}
	}
	return n
}
