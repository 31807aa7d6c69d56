// Package listing holds the listing record and its request-scoped scored form.
package listing

import "time"

// Category is the listing category.
type Category string

// Listing categories.
const (
	ForSale Category = "for_sale"
	Job     Category = "job"
	Service Category = "service"
	ForRent Category = "for_rent"
	Urgent  Category = "urgent"
)

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	switch c {
	case ForSale, Job, Service, ForRent, Urgent:
		return true
	}
	return false
}

// Status is the listing lifecycle status. Transitions are driven by the
// marketplace write path, never by the search service.
type Status string

// Listing statuses.
const (
	StatusActive    Status = "active"
	StatusSold      Status = "sold"
	StatusRented    Status = "rented"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Listing is a classified ad as stored in the listings index.
// Price is nil for job listings by marketplace convention.
type Listing struct {
	ID          string
	Title       string
	Description string
	Price       *float64
	Category    Category
	Wilaya      string
	City        string
	Photos      []string
	Status      Status
	CreatedAt   time.Time
	OwnerID     string
	OwnerRating float64 // aggregate star rating of the owner, 0-5
	Views       int64

	// Location of the listing, when the seller provided one.
	Latitude  *float64
	Longitude *float64

	// Style tags attached by the marketplace (e.g. "modern", "vintage").
	StyleTags []string

	// Prior content-moderation confidence, 0-1, when a verdict exists.
	ModerationScore *float64
}

// Scored is a Listing augmented with request-scoped ranking signals.
// The score fields live only for the duration of one search or rerank
// call; they are never written back to the store.
type Scored struct {
	Listing

	// SearchRank is the normalized text-match rank from the base strategy, 0-1.
	SearchRank float64

	DistanceKm     *float64
	TrustScore     *float64
	SentimentScore *float64
	PriceScore     *float64
	UserAffinity   *float64

	IsTrending bool
	IsBestDeal bool

	// FinalScore is the weighted composite, populated only for smart sort.
	FinalScore float64
}

// WithDistance returns a copy with the distance attached.
func (s Scored) WithDistance(km float64) Scored {
	s.DistanceKm = &km
	return s
}

// WithAffinity returns a copy with the user-affinity score attached.
func (s Scored) WithAffinity(v float64) Scored {
	s.UserAffinity = &v
	return s
}

// WithTrust returns a copy with trust and sentiment scores attached.
func (s Scored) WithTrust(trust, sentiment float64) Scored {
	s.TrustScore = &trust
	s.SentimentScore = &sentiment
	return s
}

// WithMarket returns a copy with market-analysis fields attached.
func (s Scored) WithMarket(priceScore float64, trending, bestDeal bool) Scored {
	s.PriceScore = &priceScore
	s.IsTrending = trending
	s.IsBestDeal = bestDeal
	return s
}
