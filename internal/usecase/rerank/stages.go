package rerank

import (
	"math"
	"time"

	"github.com/marketdz/searchd/internal/domain/listing"
	"github.com/marketdz/searchd/internal/domain/profile"
)

// Affinity bonuses on top of the 0.5 base.
const (
	affinityBase          = 0.5
	affinityCategoryBonus = 0.2
	affinityWilayaBonus   = 0.1
	affinityPriceBonus    = 0.1
	affinityStyleBonusMax = 0.2
	affinityHomeBonus     = 0.1

	// styleFullOverlap is the shared-tag count that earns the full style bonus.
	styleFullOverlap = 2
)

// affinityScore computes how well a listing matches the user's browsing
// history. Result clamped to [0,1].
func affinityScore(l listing.Listing, p profile.Profile) float64 {
	score := affinityBase

	if p.HasCategory(l.Category) {
		score += affinityCategoryBonus
	}
	if p.HasWilaya(l.Wilaya) {
		score += affinityWilayaBonus
	}
	if l.Price != nil && p.InPriceRange(*l.Price) {
		score += affinityPriceBonus
	}
	if overlap := p.StyleOverlap(l.StyleTags); overlap > 0 {
		frac := math.Min(1, float64(overlap)/styleFullOverlap)
		score += affinityStyleBonusMax * frac
	}
	if p.HomeWilaya != "" && l.Wilaya == p.HomeWilaya {
		score += affinityHomeBonus
	}

	return clamp01(score)
}

// Trust scoring constants.
const (
	trustBase = 0.7
	// trustDeltaScale bounds each content signal's contribution to ±0.1.
	trustDeltaScale = 0.2
)

// trustScore folds content quality, sentiment, any prior moderation verdict,
// and the owner's star rating into a single [0,1] trust value.
func trustScore(quality, sentiment float64, moderation *float64, ownerRating float64) float64 {
	content := trustBase +
		trustDeltaScale*(quality-0.5) +
		trustDeltaScale*(sentiment-0.5)

	if moderation != nil {
		content = (content + *moderation) / 2
	}

	return clamp01((clamp01(content) + ownerRating/5) / 2)
}

// priceRange is the expected market price band for a category, in DZD.
type priceRange struct {
	Lo, Hi float64
}

// Expected per-category price bands. Jobs carry no price and stay neutral.
var marketRanges = map[listing.Category]priceRange{
	listing.ForSale: {Lo: 1_000, Hi: 500_000},
	listing.ForRent: {Lo: 10_000, Hi: 150_000},
	listing.Service: {Lo: 500, Hi: 100_000},
	listing.Urgent:  {Lo: 1_000, Hi: 500_000},
}

// bestDealThreshold marks listings priced in the cheapest fifth of the band.
const bestDealThreshold = 0.8

// priceScore normalizes a listing price into its category band: cheaper
// within the band scores higher, clamped to [0,1]. Listings without a price
// or without a band stay neutral.
func priceScore(l listing.Listing) float64 {
	band, ok := marketRanges[l.Category]
	if !ok || l.Price == nil || band.Hi <= band.Lo {
		return 0.5
	}
	return clamp01(1 - (*l.Price-band.Lo)/(band.Hi-band.Lo))
}

// isTrending reports whether the listing's view velocity clears the
// threshold, in views per day since creation.
func isTrending(l listing.Listing, viewsPerDay float64, now time.Time) bool {
	if viewsPerDay <= 0 || l.CreatedAt.IsZero() {
		return false
	}
	ageDays := math.Max(1, now.Sub(l.CreatedAt).Hours()/24)
	return float64(l.Views)/ageDays >= viewsPerDay
}

// Composite score weights; they sum to 1.0 so the result stays in [0,1]
// given clamped inputs.
const (
	weightRank     = 0.30
	weightAffinity = 0.20
	weightTrust    = 0.20
	weightPrice    = 0.15
	weightRating   = 0.10
	weightDistance = 0.05

	// componentDefault stands in for any score an optional stage never computed.
	componentDefault = 0.5

	// distanceDecayKm is the distance at which the proximity component hits zero.
	distanceDecayKm = 100
)

// compositeScore computes the smart-sort final score.
func compositeScore(s listing.Scored) float64 {
	distance := componentDefault
	if s.DistanceKm != nil {
		distance = math.Max(0, 1-*s.DistanceKm/distanceDecayKm)
	}

	return weightRank*s.SearchRank +
		weightAffinity*orDefault(s.UserAffinity) +
		weightTrust*orDefault(s.TrustScore) +
		weightPrice*orDefault(s.PriceScore) +
		weightRating*(s.OwnerRating/5) +
		weightDistance*distance
}

func orDefault(v *float64) float64 {
	if v == nil {
		return componentDefault
	}
	return *v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
