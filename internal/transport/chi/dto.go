package chi

import (
	"time"

	"github.com/marketdz/searchd/internal/domain/listing"
	"github.com/marketdz/searchd/internal/domain/search/result"
	healthuc "github.com/marketdz/searchd/internal/usecase/health"
)

// ErrorResponseCode is the machine-readable error category in error payloads.
type ErrorResponseCode string

// Error response codes.
const (
	ErrorResponseCodeBadRequest        ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed  ErrorResponseCode = "validation_failed"
	ErrorResponseCodeNotFound          ErrorResponseCode = "not_found"
	ErrorResponseCodeStoreUnavailable  ErrorResponseCode = "store_unavailable"
	ErrorResponseCodeScorerUnavailable ErrorResponseCode = "scorer_unavailable"
	ErrorResponseCodeInternalError     ErrorResponseCode = "internal_error"
)

// ErrorResponse is the JSON error payload.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// ListingResponse is one scored listing in a result page. Optional score
// fields are omitted when the producing stage did not run.
type ListingResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Category    string    `json:"category"`
	Wilaya      string    `json:"wilaya,omitempty"`
	City        string    `json:"city,omitempty"`
	Photos      []string  `json:"photos,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerID     string    `json:"owner_id,omitempty"`
	OwnerRating float64   `json:"owner_rating"`
	Views       int64     `json:"views"`
	StyleTags   []string  `json:"style_tags,omitempty"`

	SearchRank     float64  `json:"search_rank"`
	DistanceKm     *float64 `json:"distance_km,omitempty"`
	TrustScore     *float64 `json:"trust_score,omitempty"`
	SentimentScore *float64 `json:"sentiment_score,omitempty"`
	PriceScore     *float64 `json:"price_score,omitempty"`
	UserAffinity   *float64 `json:"user_affinity,omitempty"`
	IsTrending     bool     `json:"is_trending,omitempty"`
	IsBestDeal     bool     `json:"is_best_deal,omitempty"`
	FinalScore     float64  `json:"final_score,omitempty"`
}

// PaginationResponse is the pagination block of a result page.
type PaginationResponse struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// MetadataResponse describes how a result page was produced.
type MetadataResponse struct {
	Strategy        string   `json:"strategy"`
	ExecutionTimeMs int64    `json:"execution_time_ms"`
	SkippedStages   []string `json:"skipped_stages,omitempty"`
}

// SearchResponse is a full result page.
type SearchResponse struct {
	Listings   []ListingResponse  `json:"listings"`
	Pagination PaginationResponse `json:"pagination"`
	Metadata   MetadataResponse   `json:"metadata"`
}

// SuggestResponse holds autocomplete suggestions.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// TrendingResponse holds trending search terms for a category.
type TrendingResponse struct {
	Terms []string `json:"terms"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// GeoPointRequest is a latitude/longitude pair in an advanced search body.
type GeoPointRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AdvancedSearchRequest is the POST /api/v1/search/advanced body.
type AdvancedSearchRequest struct {
	Query    string   `json:"query,omitempty"`
	Category string   `json:"category,omitempty"`
	Wilaya   string   `json:"wilaya,omitempty"`
	City     string   `json:"city,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Page     int      `json:"page,omitempty"`
	PageSize int      `json:"page_size,omitempty"`
	Strategy string   `json:"strategy,omitempty"`

	UserID   string           `json:"user_id,omitempty"`
	Center   *GeoPointRequest `json:"center,omitempty"`
	RadiusKm float64          `json:"radius_km,omitempty"`

	MinTrust     *float64 `json:"min_trust,omitempty"`
	MinSentiment *float64 `json:"min_sentiment,omitempty"`
	MinQuality   *float64 `json:"min_quality,omitempty"`
}

func listingToResponse(s listing.Scored) ListingResponse {
	return ListingResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Price:       s.Price,
		Category:    string(s.Category),
		Wilaya:      s.Wilaya,
		City:        s.City,
		Photos:      s.Photos,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		OwnerID:     s.OwnerID,
		OwnerRating: s.OwnerRating,
		Views:       s.Views,
		StyleTags:   s.StyleTags,

		SearchRank:     s.SearchRank,
		DistanceKm:     s.DistanceKm,
		TrustScore:     s.TrustScore,
		SentimentScore: s.SentimentScore,
		PriceScore:     s.PriceScore,
		UserAffinity:   s.UserAffinity,
		IsTrending:     s.IsTrending,
		IsBestDeal:     s.IsBestDeal,
		FinalScore:     s.FinalScore,
	}
}

func resultToResponse(res result.Result) SearchResponse {
	listings := make([]ListingResponse, len(res.Listings))
	for i, s := range res.Listings {
		listings[i] = listingToResponse(s)
	}
	return SearchResponse{
		Listings: listings,
		Pagination: PaginationResponse{
			CurrentPage: res.Pagination.CurrentPage,
			TotalPages:  res.Pagination.TotalPages,
			TotalItems:  res.Pagination.TotalItems,
			HasNext:     res.Pagination.HasNext,
			HasPrev:     res.Pagination.HasPrev,
		},
		Metadata: MetadataResponse{
			Strategy:        string(res.Metadata.Strategy),
			ExecutionTimeMs: res.Metadata.ExecutionTime.Milliseconds(),
			SkippedStages:   res.Metadata.SkippedStages,
		},
	}
}

func healthToResponse(report healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	}
}
