// Package chi implements the HTTP transport for the search API.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/marketdz/searchd/internal/domain"
	"github.com/marketdz/searchd/internal/domain/geo"
	"github.com/marketdz/searchd/internal/domain/listing"
	"github.com/marketdz/searchd/internal/domain/search/query"
	"github.com/marketdz/searchd/internal/domain/search/strategy"
	healthuc "github.com/marketdz/searchd/internal/usecase/health"
	rerankuc "github.com/marketdz/searchd/internal/usecase/rerank"
	searchuc "github.com/marketdz/searchd/internal/usecase/search"
	suggestuc "github.com/marketdz/searchd/internal/usecase/suggest"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search, suggest and rerank services over HTTP.
type Server struct {
	search        *searchuc.Service
	suggest       *suggestuc.Service
	rerank        *rerankuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	suggest *suggestuc.Service,
	rerank *rerankuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		suggest: suggest,
		rerank:  rerank,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrorResponseCodeStoreUnavailable),
		sentinelHandler(domain.ErrScorerUnavailable, http.StatusBadGateway, ErrorResponseCodeScorerUnavailable),
	}
	return s
}

// Routes registers all API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/v1/search", s.Search)
	r.Post("/api/v1/search/advanced", s.AdvancedSearch)
	r.Get("/api/v1/suggest", s.Suggest)
	r.Get("/api/v1/trending", s.Trending)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// searchParams are the bound query-string parameters of GET /api/v1/search.
type searchParams struct {
	Q        *string
	Category *string
	Wilaya   *string
	City     *string
	MinPrice *float64
	MaxPrice *float64
	Sort     *string
	Page     *int
	PageSize *int
	Strategy *string
}

func bindSearchParams(values url.Values) (searchParams, error) {
	var p searchParams
	bindings := []struct {
		name string
		dest any
	}{
		{"q", &p.Q},
		{"category", &p.Category},
		{"wilaya", &p.Wilaya},
		{"city", &p.City},
		{"min_price", &p.MinPrice},
		{"max_price", &p.MaxPrice},
		{"sort", &p.Sort},
		{"page", &p.Page},
		{"page_size", &p.PageSize},
		{"strategy", &p.Strategy},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, values, b.dest); err != nil {
			return searchParams{}, fmt.Errorf("parameter %q: %w", b.name, err)
		}
	}
	return p, nil
}

func (p searchParams) toQuery() (query.Query, error) {
	return query.New(
		strOr(p.Q),
		listing.Category(strOr(p.Category)),
		strOr(p.Wilaya),
		strOr(p.City),
		p.MinPrice,
		p.MaxPrice,
		query.Sort(strOr(p.Sort)),
		intOr(p.Page),
		intOr(p.PageSize),
		strategy.Strategy(strOr(p.Strategy)),
	)
}

// Search handles GET /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}

	q, err := params.toQuery()
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}
	if q.Sort().RerankOnly() {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			fmt.Sprintf("sort %q requires the advanced search endpoint", q.Sort()))
		return
	}

	res, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(res))
}

// AdvancedSearch handles POST /api/v1/search/advanced.
func (s *Server) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var req AdvancedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// The advanced endpoint defaults to the composite ordering.
	if req.Sort == "" {
		req.Sort = string(query.SortSmart)
	}

	q, err := query.New(
		req.Query,
		listing.Category(req.Category),
		req.Wilaya,
		req.City,
		req.MinPrice,
		req.MaxPrice,
		query.Sort(req.Sort),
		req.Page,
		req.PageSize,
		strategy.Strategy(req.Strategy),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	rreq := rerankuc.Request{
		Query:        q,
		UserID:       req.UserID,
		RadiusKm:     req.RadiusKm,
		MinTrust:     req.MinTrust,
		MinSentiment: req.MinSentiment,
		MinQuality:   req.MinQuality,
	}
	if req.Center != nil {
		rreq.Center = &geo.Point{Lat: req.Center.Lat, Lng: req.Center.Lng}
	}

	res, err := s.rerank.Rerank(r.Context(), rreq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(res))
}

// Suggest handles GET /api/v1/suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	var partial *string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &partial); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}
	if strOr(partial) == "" {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "q parameter is required")
		return
	}

	suggestions, err := s.suggest.Autocomplete(r.Context(), strOr(partial), intOr(limit))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: suggestions})
}

// Trending handles GET /api/v1/trending.
func (s *Server) Trending(w http.ResponseWriter, r *http.Request) {
	category := listing.Category(r.URL.Query().Get("category"))
	if category != "" && !category.IsValid() {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			fmt.Sprintf("invalid category: %q", category))
		return
	}

	writeJSON(w, http.StatusOK, TrendingResponse{Terms: s.suggest.Trending(category)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthToResponse(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrNotFound,
		domain.ErrStoreUnavailable,
		domain.ErrScorerUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intOr(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
