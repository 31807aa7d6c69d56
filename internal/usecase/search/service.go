// Package search runs the primary listing search flow: strategy selection,
// filtered store query, and page assembly.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marketdz/searchd/internal/domain/search/query"
	"github.com/marketdz/searchd/internal/domain/search/result"
	"github.com/marketdz/searchd/internal/domain/search/strategy"
	"github.com/marketdz/searchd/internal/metrics"
)

// Service handles listing search across the three matching strategies.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a search service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Search executes the query and returns one page of results with pagination
// and execution metadata. An explicit strategy on the query overrides the
// automatic selection.
func (s *Service) Search(ctx context.Context, q query.Query) (result.Result, error) {
	strat := q.Strategy()
	if strat == "" {
		strat = strategy.Select(q.NormalizedText())
	}

	start := time.Now()

	listings, total, err := s.repo.Search(ctx, q, strat)

	elapsed := time.Since(start)
	metrics.SearchDuration.WithLabelValues(string(strat)).Observe(elapsed.Seconds())

	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(strat), "error").Inc()
		return result.Result{}, fmt.Errorf("execute search: %w", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(strat), "success").Inc()

	s.logger.Debug("Search executed",
		zap.String("strategy", string(strat)),
		zap.String("text", q.NormalizedText()),
		zap.Int("total", total),
		zap.Duration("elapsed", elapsed),
	)

	return result.Result{
		Listings:   listings,
		Pagination: result.NewPage(q.Page(), q.PageSize(), total),
		Metadata: result.Metadata{
			Strategy:      strat,
			ExecutionTime: elapsed,
		},
	}, nil
}
