// Package rerank layers optional enrichment stages over a base search
// result: geo-radius filtering, user affinity, content trust, market price
// analysis, and a weighted composite sort.
package rerank

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marketdz/searchd/internal/domain"
	"github.com/marketdz/searchd/internal/domain/listing"
	"github.com/marketdz/searchd/internal/domain/search/query"
	"github.com/marketdz/searchd/internal/domain/search/result"
	"github.com/marketdz/searchd/internal/metrics"
)

// Pipeline defaults.
const (
	// DefaultPoolSize is how many base results feed the scoring stages.
	DefaultPoolSize = 100
	// DefaultDeadline bounds one advanced request end to end.
	DefaultDeadline = 3 * time.Second
	// DefaultTrendingViewsPerDay is the view velocity that marks a listing trending.
	DefaultTrendingViewsPerDay = 20
)

// Options tune the pipeline; zero values fall back to defaults.
type Options struct {
	PoolSize            int
	Deadline            time.Duration
	TrendingViewsPerDay float64
}

// Service runs the advanced re-ranking pipeline. Every stage past the base
// query degrades gracefully: on failure its scores are simply absent and the
// prior stage's output passes through.
type Service struct {
	search   Searcher
	geo      GeoLookup
	profiles ProfileStore
	scorer   domain.ContentScorer
	logger   *zap.Logger

	poolSize    int
	deadline    time.Duration
	viewsPerDay float64

	now func() time.Time
}

// New creates a rerank service.
func New(
	search Searcher,
	geo GeoLookup,
	profiles ProfileStore,
	scorer domain.ContentScorer,
	logger *zap.Logger,
	opts Options,
) *Service {
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultPoolSize
	}
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	if opts.TrendingViewsPerDay <= 0 {
		opts.TrendingViewsPerDay = DefaultTrendingViewsPerDay
	}
	return &Service{
		search:      search,
		geo:         geo,
		profiles:    profiles,
		scorer:      scorer,
		logger:      logger,
		poolSize:    opts.PoolSize,
		deadline:    opts.Deadline,
		viewsPerDay: opts.TrendingViewsPerDay,
		now:         time.Now,
	}
}

// Rerank executes the pipeline: base query, geo filter, concurrent scoring
// stages, threshold filters, sort, and the final page slice.
func (s *Service) Rerank(ctx context.Context, req Request) (result.Result, error) {
	if err := req.Validate(); err != nil {
		return result.Result{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	start := time.Now()

	// The base query is the one fatal dependency. Fetch a scoring pool from
	// the first page; the caller's page is sliced out at the end.
	base, err := s.search.Search(ctx, req.Query.WithPage(1, s.poolSize))
	if err != nil {
		return result.Result{}, fmt.Errorf("base query: %w", err)
	}

	scored := base.Listings
	var skipped []string

	scored, geoSkipped := s.applyGeo(ctx, req, scored)
	if geoSkipped {
		skipped = append(skipped, "geo")
	}

	scored, qualities, stageSkips := s.applyScoring(ctx, req, scored)
	skipped = append(skipped, stageSkips...)

	scored = applyThresholds(req, scored, qualities)
	scored = s.sortScored(req.Query.Sort(), scored)

	page := slicePage(scored, req.Query.Page(), req.Query.PageSize())

	return result.Result{
		Listings:   page,
		Pagination: result.NewPage(req.Query.Page(), req.Query.PageSize(), len(scored)),
		Metadata: result.Metadata{
			Strategy:      base.Metadata.Strategy,
			ExecutionTime: time.Since(start),
			SkippedStages: skipped,
		},
	}, nil
}

// applyGeo drops listings outside the radius and attaches distances. A geo
// lookup failure skips the stage, leaving the pool untouched.
func (s *Service) applyGeo(
	ctx context.Context, req Request, scored []listing.Scored,
) ([]listing.Scored, bool) {
	if !req.HasGeo() || len(scored) == 0 {
		return scored, false
	}

	ids := make([]string, len(scored))
	for i, sc := range scored {
		ids[i] = sc.ID
	}

	within, err := s.geo.WithinRadius(ctx, *req.Center, req.RadiusKm, ids)
	if err != nil {
		s.skipStage("geo", err)
		return scored, true
	}

	kept := make([]listing.Scored, 0, len(within))
	for _, sc := range scored {
		if dist, ok := within[sc.ID]; ok {
			kept = append(kept, sc.WithDistance(dist))
		}
	}
	return kept, false
}

// applyScoring runs the affinity, trust, and market stages concurrently and
// folds their scores into fresh Scored values. Each stage writes disjoint
// fields, so the fold is a plain merge. The returned qualities slice is
// aligned with the listings and nil when the trust stage was skipped.
func (s *Service) applyScoring(
	ctx context.Context, req Request, scored []listing.Scored,
) ([]listing.Scored, []float64, []string) {
	if len(scored) == 0 {
		return scored, nil, nil
	}

	var (
		affinities   []float64
		trustScores  []trustResult
		marketScores []marketResult

		affinityErr error
		trustErr    error
	)

	g, gctx := errgroup.WithContext(ctx)

	if req.UserID != "" {
		g.Go(func() error {
			affinities, affinityErr = s.affinityStage(gctx, req.UserID, scored)
			return nil
		})
	}
	g.Go(func() error {
		trustScores, trustErr = s.trustStage(gctx, scored)
		return nil
	})
	g.Go(func() error {
		marketScores = s.marketStage(scored)
		return nil
	})
	_ = g.Wait()

	var skipped []string
	if req.UserID != "" && affinityErr != nil {
		s.skipStage("affinity", affinityErr)
		skipped = append(skipped, "affinity")
	}
	if trustErr != nil {
		s.skipStage("trust", trustErr)
		skipped = append(skipped, "trust")
	}

	out := make([]listing.Scored, len(scored))
	var qualities []float64
	if trustScores != nil {
		qualities = make([]float64, len(scored))
	}
	for i, sc := range scored {
		if affinities != nil {
			sc = sc.WithAffinity(affinities[i])
		}
		if trustScores != nil {
			sc = sc.WithTrust(trustScores[i].trust, trustScores[i].sentiment)
			qualities[i] = trustScores[i].quality
		}
		sc = sc.WithMarket(marketScores[i].price, marketScores[i].trending, marketScores[i].bestDeal)
		out[i] = sc
	}
	return out, qualities, skipped
}

func (s *Service) affinityStage(
	ctx context.Context, userID string, scored []listing.Scored,
) ([]float64, error) {
	p, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(scored))
	for i, sc := range scored {
		scores[i] = affinityScore(sc.Listing, p)
	}
	return scores, nil
}

type trustResult struct {
	trust     float64
	sentiment float64
	quality   float64
}

func (s *Service) trustStage(
	ctx context.Context, scored []listing.Scored,
) ([]trustResult, error) {
	texts := make([]string, len(scored))
	for i, sc := range scored {
		texts[i] = sc.Title + "\n" + sc.Description
	}

	content, err := s.scorer.ScoreContent(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(content) != len(scored) {
		return nil, fmt.Errorf("scorer returned %d scores for %d texts", len(content), len(scored))
	}

	results := make([]trustResult, len(scored))
	for i, sc := range scored {
		results[i] = trustResult{
			trust:     trustScore(content[i].Quality, content[i].Sentiment, sc.ModerationScore, sc.OwnerRating),
			sentiment: content[i].Sentiment,
			quality:   content[i].Quality,
		}
	}
	return results, nil
}

type marketResult struct {
	price    float64
	trending bool
	bestDeal bool
}

func (s *Service) marketStage(scored []listing.Scored) []marketResult {
	now := s.now()
	results := make([]marketResult, len(scored))
	for i, sc := range scored {
		ps := priceScore(sc.Listing)
		results[i] = marketResult{
			price:    ps,
			trending: isTrending(sc.Listing, s.viewsPerDay, now),
			bestDeal: ps > bestDealThreshold,
		}
	}
	return results
}

// applyThresholds drops listings below any requested trust-stage floor.
// When the trust stage was skipped no scores exist and every listing is
// kept; a degraded stage must not empty the result.
func applyThresholds(req Request, scored []listing.Scored, qualities []float64) []listing.Scored {
	if req.MinTrust == nil && req.MinSentiment == nil && req.MinQuality == nil {
		return scored
	}

	kept := scored[:0]
	for i, sc := range scored {
		if req.MinTrust != nil && sc.TrustScore != nil && *sc.TrustScore < *req.MinTrust {
			continue
		}
		if req.MinSentiment != nil && sc.SentimentScore != nil && *sc.SentimentScore < *req.MinSentiment {
			continue
		}
		if req.MinQuality != nil && qualities != nil && qualities[i] < *req.MinQuality {
			continue
		}
		kept = append(kept, sc)
	}
	return kept
}

func (s *Service) sortScored(sortBy query.Sort, scored []listing.Scored) []listing.Scored {
	switch sortBy {
	case query.SortSmart:
		for i := range scored {
			scored[i].FinalScore = compositeScore(scored[i])
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].FinalScore > scored[j].FinalScore
		})
	case query.SortDistance:
		sort.SliceStable(scored, func(i, j int) bool {
			return orDefault(scored[i].DistanceKm) < orDefault(scored[j].DistanceKm)
		})
	}
	return scored
}

func slicePage(scored []listing.Scored, page, pageSize int) []listing.Scored {
	offset := (page - 1) * pageSize
	if offset >= len(scored) {
		return []listing.Scored{}
	}
	end := offset + pageSize
	if end > len(scored) {
		end = len(scored)
	}
	return scored[offset:end]
}

func (s *Service) skipStage(stage string, err error) {
	metrics.RerankStageSkipsTotal.WithLabelValues(stage).Inc()
	s.logger.Warn("Rerank stage skipped", zap.String("stage", stage), zap.Error(err))
}
