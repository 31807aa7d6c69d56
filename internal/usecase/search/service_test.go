package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/marketdz/searchd/internal/domain/listing"
	"github.com/marketdz/searchd/internal/domain/search/query"
	"github.com/marketdz/searchd/internal/domain/search/strategy"
	"github.com/marketdz/searchd/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

type mockRepo struct {
	gotQuery query.Query
	gotStrat strategy.Strategy
	listings []listing.Scored
	total    int
	err      error
}

func (m *mockRepo) Search(
	_ context.Context, q query.Query, strat strategy.Strategy,
) ([]listing.Scored, int, error) {
	m.gotQuery = q
	m.gotStrat = strat
	return m.listings, m.total, m.err
}

func mustQuery(t *testing.T, text string, sort query.Sort, page, pageSize int, strat strategy.Strategy) query.Query {
	t.Helper()
	q, err := query.New(text, "", "", "", nil, nil, sort, page, pageSize, strat)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func scoredN(n int) []listing.Scored {
	out := make([]listing.Scored, n)
	for i := range out {
		out[i] = listing.Scored{Listing: listing.Listing{ID: string(rune('a' + i))}}
	}
	return out
}

func TestSearchSelectsStrategy(t *testing.T) {
	tests := []struct {
		name string
		text string
		want strategy.Strategy
	}{
		{"short text ilike", "tv", strategy.ILike},
		{"single word trigram", "telephone", strategy.Trigram},
		{"multi word fulltext", "appartement f3 alger centre", strategy.FullText},
		{"arabic trigram", "ايفون", strategy.Trigram},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			svc := New(repo, zap.NewNop())

			_, err := svc.Search(context.Background(), mustQuery(t, tt.text, "", 0, 0, ""))
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if repo.gotStrat != tt.want {
				t.Errorf("strategy = %v, want %v", repo.gotStrat, tt.want)
			}
		})
	}
}

func TestSearchStrategyOverride(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, zap.NewNop())

	// Long multi-word text would normally select fulltext.
	q := mustQuery(t, "appartement f3 alger centre", "", 0, 0, strategy.ILike)
	if _, err := svc.Search(context.Background(), q); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if repo.gotStrat != strategy.ILike {
		t.Errorf("strategy = %v, want explicit override ilike", repo.gotStrat)
	}
}

func TestSearchPagination(t *testing.T) {
	repo := &mockRepo{listings: scoredN(20), total: 45}
	svc := New(repo, zap.NewNop())

	res, err := svc.Search(context.Background(), mustQuery(t, "velo", "", 2, 20, ""))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	p := res.Pagination
	if p.CurrentPage != 2 || p.TotalPages != 3 || p.TotalItems != 45 {
		t.Errorf("pagination = %+v", p)
	}
	if !p.HasNext || !p.HasPrev {
		t.Errorf("middle page must have both neighbours: %+v", p)
	}
}

// pagingRepo serves pages out of a fixed listing set, honoring the query's
// offset and page size like the real store would.
type pagingRepo struct {
	all []listing.Scored
}

func (p *pagingRepo) Search(
	_ context.Context, q query.Query, _ strategy.Strategy,
) ([]listing.Scored, int, error) {
	start := q.Offset()
	if start > len(p.all) {
		start = len(p.all)
	}
	end := start + q.PageSize()
	if end > len(p.all) {
		end = len(p.all)
	}
	return p.all[start:end], len(p.all), nil
}

func TestSearchPageConcatenation(t *testing.T) {
	const total, pageSize = 23, 5

	all := make([]listing.Scored, total)
	for i := range all {
		all[i] = listing.Scored{Listing: listing.Listing{ID: fmt.Sprintf("id-%02d", i)}}
	}
	svc := New(&pagingRepo{all: all}, zap.NewNop())

	wantPages := (total + pageSize - 1) / pageSize
	seen := make(map[string]bool, total)
	var concat []string

	for page := 1; page <= wantPages; page++ {
		res, err := svc.Search(context.Background(), mustQuery(t, "velo", "", page, pageSize, ""))
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if res.Pagination.TotalPages != wantPages {
			t.Fatalf("page %d: total pages = %d, want %d", page, res.Pagination.TotalPages, wantPages)
		}
		if got, want := res.Pagination.HasPrev, page > 1; got != want {
			t.Errorf("page %d: HasPrev = %v, want %v", page, got, want)
		}
		if got, want := res.Pagination.HasNext, page < wantPages; got != want {
			t.Errorf("page %d: HasNext = %v, want %v", page, got, want)
		}
		for _, l := range res.Listings {
			if seen[l.ID] {
				t.Fatalf("page %d: duplicate listing %s", page, l.ID)
			}
			seen[l.ID] = true
			concat = append(concat, l.ID)
		}
	}

	if len(concat) != total {
		t.Fatalf("concatenated %d listings, want %d", len(concat), total)
	}
	for i, id := range concat {
		if id != all[i].ID {
			t.Errorf("position %d: got %s, want %s", i, id, all[i].ID)
		}
	}
}

func TestSearchLastPage(t *testing.T) {
	repo := &mockRepo{listings: scoredN(5), total: 45}
	svc := New(repo, zap.NewNop())

	res, err := svc.Search(context.Background(), mustQuery(t, "velo", "", 3, 20, ""))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Pagination.HasNext || !res.Pagination.HasPrev {
		t.Errorf("last page flags wrong: %+v", res.Pagination)
	}
}

func TestSearchMetadata(t *testing.T) {
	repo := &mockRepo{listings: scoredN(1), total: 1}
	svc := New(repo, zap.NewNop())

	res, err := svc.Search(context.Background(), mustQuery(t, "appartement alger centre", "", 0, 0, ""))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Metadata.Strategy != strategy.FullText {
		t.Errorf("metadata strategy = %v", res.Metadata.Strategy)
	}
	if res.Metadata.ExecutionTime <= 0 {
		t.Error("execution time not recorded")
	}
}

func TestSearchRepoError(t *testing.T) {
	wantErr := errors.New("store down")
	svc := New(&mockRepo{err: wantErr}, zap.NewNop())

	_, err := svc.Search(context.Background(), mustQuery(t, "velo", "", 0, 0, ""))
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}
