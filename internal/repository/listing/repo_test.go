package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/marketdz/searchd/internal/db"
	"github.com/marketdz/searchd/internal/domain"
	domlisting "github.com/marketdz/searchd/internal/domain/listing"
	"github.com/marketdz/searchd/internal/domain/search/query"
	"github.com/marketdz/searchd/internal/domain/search/strategy"
)

type fakeStore struct {
	lastQuery *db.TextQuery
	result    *db.SearchResult
	err       error

	createdDef *db.IndexDefinition
	createErr  error
	exists     bool
	existsErr  error
}

func (f *fakeStore) SearchText(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &db.SearchResult{}, nil
	}
	return f.result, nil
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	f.createdDef = def
	return f.createErr
}

func (f *fakeStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.existsErr
}

// queryOpts keeps the table tests readable; zero values fall back to
// query.New defaults.
type queryOpts struct {
	Text     string
	Category domlisting.Category
	Wilaya   string
	City     string
	MinPrice *float64
	MaxPrice *float64
	Sort     query.Sort
	Page     int
	PageSize int
}

func mustQuery(t *testing.T, o queryOpts) query.Query {
	t.Helper()
	q, err := query.New(
		o.Text, o.Category, o.Wilaya, o.City,
		o.MinPrice, o.MaxPrice, o.Sort, o.Page, o.PageSize, "",
	)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func TestSearchBuildsStoreQuery(t *testing.T) {
	fs := &fakeStore{}
	repo := New(fs)

	minPrice, maxPrice := 1000.0, 50000.0
	q := mustQuery(t, queryOpts{
		Text:     "ايفون",
		Category: domlisting.ForSale,
		Wilaya:   "16",
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
		Page:     2,
		PageSize: 10,
	})

	if _, _, err := repo.Search(context.Background(), q, strategy.FullText); err != nil {
		t.Fatalf("Search: %v", err)
	}

	got := fs.lastQuery
	if got.IndexName != DefaultIndexName {
		t.Errorf("index = %q", got.IndexName)
	}
	if got.Mode != db.MatchText {
		t.Errorf("mode = %v, want MatchText", got.Mode)
	}
	if !got.WithScores {
		t.Error("fulltext relevance search should request scores")
	}
	if got.Offset != 10 || got.Limit != 10 {
		t.Errorf("offset/limit = %d/%d, want 10/10", got.Offset, got.Limit)
	}
	// status + category + wilaya + price range
	if n := len(got.Filters.Conditions()); n != 4 {
		t.Errorf("filter count = %d, want 4", n)
	}
}

func TestSearchModeByStrategy(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		strat strategy.Strategy
		want  db.MatchMode
	}{
		{"short ilike", "tv", strategy.ILike, db.MatchSubstring},
		{"trigram", "telepho", strategy.Trigram, db.MatchFuzzy},
		{"fulltext", "appartement alger", strategy.FullText, db.MatchText},
		{"no text", "", strategy.FullText, db.MatchNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{}
			q := mustQuery(t, queryOpts{Text: tt.text})
			if _, _, err := New(fs).Search(context.Background(), q, tt.strat); err != nil {
				t.Fatalf("Search: %v", err)
			}
			if fs.lastQuery.Mode != tt.want {
				t.Errorf("mode = %v, want %v", fs.lastQuery.Mode, tt.want)
			}
		})
	}
}

func TestSearchSortMapping(t *testing.T) {
	tests := []struct {
		sort      query.Sort
		wantField string
		wantDesc  bool
	}{
		{query.SortDate, "created_at", true},
		{query.SortPriceAsc, "price", false},
		{query.SortPriceDesc, "price", true},
		{query.SortPopularity, "views", true},
		{query.SortRating, "owner_rating", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			fs := &fakeStore{}
			q := mustQuery(t, queryOpts{Text: "velo", Sort: tt.sort})
			if _, _, err := New(fs).Search(context.Background(), q, strategy.Trigram); err != nil {
				t.Fatalf("Search: %v", err)
			}
			sb := fs.lastQuery.SortBy
			if sb == nil {
				t.Fatal("expected explicit sort")
			}
			if sb.Field != tt.wantField || sb.Desc != tt.wantDesc {
				t.Errorf("sort = %+v, want %s desc=%v", sb, tt.wantField, tt.wantDesc)
			}
		})
	}
}

func TestSearchRelevanceWithoutTextFallsBackToRecency(t *testing.T) {
	fs := &fakeStore{}
	q := mustQuery(t, queryOpts{Sort: query.SortRelevance, Category: domlisting.Job})
	if _, _, err := New(fs).Search(context.Background(), q, strategy.FullText); err != nil {
		t.Fatalf("Search: %v", err)
	}
	sb := fs.lastQuery.SortBy
	if sb == nil || sb.Field != "created_at" || !sb.Desc {
		t.Errorf("sort = %+v, want created_at desc", sb)
	}
	if fs.lastQuery.WithScores {
		t.Error("scores should not be requested without a text predicate")
	}
}

func TestSearchNormalizesRanks(t *testing.T) {
	fs := &fakeStore{
		result: &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "listing:a", Score: 8.0, Fields: map[string]string{"title": "a"}},
				{Key: "listing:b", Score: 2.0, Fields: map[string]string{"title": "b"}},
			},
		},
	}
	q := mustQuery(t, queryOpts{Text: "appartement alger", Sort: query.SortRelevance})

	scored, total, err := New(fs).Search(context.Background(), q, strategy.FullText)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if scored[0].ID != "a" || scored[1].ID != "b" {
		t.Errorf("key prefixes not stripped: %q, %q", scored[0].ID, scored[1].ID)
	}
	if scored[0].SearchRank != 1.0 {
		t.Errorf("best rank = %v, want 1.0", scored[0].SearchRank)
	}
	if scored[1].SearchRank != 0.25 {
		t.Errorf("rank = %v, want 0.25", scored[1].SearchRank)
	}
}

func TestSearchNeutralRankWithoutScores(t *testing.T) {
	fs := &fakeStore{
		result: &db.SearchResult{
			Total:   1,
			Entries: []db.SearchEntry{{Key: "listing:a", Fields: map[string]string{"title": "a"}}},
		},
	}
	q := mustQuery(t, queryOpts{Text: "tv", Sort: query.SortDate})

	scored, _, err := New(fs).Search(context.Background(), q, strategy.ILike)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if scored[0].SearchRank != 0.5 {
		t.Errorf("rank = %v, want neutral 0.5", scored[0].SearchRank)
	}
}

func TestSearchStoreError(t *testing.T) {
	fs := &fakeStore{err: &db.Error{Op: db.OpSearch, Err: errors.New("connection refused")}}
	q := mustQuery(t, queryOpts{Text: "velo"})

	_, _, err := New(fs).Search(context.Background(), q, strategy.Trigram)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("driver failure must map to ErrStoreUnavailable, got %v", err)
	}
}

func TestSearchNonDriverErrorPassesThrough(t *testing.T) {
	wantErr := errors.New("bad filter")
	fs := &fakeStore{err: wantErr}
	q := mustQuery(t, queryOpts{Text: "velo"})

	_, _, err := New(fs).Search(context.Background(), q, strategy.Trigram)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		t.Error("non-driver error must not map to ErrStoreUnavailable")
	}
}

func TestTitlesStoreError(t *testing.T) {
	fs := &fakeStore{err: &db.Error{Op: db.OpSearch, Err: errors.New("connection refused")}}

	_, err := New(fs).Titles(context.Background(), "iph", 50)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("driver failure must map to ErrStoreUnavailable, got %v", err)
	}
}

func TestTitles(t *testing.T) {
	fs := &fakeStore{
		result: &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "listing:a", Fields: map[string]string{"title": "iPhone 13 Pro"}},
				{Key: "listing:b", Fields: map[string]string{"title": "iPhone 12"}},
			},
		},
	}

	titles, err := New(fs).Titles(context.Background(), "iph", 50)
	if err != nil {
		t.Fatalf("Titles: %v", err)
	}
	if len(titles) != 2 || titles[0] != "iPhone 13 Pro" {
		t.Errorf("titles = %v", titles)
	}

	got := fs.lastQuery
	if got.Mode != db.MatchSubstring {
		t.Errorf("mode = %v, want MatchSubstring", got.Mode)
	}
	if len(got.TextFields) != 1 || got.TextFields[0] != "title" {
		t.Errorf("text fields = %v, want [title]", got.TextFields)
	}
	if got.Limit != 50 {
		t.Errorf("limit = %d, want 50", got.Limit)
	}
}

func TestEnsureIndex(t *testing.T) {
	fs := &fakeStore{}
	if err := New(fs).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	def := fs.createdDef
	if def == nil {
		t.Fatal("index not created")
	}
	if def.Name != DefaultIndexName {
		t.Errorf("name = %q", def.Name)
	}
}

func TestEnsureIndexSkipsExisting(t *testing.T) {
	fs := &fakeStore{exists: true}
	if err := New(fs).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if fs.createdDef != nil {
		t.Error("existing index should not be recreated")
	}
}

func TestEnsureIndexToleratesCreateRace(t *testing.T) {
	fs := &fakeStore{createErr: db.ErrIndexExists}
	if err := New(fs).EnsureIndex(context.Background()); err != nil {
		t.Errorf("concurrent create should be tolerated, got %v", err)
	}
}
