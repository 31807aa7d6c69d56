package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marketdz/searchd/internal/db"
	"github.com/marketdz/searchd/internal/domain"
	domlisting "github.com/marketdz/searchd/internal/domain/listing"
)

type fakeStore struct {
	fields map[string]string
	err    error
	calls  int
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.fields, nil
}

func TestProfileParsesHistory(t *testing.T) {
	fs := &fakeStore{fields: map[string]string{
		"recent_categories": "for_sale,job,bogus",
		"recent_wilayas":    "16, 31",
		"min_viewed_price":  "5000",
		"max_viewed_price":  "80000",
		"fav_style_tags":    "electronics,apple",
		"home_wilaya":       "16",
	}}

	p, err := New(fs).Profile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.UserID != "u1" || p.HomeWilaya != "16" {
		t.Errorf("identity fields: %+v", p)
	}
	// invalid category dropped
	if len(p.RecentCategories) != 2 || p.RecentCategories[0] != domlisting.ForSale {
		t.Errorf("recent categories = %v", p.RecentCategories)
	}
	if len(p.RecentWilayas) != 2 || p.RecentWilayas[1] != "31" {
		t.Errorf("recent wilayas = %v", p.RecentWilayas)
	}
	if !p.HasPriceRange() || !p.InPriceRange(45000) || p.InPriceRange(100000) {
		t.Errorf("price range: min=%v max=%v", p.MinViewedPrice, p.MaxViewedPrice)
	}
	if p.StyleOverlap([]string{"apple", "cars"}) != 1 {
		t.Error("style overlap")
	}
}

func TestProfileEmptyHistoryIsNeutral(t *testing.T) {
	p, err := New(&fakeStore{fields: map[string]string{}}).Profile(context.Background(), "u2")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.HasPriceRange() || len(p.RecentCategories) != 0 || p.HomeWilaya != "" {
		t.Errorf("expected neutral profile, got %+v", p)
	}
}

func TestProfileCachesReads(t *testing.T) {
	fs := &fakeStore{fields: map[string]string{"home_wilaya": "31"}}
	repo := NewWithCache(fs, 8, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := repo.Profile(context.Background(), "u3"); err != nil {
			t.Fatalf("Profile: %v", err)
		}
	}
	if fs.calls != 1 {
		t.Errorf("store calls = %d, want 1", fs.calls)
	}
}

func TestProfileStoreError(t *testing.T) {
	fs := &fakeStore{err: &db.Error{Op: db.OpHGetAll, Err: errors.New("down")}}
	_, err := New(fs).Profile(context.Background(), "u4")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("driver failure must map to ErrStoreUnavailable, got %v", err)
	}
}
