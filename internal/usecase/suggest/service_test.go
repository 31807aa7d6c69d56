package suggest

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/marketdz/searchd/internal/domain/listing"
)

type mockTitles struct {
	gotPartial string
	gotLimit   int
	calls      int
	titles     []string
	err        error
}

func (m *mockTitles) Titles(_ context.Context, partial string, limit int) ([]string, error) {
	m.calls++
	m.gotPartial = partial
	m.gotLimit = limit
	return m.titles, m.err
}

func TestAutocomplete(t *testing.T) {
	mt := &mockTitles{titles: []string{
		"iPhone 13 Pro Max",
		"iphone 12 occasion",
		"Coque iphone neuve",
	}}
	svc := New(mt, zap.NewNop())

	got, err := svc.Autocomplete(context.Background(), "iph", 10)
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}

	// tokens containing "iph", first-occurrence order, deduplicated
	want := []string{"iphone"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("suggestions = %v, want %v", got, want)
	}
	if mt.gotPartial != "iph" {
		t.Errorf("partial sent to store = %q", mt.gotPartial)
	}
}

func TestAutocompleteShortPartialSkipsStore(t *testing.T) {
	mt := &mockTitles{}
	svc := New(mt, zap.NewNop())

	got, err := svc.Autocomplete(context.Background(), "i", 10)
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("suggestions = %v, want empty", got)
	}
	if mt.calls != 0 {
		t.Error("store must not be queried for short partials")
	}
}

func TestAutocompleteNormalizesArabicPartial(t *testing.T) {
	mt := &mockTitles{titles: []string{"ايفون ١٣ للبيع"}}
	svc := New(mt, zap.NewNop())

	// Hamza variant folds to the bare-alif form stored in titles.
	got, err := svc.Autocomplete(context.Background(), "أيفون", 10)
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if mt.gotPartial != "ايفون" {
		t.Errorf("partial sent to store = %q, want normalized form", mt.gotPartial)
	}
	if len(got) != 1 || got[0] != "ايفون" {
		t.Errorf("suggestions = %v", got)
	}
}

func TestAutocompleteSkipsShortTokens(t *testing.T) {
	mt := &mockTitles{titles: []string{"pc hp 15 pouces", "pc gamer"}}
	svc := New(mt, zap.NewNop())

	got, err := svc.Autocomplete(context.Background(), "pc", 10)
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	// "pc" itself is under the token length floor
	if len(got) != 0 {
		t.Errorf("suggestions = %v, want none", got)
	}
}

func TestAutocompleteCapsAtLimit(t *testing.T) {
	mt := &mockTitles{titles: []string{
		"samsung galaxy", "samsung tv samsung1", "samsung2 samsung3 samsung4",
	}}
	svc := New(mt, zap.NewNop())

	got, err := svc.Autocomplete(context.Background(), "samsung", 3)
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want capped at 3", len(got))
	}
	if got[0] != "samsung" {
		t.Errorf("first suggestion = %q, want first occurrence kept", got[0])
	}
}

func TestAutocompleteFetchLimit(t *testing.T) {
	mt := &mockTitles{}
	svc := New(mt, zap.NewNop())

	if _, err := svc.Autocomplete(context.Background(), "velo", 5); err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if mt.gotLimit != DefaultTitleFetchLimit {
		t.Errorf("fetch limit = %d, want %d", mt.gotLimit, DefaultTitleFetchLimit)
	}

	svc = New(mt, zap.NewNop()).WithTitleFetchLimit(50)
	if _, err := svc.Autocomplete(context.Background(), "velo", 5); err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if mt.gotLimit != 50 {
		t.Errorf("fetch limit = %d, want 50", mt.gotLimit)
	}
}

func TestAutocompleteSourceError(t *testing.T) {
	wantErr := errors.New("store down")
	svc := New(&mockTitles{err: wantErr}, zap.NewNop())

	if _, err := svc.Autocomplete(context.Background(), "velo", 10); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestTrending(t *testing.T) {
	svc := New(&mockTitles{}, zap.NewNop())

	if got := svc.Trending(listing.Job); len(got) == 0 {
		t.Error("job category should have trending terms")
	}
	if got := svc.Trending("unknown"); len(got) == 0 {
		t.Error("unknown category should fall back to the default table")
	}

	// returned slice is a copy, callers cannot corrupt the table
	got := svc.Trending(listing.ForSale)
	got[0] = "mutated"
	if svc.Trending(listing.ForSale)[0] == "mutated" {
		t.Error("trending table must not be mutable through the returned slice")
	}
}
