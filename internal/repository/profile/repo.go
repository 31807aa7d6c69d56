// Package profile reads user browsing history from the shared store and
// serves it to the rerank pipeline through a short-lived in-process cache.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/marketdz/searchd/internal/db"
	"github.com/marketdz/searchd/internal/domain"
	domlisting "github.com/marketdz/searchd/internal/domain/listing"
	domprofile "github.com/marketdz/searchd/internal/domain/profile"
)

const (
	keyPrefix = "user:"
	keySuffix = ":history"

	fieldRecentCategories = "recent_categories"
	fieldRecentWilayas    = "recent_wilayas"
	fieldMinViewedPrice   = "min_viewed_price"
	fieldMaxViewedPrice   = "max_viewed_price"
	fieldFavStyleTags     = "fav_style_tags"
	fieldHomeWilaya       = "home_wilaya"
)

// Defaults for the profile cache.
const (
	DefaultCacheSize = 4096
	DefaultCacheTTL  = 5 * time.Minute
)

type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo loads user profiles. Cache hits skip the store entirely; a profile is
// at most CacheTTL stale, which is acceptable for ranking hints.
type Repo struct {
	store store
	cache *lru.LRU[string, domprofile.Profile]
}

// New creates a profile repository with cache defaults.
func New(s store) *Repo {
	return NewWithCache(s, DefaultCacheSize, DefaultCacheTTL)
}

// NewWithCache creates a profile repository with an explicit cache geometry.
func NewWithCache(s store, size int, ttl time.Duration) *Repo {
	return &Repo{
		store: s,
		cache: lru.NewLRU[string, domprofile.Profile](size, nil, ttl),
	}
}

// Profile returns the browsing profile for userID. Missing history yields a
// zero profile rather than an error; personalization then stays neutral.
func (r *Repo) Profile(ctx context.Context, userID string) (domprofile.Profile, error) {
	if p, ok := r.cache.Get(userID); ok {
		return p, nil
	}

	fields, err := r.store.HGetAll(ctx, keyPrefix+userID+keySuffix)
	if err != nil {
		var dbErr *db.Error
		if errors.As(err, &dbErr) {
			return domprofile.Profile{}, fmt.Errorf("load profile %s: %v: %w", userID, dbErr, domain.ErrStoreUnavailable)
		}
		return domprofile.Profile{}, fmt.Errorf("load profile %s: %w", userID, err)
	}

	p := profileFromFields(userID, fields)
	r.cache.Add(userID, p)
	return p, nil
}

func profileFromFields(userID string, fields map[string]string) domprofile.Profile {
	p := domprofile.Profile{
		UserID:     userID,
		HomeWilaya: fields[fieldHomeWilaya],
	}

	for _, c := range splitCSV(fields[fieldRecentCategories]) {
		cat := domlisting.Category(c)
		if cat.IsValid() {
			p.RecentCategories = append(p.RecentCategories, cat)
		}
	}
	p.RecentWilayas = splitCSV(fields[fieldRecentWilayas])
	p.FavStyleTags = splitCSV(fields[fieldFavStyleTags])

	if v, err := strconv.ParseFloat(fields[fieldMinViewedPrice], 64); err == nil {
		p.MinViewedPrice = &v
	}
	if v, err := strconv.ParseFloat(fields[fieldMaxViewedPrice], 64); err == nil {
		p.MaxViewedPrice = &v
	}

	return p
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
