// Package suggestcache caches autocomplete title lookups in a key-value
// store with a short TTL.
package suggestcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/marketdz/searchd/internal/db"
)

const cacheKeyPrefix = "searchd:suggest_cache:"

// DefaultTTL bounds suggestion staleness; new listings surface within it.
const DefaultTTL = 2 * time.Minute

// TitleSource is the consumer interface over the listings repository.
type TitleSource interface {
	Titles(ctx context.Context, partial string, limit int) ([]string, error)
}

// store is the consumer interface for the cache backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedTitles caches title lookups around an inner source.
type CachedTitles struct {
	inner      TitleSource
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner TitleSource,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedTitles {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedTitles{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Titles returns cached titles or calls the inner source. An empty result is
// cached too, so repeated misses for rare prefixes stay cheap.
func (c *CachedTitles) Titles(ctx context.Context, partial string, limit int) ([]string, error) {
	key := c.cacheKey(partial, limit)

	if titles, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return titles, nil
	}

	c.incCache("miss")

	titles, err := c.inner.Titles(ctx, partial, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch titles: %w", err)
	}

	c.putToCache(ctx, key, titles)
	return titles, nil
}

func (c *CachedTitles) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedTitles) cacheKey(partial string, limit int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", partial, limit)))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedTitles) getFromCache(ctx context.Context, key string) ([]string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached titles", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var titles []string
	if err := json.Unmarshal(data, &titles); err != nil {
		c.logger.Warn("Failed to parse cached titles", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return titles, true
}

func (c *CachedTitles) putToCache(ctx context.Context, key string, titles []string) {
	data, err := json.Marshal(titles)
	if err != nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache titles", zap.String("key", key), zap.Error(err))
	}
}
