package photos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/photostream-labs/photostream-backend/pkg/logger"
	redisclient "github.com/photostream-labs/photostream-backend/pkg/redis"
)

const feedScope = "all"

type feedStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	FeedKey(scope string) string
}

// FeedCache keeps the first feed page in Redis so the hot path skips the
// database and the URL signer. Any write to the photo set invalidates it.
type FeedCache struct {
	store feedStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewFeedCache constructs a feed cache. A nil store disables caching.
func NewFeedCache(store feedStore, ttl time.Duration, logg *logger.Logger) *FeedCache {
	return &FeedCache{store: store, ttl: ttl, logg: logg}
}

// GetFirstPage returns the cached first page, or nil on miss.
func (c *FeedCache) GetFirstPage(ctx context.Context) *ListResult {
	if c == nil || c.store == nil || c.ttl <= 0 {
		return nil
	}
	raw, err := c.store.Get(ctx, c.store.FeedKey(feedScope))
	if err != nil {
		if err != redisclient.Nil {
			c.logg.Warn(ctx, "feed cache read failed: "+err.Error())
		}
		return nil
	}
	var page ListResult
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		c.logg.Warn(ctx, "feed cache payload corrupt, discarding")
		c.Invalidate(ctx)
		return nil
	}
	return &page
}

// SetFirstPage stores the first page with the configured TTL. Best effort.
func (c *FeedCache) SetFirstPage(ctx context.Context, page *ListResult) {
	if c == nil || c.store == nil || c.ttl <= 0 || page == nil {
		return
	}
	payload, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, c.store.FeedKey(feedScope), payload, c.ttl); err != nil {
		c.logg.Warn(ctx, "feed cache write failed: "+err.Error())
	}
}

// Invalidate drops the cached first page. Best effort.
func (c *FeedCache) Invalidate(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Del(ctx, c.store.FeedKey(feedScope)); err != nil {
		c.logg.Warn(ctx, "feed cache invalidation failed: "+err.Error())
	}
}
