package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/kenchiku/pkg/observability"
)

// ResponseCache caches fully-shaped search responses. An in-process
// expirable LRU fronts an optional shared Redis layer; either layer being
// unavailable is never an error, only a miss.
type ResponseCache struct {
	l1      *lru.LRU[string, *Response]
	redis   *redis.Client
	ttl     time.Duration
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewResponseCache creates a response cache. redisClient and metrics may be
// nil; l1Size and ttl fall back to sane defaults when non-positive.
func NewResponseCache(redisClient *redis.Client, l1Size int, ttl time.Duration, logger *observability.Logger, metrics *observability.Metrics) *ResponseCache {
	if l1Size <= 0 {
		l1Size = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResponseCache{
		l1:      lru.NewLRU[string, *Response](l1Size, nil, ttl),
		redis:   redisClient,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns a cached response or nil on miss.
func (c *ResponseCache) Get(ctx context.Context, key string) *Response {
	if resp, ok := c.l1.Get(key); ok {
		c.hit("l1")
		return resp
	}
	c.miss("l1")

	if c.redis == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		c.miss("redis")
		return nil
	} else if err != nil {
		c.logger.WithError(err).Debug("redis cache get failed")
		c.miss("redis")
		return nil
	}

	var resp Response
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		// Corrupt entry, drop it
		c.redis.Del(ctx, key)
		c.miss("redis")
		return nil
	}

	c.hit("redis")
	c.l1.Add(key, &resp)
	return &resp
}

// Set stores a response in both layers. Failures are logged and ignored.
func (c *ResponseCache) Set(ctx context.Context, key string, resp *Response) {
	c.l1.Add(key, resp)

	if c.redis == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.WithError(err).Debug("failed to marshal response for cache")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("redis cache set failed")
	}
}

func (c *ResponseCache) hit(layer string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(layer).Inc()
	}
}

func (c *ResponseCache) miss(layer string) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(layer).Inc()
	}
}

// responseCacheKey builds the cache key for a normalized request.
func responseCacheKey(req Request) string {
	return fmt.Sprintf("search:%s:%s:%d:%d", req.Language, req.Query, req.Page, req.Limit)
}
