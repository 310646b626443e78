package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/hashpulse/internal/adapter/metrics"
	"github.com/pscheid92/hashpulse/internal/domain"
)

const statsGenerationKey = "stats:generation"

// StatsCache stores statistics results under generation-stamped keys.
// Invalidate bumps the generation, which orphans every existing entry; the
// orphans expire through their TTL. Get hands out the generation it read and
// Set writes under that generation, so a result computed across an ingestion
// lands among the orphans.
type StatsCache struct {
	rdb goredis.Cmdable
	m   *metrics.CacheMetrics
}

var _ domain.StatisticsCache = (*StatsCache)(nil)

func NewStatsCache(rdb goredis.Cmdable, m *metrics.CacheMetrics) *StatsCache {
	return &StatsCache{rdb: rdb, m: m}
}

func (c *StatsCache) Get(ctx context.Context, hashtag string) (*domain.StatisticsResult, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.m.Errors.WithLabelValues("get").Inc()
		return nil, 0, false, err
	}

	data, err := c.rdb.Get(ctx, statsKey(gen, hashtag)).Bytes()
	if errors.Is(err, goredis.Nil) {
		c.m.Misses.Inc()
		return nil, gen, false, nil
	}
	if err != nil {
		c.m.Errors.WithLabelValues("get").Inc()
		return nil, gen, false, fmt.Errorf("failed to read cached statistics: %w", err)
	}

	var result domain.StatisticsResult
	if err := json.Unmarshal(data, &result); err != nil {
		slog.Warn("Discarding undecodable cached statistics", "hashtag", hashtag, "error", err)
		c.m.Errors.WithLabelValues("decode").Inc()
		c.m.Misses.Inc()
		return nil, gen, false, nil
	}

	c.m.Hits.Inc()
	return &result, gen, true, nil
}

func (c *StatsCache) Set(ctx context.Context, generation int64, hashtag string, result *domain.StatisticsResult, ttl time.Duration) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}

	if err := c.rdb.Set(ctx, statsKey(generation, hashtag), encoded, ttl).Err(); err != nil {
		c.m.Errors.WithLabelValues("set").Inc()
		return fmt.Errorf("failed to cache statistics: %w", err)
	}
	return nil
}

func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, statsGenerationKey).Err(); err != nil {
		c.m.Errors.WithLabelValues("invalidate").Inc()
		return fmt.Errorf("failed to bump statistics generation: %w", err)
	}
	c.m.Invalidations.Inc()
	return nil
}

func (c *StatsCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, statsGenerationKey).Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return 0, fmt.Errorf("failed to read statistics generation: %w", err)
	}
	return gen, nil
}

func statsKey(generation int64, hashtag string) string {
	return "stats:" + strconv.FormatInt(generation, 10) + ":" + hashtag
}
