package cache

import (
	"context"
	"errors"
	"time"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/domain/repository"
	pkgcache "ETFAdvisor/pkg/cache"
	"ETFAdvisor/pkg/logger"
)

// SeriesCache caches price series of an underlying source for a fixed TTL.
// Cache failures are logged and fall through to the source.
type SeriesCache struct {
	source repository.MarketDataSource
	store  pkgcache.Service
	ttl    time.Duration
	log    *logger.Logger
}

var _ repository.MarketDataSource = (*SeriesCache)(nil)

// NewSeriesCache wraps source. A non-positive ttl defaults to five minutes.
func NewSeriesCache(source repository.MarketDataSource, store pkgcache.Service, ttl time.Duration, log *logger.Logger) *SeriesCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SeriesCache{source: source, store: store, ttl: ttl, log: log}
}

func (c *SeriesCache) FetchSeries(ctx context.Context, symbol string, rng repository.HistoryRange) (models.PriceSeries, error) {
	key := pkgcache.GenerateKeyWithParams("series", symbol, rng)

	var cached models.PriceSeries
	err := c.store.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, pkgcache.ErrCacheMiss) {
		c.log.Warn("series cache read failed", logger.String("key", key), logger.Error(err))
	}

	series, err := c.source.FetchSeries(ctx, symbol, rng)
	if err != nil {
		return models.PriceSeries{}, err
	}
	if err := c.store.Set(ctx, key, series, c.ttl); err != nil {
		c.log.Warn("series cache write failed", logger.String("key", key), logger.Error(err))
	}
	return series, nil
}
