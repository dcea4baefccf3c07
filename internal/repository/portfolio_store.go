package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/domain/repository"
	pkgcache "ETFAdvisor/pkg/cache"
)

// CachePortfolioStore keeps simulated portfolios in the cache for a fixed
// lifetime. Nothing is stored durably.
type CachePortfolioStore struct {
	cache pkgcache.Service
	ttl   time.Duration
}

var _ repository.PortfolioStore = (*CachePortfolioStore)(nil)

func NewCachePortfolioStore(cache pkgcache.Service, ttl time.Duration) *CachePortfolioStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachePortfolioStore{cache: cache, ttl: ttl}
}

func (s *CachePortfolioStore) Save(ctx context.Context, p models.Portfolio) error {
	if p.ID == "" {
		return fmt.Errorf("portfolio id is required")
	}
	return s.cache.Set(ctx, portfolioKey(p.ID), p, s.ttl)
}

func (s *CachePortfolioStore) Get(ctx context.Context, id string) (models.Portfolio, error) {
	var p models.Portfolio
	if err := s.cache.Get(ctx, portfolioKey(id), &p); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return models.Portfolio{}, fmt.Errorf("%s: %w", id, models.ErrPortfolioNotFound)
		}
		return models.Portfolio{}, err
	}
	return p, nil
}

func portfolioKey(id string) string {
	return pkgcache.GenerateKey("portfolio", id)
}
