package repository

import (
	"context"

	"ETFAdvisor/internal/domain/models"
)

// BarStore persists daily bars and serves the latest history per symbol.
type BarStore interface {
	StoreBatch(ctx context.Context, bars []models.PriceBar) error
	LatestN(ctx context.Context, symbol string, n int) ([]models.PriceBar, error)
	Health(ctx context.Context) error
	Close() error
}
