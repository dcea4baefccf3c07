package repository

import (
	"context"

	"ETFAdvisor/internal/domain/models"
)

// MarketDataSource supplies daily price history for a quote symbol.
type MarketDataSource interface {
	FetchSeries(ctx context.Context, symbol string, rng HistoryRange) (models.PriceSeries, error)
}

// BarPublisher publishes bars to the message bus.
type BarPublisher interface {
	PublishBars(ctx context.Context, bars []models.PriceBar) error
	Close() error
}

// EventPublisher publishes domain events (recommendations, simulated executions).
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType, key string, payload interface{}) error
}

// Universe is the catalog of tracked instruments.
type Universe interface {
	List() []models.Instrument
	Get(symbol string) (models.Instrument, error)
	Filter(symbols []string) ([]models.Instrument, error)
}

// PortfolioStore keeps simulated portfolios for a limited time.
type PortfolioStore interface {
	Save(ctx context.Context, p models.Portfolio) error
	Get(ctx context.Context, id string) (models.Portfolio, error)
}

type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordRegime(strategy string, ratio float64)
}
