//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"ETFAdvisor/internal/usecase"
	"ETFAdvisor/pkg/config"
	"ETFAdvisor/pkg/server"
)

var infraSet = wire.NewSet(
	ProvideClickHouseClient,
	ProvideBarStore,
	ProvideBarStoreInterface,
	ProvideKafkaProducer,
	ProvideKafkaPublisher,
	ProvideBarPublisher,
	ProvideYahooClient,
	ProvideUniverse,
)

var advisorSet = wire.NewSet(
	ProvideEngine,
	ProvideFetchConfig,
	ProvideMarketOverview,
	ProvideRecommendation,
)

// InitializeApp wires the full service.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		infraSet,
		advisorSet,
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvideEventPublisher,
		ProvideMarketDataSource,
		ProvidePortfolioStore,
		ProvideExecution,
		ProvidePortfolio,
		ProvideInstrument,
		ProvideBarProcessor,
		ProvideBarIngest,
		ProvideMarketHub,
		ProvideAdvisorHandler,
		ProvideHTTPServer,
		ProvideScheduler,
		ProvideKafkaConsumer,
		ProvideKafkaBarsHandler,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeRecommender wires a one-shot recommender on Yahoo and the
// in-process cache.
func InitializeRecommender(cfg *config.Config) (*usecase.RecommendationUseCase, func(), error) {
	wire.Build(
		advisorSet,
		ProvideLocalLogger,
		ProvideLocalMetrics,
		ProvideMemoryCache,
		ProvideYahooClient,
		ProvideYahooSource,
		ProvideUniverse,
		ProvideNoEvents,
	)
	return nil, nil, nil
}

// InitializeIngest wires one bar ingest run against the configured backend.
func InitializeIngest(cfg *config.Config) (*usecase.BarIngestUseCase, func(), error) {
	wire.Build(
		infraSet,
		ProvideLogger,
		ProvideLocalMetrics,
		ProvideBarProcessor,
		ProvideBarIngest,
	)
	return nil, nil, nil
}
