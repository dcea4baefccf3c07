package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/domain/repository"
	"ETFAdvisor/internal/handler/api"
	internalrepo "ETFAdvisor/internal/repository"
	seriescache "ETFAdvisor/internal/service/cache"
	servicemetrics "ETFAdvisor/internal/service/metrics"
	"ETFAdvisor/internal/service/ratelimit"
	"ETFAdvisor/internal/service/yahoo"
	"ETFAdvisor/internal/services/analytics"
	"ETFAdvisor/internal/usecase"
	pkgcache "ETFAdvisor/pkg/cache"
	pkgch "ETFAdvisor/pkg/clickhouse"
	"ETFAdvisor/pkg/config"
	xhttp "ETFAdvisor/pkg/http"
	"ETFAdvisor/pkg/http/middleware"
	pkgkafka "ETFAdvisor/pkg/kafka"
	"ETFAdvisor/pkg/logger"
	"ETFAdvisor/pkg/metrics"
	"ETFAdvisor/pkg/scheduler"
	"ETFAdvisor/pkg/server"
	"ETFAdvisor/pkg/util"
)

const (
	JobBarsIngest = "bars-ingest"
	JobMarketFeed = "market-feed"
)

// ProvideLogger creates the application logger from the log section. With
// Kafka enabled, error records are aggregated and shipped to the logs topic;
// the collector is attached before any child logger is derived.
func ProvideLogger(cfg *config.Config, pub *internalrepo.KafkaPublisher) (*logger.Logger, func(), error) {
	l, err := logger.New(&logger.Config{
		Level:           cfg.Log.Level,
		Format:          cfg.Log.Format,
		Output:          cfg.Log.Output,
		CollectWarnings: cfg.Log.CollectWarnings,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	cleanup := func() {}
	if pub != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Log.FlushInterval,
			CountThreshold: cfg.Log.FlushThreshold,
			Topic:          cfg.Kafka.Topics.Logs,
			Publisher:      pub,
		})
		cleanup = l.RemoveCollector
	}
	return l.With(logger.String("env", cfg.Environment)), cleanup, nil
}

// ProvideLocalLogger logs to the configured output only.
func ProvideLocalLogger(cfg *config.Config) (*logger.Logger, error) {
	l, _, err := ProvideLogger(cfg, nil)
	return l, err
}

// ProvideMetrics registers the service metrics on the default registry,
// which /metrics serves.
func ProvideMetrics() repository.Metrics {
	servicemetrics.Register(prometheus.DefaultRegisterer)
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideLocalMetrics keeps metrics in a private registry for one-shot commands.
func ProvideLocalMetrics() repository.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// ProvideCache returns the layered memory+Redis cache when Redis is enabled,
// otherwise the in-process cache.
func ProvideCache(cfg *config.Config, log *logger.Logger) (pkgcache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		return ProvideMemoryCache()
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		pkgcache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, 2, 3*time.Second),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	c := pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredL1TTL(time.Minute))
	log.Info("cache ready", logger.String("mode", "layered"), logger.String("redis", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)))
	return c, func() { _ = c.Close() }, nil
}

// ProvideMemoryCache returns the in-process cache only.
func ProvideMemoryCache() (pkgcache.Service, func(), error) {
	c := pkgcache.NewMemoryCache()
	return c, func() { _ = c.Close() }, nil
}

// ProvideClickHouseClient creates a ClickHouse client and its schema. It
// returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.BarSchema(client.Database())); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideBarStore wraps the ClickHouse client; nil when ClickHouse is disabled.
func ProvideBarStore(ch *pkgch.Client, log *logger.Logger) *internalrepo.ClickHouseBarStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseBarStore(ch, "yahoo", log)
}

// ProvideKafkaProducer creates a Kafka producer; nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideKafkaPublisher creates the bars/events/logs publisher; nil without a producer.
func ProvideKafkaPublisher(producer *pkgkafka.Producer, cfg *config.Config) *internalrepo.KafkaPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Bars, cfg.Kafka.Topics.Events)
}

// ProvideEventPublisher returns a nil interface when Kafka is disabled so
// use cases skip publishing.
func ProvideEventPublisher(pub *internalrepo.KafkaPublisher) repository.EventPublisher {
	if pub == nil {
		return nil
	}
	return pub
}

// ProvideNoEvents disables event publishing.
func ProvideNoEvents() repository.EventPublisher { return nil }

func ProvideBarPublisher(pub *internalrepo.KafkaPublisher) repository.BarPublisher {
	if pub == nil {
		return nil
	}
	return pub
}

func ProvideBarStoreInterface(store *internalrepo.ClickHouseBarStore) repository.BarStore {
	if store == nil {
		return nil
	}
	return store
}

// ProvideYahooClient creates the quote client from the market_data section.
func ProvideYahooClient(cfg *config.Config, log *logger.Logger) *yahoo.Client {
	md := cfg.MarketData
	return yahoo.New(log,
		yahoo.WithHosts(md.Hosts...),
		yahoo.WithRateLimit(md.RPS, md.Burst),
		yahoo.WithRetries(md.Retries, 500*time.Millisecond),
		yahoo.WithBreaker(md.Breaker.MaxRequests, md.Breaker.Failures, md.Breaker.Interval, md.Breaker.Timeout),
		yahoo.WithHTTPClient(xhttp.NewClient(
			xhttp.WithTimeout(md.Timeout),
			xhttp.WithHeader("User-Agent", md.UserAgent),
		)),
	)
}

// ProvideMarketDataSource picks Yahoo or the ClickHouse history and puts the
// series cache in front of it.
func ProvideMarketDataSource(
	cfg *config.Config,
	yc *yahoo.Client,
	store *internalrepo.ClickHouseBarStore,
	cache pkgcache.Service,
	log *logger.Logger,
) repository.MarketDataSource {
	var source repository.MarketDataSource = yc
	if cfg.MarketData.Source == "clickhouse" && store != nil {
		source = store
	}
	return seriescache.NewSeriesCache(source, cache, cfg.MarketData.CacheTTL, log)
}

// ProvideYahooSource is the Yahoo client behind the series cache.
func ProvideYahooSource(cfg *config.Config, yc *yahoo.Client, cache pkgcache.Service, log *logger.Logger) repository.MarketDataSource {
	return seriescache.NewSeriesCache(yc, cache, cfg.MarketData.CacheTTL, log)
}

// ProvideEngine builds the scoring engine from the engine section.
func ProvideEngine(cfg *config.Config) (*analytics.Engine, error) {
	e := cfg.Engine
	defaults := analytics.DefaultConfig()
	engine, err := analytics.NewEngine(
		analytics.WithIndicatorWindows(e.ShortWindow, e.LongWindow, e.RSIWindow, e.PercentileLookback),
		analytics.WithWeights(analytics.Weights{
			Trend:     e.Weights.Trend,
			Momentum:  e.Weights.Momentum,
			Valuation: e.Weights.Valuation,
			Liquidity: e.Weights.Liquidity,
			Cost:      e.Weights.Cost,
		}),
		analytics.WithAllocationLimits(e.MinScore, e.ConcentrationCap, e.LotSize),
		analytics.WithRatioBounds(e.RatioFloor, e.RatioCeiling),
		analytics.WithSignalDefaults(e.DefaultVolatility, e.DefaultMomentum, defaults.DefaultMacro),
		analytics.WithAlertThresholds(defaults.CapTolerance, e.RedFraction, e.VolatilitySpike, e.OverheatedRSI, e.MinDiversification),
		analytics.WithRiskLimits(e.GreenFractionHigh, e.GreenFractionMedium, e.HighBandFraction, e.MaxCategoryExposure, e.MaxPortfolioVolatility),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return engine, nil
}

// ProvideUniverse builds the instrument catalog.
func ProvideUniverse(cfg *config.Config) repository.Universe {
	instruments := make([]models.Instrument, 0, len(cfg.Universe))
	for _, in := range cfg.Universe {
		instruments = append(instruments, models.Instrument{
			Symbol:       in.Symbol,
			Name:         in.Name,
			Category:     in.Category,
			Suffix:       in.Suffix,
			ExpenseRatio: in.ExpenseRatio,
		})
	}
	return internalrepo.NewConfigUniverse(instruments)
}

func ProvidePortfolioStore(cache pkgcache.Service) repository.PortfolioStore {
	return internalrepo.NewCachePortfolioStore(cache, 24*time.Hour)
}

func ProvideFetchConfig(cfg *config.Config) usecase.FetchConfig {
	return usecase.FetchConfig{
		Range:       repository.NormalizeRange(cfg.MarketData.HistoryRange),
		Concurrency: cfg.MarketData.Concurrency,
		Timeout:     cfg.MarketData.FetchTimeout,
	}
}

func ProvideMarketOverview(cfg *config.Config, source repository.MarketDataSource, engine *analytics.Engine, m repository.Metrics, log *logger.Logger) *usecase.MarketOverviewUseCase {
	macro := models.ParseMacroLight(cfg.MarketData.MacroLight)
	return usecase.NewMarketOverviewUseCase(source, engine, m, log,
		cfg.MarketData.IndexSymbol, cfg.MarketData.VolatilitySym, macro, cfg.MarketData.Timeout)
}

func ProvideRecommendation(
	universe repository.Universe,
	source repository.MarketDataSource,
	engine *analytics.Engine,
	overview *usecase.MarketOverviewUseCase,
	events repository.EventPublisher,
	m repository.Metrics,
	log *logger.Logger,
	fetch usecase.FetchConfig,
) *usecase.RecommendationUseCase {
	return usecase.NewRecommendationUseCase(universe, source, engine, overview, events, m, log, fetch)
}

func ProvideExecution(universe repository.Universe, portfolios repository.PortfolioStore, events repository.EventPublisher, log *logger.Logger) *usecase.ExecutionUseCase {
	return usecase.NewExecutionUseCase(universe, portfolios, events, log)
}

func ProvidePortfolio(
	portfolios repository.PortfolioStore,
	universe repository.Universe,
	source repository.MarketDataSource,
	engine *analytics.Engine,
	overview *usecase.MarketOverviewUseCase,
	log *logger.Logger,
	fetch usecase.FetchConfig,
) *usecase.PortfolioUseCase {
	return usecase.NewPortfolioUseCase(portfolios, universe, source, engine, overview, log, fetch)
}

func ProvideInstrument(cfg *config.Config, universe repository.Universe, source repository.MarketDataSource, engine *analytics.Engine) *usecase.InstrumentUseCase {
	return usecase.NewInstrumentUseCase(universe, source, engine, repository.NormalizeRange(cfg.MarketData.HistoryRange))
}

// ProvideBarProcessor routes ingested bars to the configured backend.
func ProvideBarProcessor(pub repository.BarPublisher, store repository.BarStore, m repository.Metrics, cfg *config.Config) *usecase.BarProcessor {
	return usecase.NewBarProcessor(pub, store, m, cfg.Backend.Type, cfg.Backend.BatchSize)
}

// ProvideBarIngest pulls the last week of bars for the universe and benchmarks.
func ProvideBarIngest(
	cfg *config.Config,
	universe repository.Universe,
	source *yahoo.Client,
	processor *usecase.BarProcessor,
	log *logger.Logger,
) *usecase.BarIngestUseCase {
	return usecase.NewBarIngestUseCase(universe, source, processor, log,
		[]string{cfg.MarketData.IndexSymbol, cfg.MarketData.VolatilitySym},
		usecase.FetchConfig{
			Range:       repository.Range5d,
			Concurrency: cfg.MarketData.Concurrency,
			Timeout:     cfg.MarketData.FetchTimeout,
		})
}

func ProvideMarketHub(cfg *config.Config, log *logger.Logger) *api.MarketHub {
	return api.NewMarketHub(log, cfg.Server.CORSOrigins)
}

// ProvideAdvisorHandler wires the use cases and dependency probes into the API.
func ProvideAdvisorHandler(
	cfg *config.Config,
	log *logger.Logger,
	overview *usecase.MarketOverviewUseCase,
	recommendation *usecase.RecommendationUseCase,
	execution *usecase.ExecutionUseCase,
	portfolio *usecase.PortfolioUseCase,
	instrument *usecase.InstrumentUseCase,
	hub *api.MarketHub,
	cache pkgcache.Service,
	store *internalrepo.ClickHouseBarStore,
) *api.AdvisorHandler {
	h := api.NewAdvisorHandler(log, api.AdvisorDeps{
		Overview:    overview,
		Recommender: recommendation,
		Executor:    execution,
		Portfolios:  portfolio,
		Instruments: instrument,
		Hub:         hub,
	}, cfg.Server.RequestTimeout)
	h.AddHealthCheck("cache", cache.Ping)
	if store != nil {
		h.AddHealthCheck("clickhouse", store.Health)
	}
	return h
}

// ProvideHTTPServer creates the Echo server with per-client rate limiting.
func ProvideHTTPServer(cfg *config.Config, log *logger.Logger, handler *api.AdvisorHandler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	if rl := cfg.Server.RateLimit; rl.Enabled && rl.RPS > 0 {
		limiter := ratelimit.New(rl.RPS, rl.Burst).WithIdle(rl.IdleTTL)
		metricsPath := cfg.Metrics.Path
		opts = append(opts, xhttp.WithMiddleware(middleware.RateLimit(limiter, func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/api/health" || p == metricsPath || strings.HasPrefix(p, "/ws/")
		})))
	}
	return xhttp.NewServer(log, []xhttp.Handler{handler}, opts...)
}

// ProvideScheduler registers the bar ingest (when a backend is available)
// and the market feed jobs.
func ProvideScheduler(
	cfg *config.Config,
	log *logger.Logger,
	cache pkgcache.Service,
	ingest *usecase.BarIngestUseCase,
	overview *usecase.MarketOverviewUseCase,
	hub *api.MarketHub,
	pub repository.BarPublisher,
	store repository.BarStore,
) (*scheduler.Scheduler, error) {
	if !cfg.Schedule.Enabled {
		return nil, nil
	}
	s, err := scheduler.New(log,
		scheduler.WithTimezone(cfg.Schedule.Timezone),
		scheduler.WithLocker(cache, cfg.Schedule.LockTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	loc := util.LoadLocation(cfg.Schedule.Timezone)
	backendReady := (cfg.Backend.Type == usecase.BackendKafka && pub != nil) ||
		(cfg.Backend.Type == usecase.BackendClickHouse && store != nil)
	if backendReady {
		if err := s.Add(scheduler.Job{
			Name:    JobBarsIngest,
			Spec:    cfg.Schedule.IngestCron,
			Timeout: 5 * time.Minute,
			Run: func(ctx context.Context) error {
				if !util.IsTradingDay(time.Now(), loc) {
					log.Debug("bar ingest skipped, market closed")
					return nil
				}
				_, err := ingest.Run(ctx)
				return err
			},
		}); err != nil {
			return nil, err
		}
	} else {
		log.Warn("bar ingest not scheduled, backend unavailable", logger.String("backend", cfg.Backend.Type))
	}

	if err := s.Add(scheduler.Job{
		Name:    JobMarketFeed,
		Spec:    cfg.Schedule.FeedCron,
		Timeout: time.Minute,
		Run: func(ctx context.Context) error {
			if hub.Clients() == 0 {
				return nil
			}
			return hub.Broadcast("market_overview", overview.Overview(ctx))
		},
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideKafkaConsumer creates the bars consumer; nil unless enabled.
func ProvideKafkaConsumer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaBarsHandler stores consumed bars in ClickHouse.
func ProvideKafkaBarsHandler(cfg *config.Config, store repository.BarStore, m repository.Metrics) *usecase.KafkaBarsHandler {
	if store == nil {
		return nil
	}
	return usecase.NewKafkaBarsHandler(cfg.Kafka.Topics.Bars, store, m)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	barsHandler *usecase.KafkaBarsHandler,
	hub *api.MarketHub,
) *server.App {
	opts := []server.Option{
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithCloser("market hub", func() error { hub.Close(); return nil }),
	}
	if sched != nil {
		opts = append(opts, server.WithScheduler(sched))
	}
	if consumer != nil && barsHandler != nil {
		opts = append(opts, server.WithConsumer(consumer, barsHandler))
	}
	return server.New(log, httpServer, opts...)
}
