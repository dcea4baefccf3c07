package usecase

import (
	"context"
	"sync"
	"time"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
	"ETFAdvisor/internal/domain/service"
	"ETFAdvisor/internal/services/features"
	"ETFAdvisor/pkg/logger"
)

// trendBand is the distance from the long moving average, in percent,
// inside which the index counts as moving sideways.
const trendBand = 1.0

// MarketOverviewUseCase gathers the market-wide signals and classifies the regime.
type MarketOverviewUseCase struct {
	source      domrepo.MarketDataSource
	engine      service.Advisor
	metrics     domrepo.Metrics
	log         *logger.Logger
	indexSymbol string
	volSymbol   string
	macro       models.MacroLight
	timeout     time.Duration
	now         func() time.Time
}

func NewMarketOverviewUseCase(
	source domrepo.MarketDataSource,
	engine service.Advisor,
	metrics domrepo.Metrics,
	log *logger.Logger,
	indexSymbol, volSymbol string,
	macro models.MacroLight,
	timeout time.Duration,
) *MarketOverviewUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MarketOverviewUseCase{
		source:      source,
		engine:      engine,
		metrics:     metrics,
		log:         log.With(logger.String("usecase", "market_overview")),
		indexSymbol: indexSymbol,
		volSymbol:   volSymbol,
		macro:       macro,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Signals fetches the index and the volatility index concurrently. A signal
// that cannot be loaded is left nil and the classifier substitutes its default.
func (uc *MarketOverviewUseCase) Signals(ctx context.Context) models.MarketSignals {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	signals := models.MarketSignals{Macro: uc.macro}
	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(1)
	go func() {
		defer wg.Done()
		s, err := uc.source.FetchSeries(ctx, uc.indexSymbol, domrepo.Range3mo)
		if err != nil {
			uc.degraded("index", err)
			return
		}
		ind, err := uc.engine.ComputeIndicators(s)
		if err != nil {
			uc.degraded("index", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		rsi, level := ind.RSI, ind.LastClose
		signals.IndexRSI = &rsi
		signals.IndexLevel = &level
		signals.IndexTrend = trendOf(ind)
		closes := s.Tail(2).Closes()
		if chg, ok := features.ChangePct(closes); ok {
			signals.IndexChangePc = &chg
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s, err := uc.source.FetchSeries(ctx, uc.volSymbol, domrepo.Range5d)
		if err != nil {
			uc.degraded("volatility", err)
			return
		}
		last, ok := s.Last()
		if !ok || !last.Valid() {
			uc.degraded("volatility", models.ErrUnknownSymbol)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		v := last.Close
		signals.Volatility = &v
	}()

	wg.Wait()
	return signals
}

// Overview classifies the current market.
func (uc *MarketOverviewUseCase) Overview(ctx context.Context) models.MarketOverview {
	start := time.Now()
	signals := uc.Signals(ctx)
	regime := uc.engine.ClassifyRegime(signals)
	if uc.metrics != nil {
		uc.metrics.RecordRegime(string(regime.Strategy), regime.InvestmentRatio)
		uc.metrics.RecordLatency("market_overview", time.Since(start).Seconds())
	}
	return models.MarketOverview{Signals: signals, Regime: regime, Timestamp: uc.now()}
}

func (uc *MarketOverviewUseCase) degraded(signal string, err error) {
	uc.log.Warn("market signal unavailable, using default",
		logger.String("signal", signal),
		logger.Error(err))
	if uc.metrics != nil {
		uc.metrics.RecordError("signal_" + signal)
	}
}

func trendOf(ind models.IndicatorSet) models.Trend {
	if ind.MALong <= 0 {
		return models.TrendSideways
	}
	gap := (ind.LastClose - ind.MALong) / ind.MALong * 100
	switch {
	case gap > trendBand:
		return models.TrendUp
	case gap < -trendBand:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}
