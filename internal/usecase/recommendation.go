package usecase

import (
	"context"
	"math"
	"time"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
	"ETFAdvisor/internal/domain/service"
	svcmetrics "ETFAdvisor/internal/service/metrics"
	"ETFAdvisor/pkg/logger"
)

const (
	EventRecommendationGenerated = "recommendation.generated"

	QuickCash = 100000
	QuickTop  = 5
)

// RecommendParams are the inputs of one recommendation.
type RecommendParams struct {
	Cash          float64
	Top           int
	RiskTolerance string
	// Symbols restricts the universe. Empty means every tracked instrument.
	Symbols []string
}

// RecommendationUseCase loads history for the universe and runs the engine.
type RecommendationUseCase struct {
	universe domrepo.Universe
	source   domrepo.MarketDataSource
	engine   service.Advisor
	overview *MarketOverviewUseCase
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	log      *logger.Logger
	fetch    FetchConfig
	now      func() time.Time
}

func NewRecommendationUseCase(
	universe domrepo.Universe,
	source domrepo.MarketDataSource,
	engine service.Advisor,
	overview *MarketOverviewUseCase,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	fetch FetchConfig,
) *RecommendationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RecommendationUseCase{
		universe: universe,
		source:   source,
		engine:   engine,
		overview: overview,
		events:   events,
		metrics:  metrics,
		log:      log.With(logger.String("usecase", "recommendation")),
		fetch:    fetch.withDefaults(),
		now:      time.Now,
	}
}

// Recommend scores the requested universe and builds an allocation for p.Cash.
// A non-positive cash amount fails before any data is fetched.
func (uc *RecommendationUseCase) Recommend(ctx context.Context, p RecommendParams) (models.RecommendationResult, error) {
	if math.IsNaN(p.Cash) || math.IsInf(p.Cash, 0) || p.Cash <= 0 {
		return models.RecommendationResult{}, &models.InvalidBudgetError{Cash: p.Cash}
	}
	instruments, err := uc.universe.Filter(p.Symbols)
	if err != nil {
		return models.RecommendationResult{}, err
	}

	start := time.Now()
	signals := uc.overview.Signals(ctx)
	candidates, skipped := fetchAll(ctx, uc.source, instruments, uc.fetch)
	for _, s := range skipped {
		svcmetrics.SkippedInstruments.WithLabelValues(s.Symbol).Inc()
		uc.log.Warn("instrument skipped", logger.String("symbol", s.Symbol), logger.String("reason", s.Reason))
	}

	result, err := uc.engine.Evaluate(models.EvaluationInput{
		Cash:          p.Cash,
		TargetCount:   p.Top,
		RiskTolerance: models.RiskTolerance(p.RiskTolerance),
		Signals:       signals,
		Candidates:    candidates,
		Skipped:       skipped,
		AsOf:          uc.now(),
	})
	if err != nil {
		return models.RecommendationResult{}, err
	}

	if uc.metrics != nil {
		uc.metrics.RecordRegime(string(result.Regime.Strategy), result.Regime.InvestmentRatio)
		uc.metrics.RecordLatency("recommend", time.Since(start).Seconds())
		for _, s := range result.Scores {
			uc.metrics.RecordLastPrice(s.Symbol, s.Price)
		}
	}
	uc.log.Info("recommendation generated",
		logger.Float64("cash", p.Cash),
		logger.String("strategy", string(result.Regime.Strategy)),
		logger.Int("scored", result.Summary.Scored),
		logger.Int("selected", result.Summary.Selected),
		logger.Int("alerts", len(result.Alerts)),
		logger.Duration("duration_ms", time.Since(start)))

	uc.publish(ctx, result)
	return result, nil
}

// Quick is Recommend with the default cash and position count.
func (uc *RecommendationUseCase) Quick(ctx context.Context, riskTolerance string) (models.RecommendationResult, error) {
	return uc.Recommend(ctx, RecommendParams{Cash: QuickCash, Top: QuickTop, RiskTolerance: riskTolerance})
}

type recommendationEvent struct {
	Cash          float64                    `json:"cash"`
	RiskTolerance models.RiskTolerance       `json:"risk_tolerance"`
	Strategy      models.Strategy            `json:"strategy"`
	Ratio         float64                    `json:"investment_ratio"`
	Positions     []models.Position          `json:"positions"`
	Alerts        int                        `json:"alerts"`
	Summary       models.Summary             `json:"summary"`
	Skipped       []models.SkippedInstrument `json:"skipped,omitempty"`
}

// publish is best effort; a failed publish never fails the recommendation.
func (uc *RecommendationUseCase) publish(ctx context.Context, r models.RecommendationResult) {
	if uc.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	err := uc.events.PublishEvent(ctx, EventRecommendationGenerated, string(r.RiskTolerance), recommendationEvent{
		Cash:          r.Cash,
		RiskTolerance: r.RiskTolerance,
		Strategy:      r.Regime.Strategy,
		Ratio:         r.Regime.InvestmentRatio,
		Positions:     r.Allocation.Positions,
		Alerts:        len(r.Alerts),
		Summary:       r.Summary,
		Skipped:       r.Skipped,
	})
	if err != nil {
		uc.log.Warn("publish recommendation event failed", logger.Error(err))
		if uc.metrics != nil {
			uc.metrics.RecordError("publish_event")
		}
	}
}
