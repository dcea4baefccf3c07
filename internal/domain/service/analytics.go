package service

import (
	"ETFAdvisor/internal/domain/models"
)

// IndicatorCalculator derives indicators from a price series.
type IndicatorCalculator interface {
	ComputeIndicators(series models.PriceSeries) (models.IndicatorSet, error)
}

// InstrumentScorer turns indicators and metadata into a composite score.
type InstrumentScorer interface {
	ScoreInstrument(ind models.IndicatorSet, meta models.Instrument) models.InstrumentScore
}

// RegimeClassifier maps market-wide signals to a regime. It never fails.
type RegimeClassifier interface {
	ClassifyRegime(signals models.MarketSignals) models.MarketRegime
}

// AllocationBuilder splits the investable cash across qualifying candidates.
type AllocationBuilder interface {
	BuildAllocation(cash float64, candidates []models.Candidate, regime models.MarketRegime, targetCount int) (models.Allocation, error)
}

// AlertGenerator scans an evaluation for conditions worth a warning.
type AlertGenerator interface {
	GenerateAlerts(scores []models.InstrumentScore, regime models.MarketRegime, alloc models.Allocation, cash float64) []models.RiskAlert
}

// Advisor is the full scoring and allocation engine.
type Advisor interface {
	IndicatorCalculator
	InstrumentScorer
	RegimeClassifier
	AllocationBuilder
	AlertGenerator
	Evaluate(in models.EvaluationInput) (models.RecommendationResult, error)
}
