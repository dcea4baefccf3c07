package analytics

import (
	"math"
	"sort"
	"strings"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/domain/service"
)

// Option configures Engine.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithIndicatorWindows sets the moving average, RSI and percentile windows.
func WithIndicatorWindows(short, long, rsi, lookback int) Option {
	return func(c *Config) {
		c.ShortWindow = short
		c.LongWindow = long
		c.RSIWindow = rsi
		c.PercentileLookback = lookback
	}
}

// WithWeights sets the sub-score weights.
func WithWeights(w Weights) Option {
	return func(c *Config) { c.Weights = w }
}

// WithAllocationLimits sets the qualifying score, concentration cap and lot size.
func WithAllocationLimits(minScore, concentrationCap float64, lotSize int64) Option {
	return func(c *Config) {
		c.MinScore = minScore
		c.ConcentrationCap = concentrationCap
		c.LotSize = lotSize
	}
}

// WithRatioBounds sets the investment ratio floor and ceiling.
func WithRatioBounds(floor, ceiling float64) Option {
	return func(c *Config) {
		c.RatioFloor = floor
		c.RatioCeiling = ceiling
	}
}

// WithSignalDefaults sets the values used when a market signal is unavailable.
func WithSignalDefaults(volatility, momentum float64, macro models.MacroLight) Option {
	return func(c *Config) {
		c.DefaultVolatility = volatility
		c.DefaultMomentum = momentum
		if macro != models.MacroUnknown {
			c.DefaultMacro = macro
		}
	}
}

// WithAlertThresholds sets the alert trigger thresholds.
func WithAlertThresholds(capTolerance, redFraction, volatilitySpike, overheatedRSI float64, minDiversification int) Option {
	return func(c *Config) {
		c.CapTolerance = capTolerance
		c.RedFraction = redFraction
		c.VolatilitySpike = volatilitySpike
		c.OverheatedRSI = overheatedRSI
		c.MinDiversification = minDiversification
	}
}

// WithRiskLimits sets the breadth, valuation, category and volatility alert thresholds.
func WithRiskLimits(greenHigh, greenMedium, highBand, maxCategory, maxVolatility float64) Option {
	return func(c *Config) {
		c.GreenFractionHigh = greenHigh
		c.GreenFractionMedium = greenMedium
		c.HighBandFraction = highBand
		c.MaxCategoryExposure = maxCategory
		c.MaxPortfolioVolatility = maxVolatility
	}
}

// Engine scores instruments, classifies the market and builds allocations.
// It holds only read-only configuration and is safe for concurrent use.
type Engine struct {
	cfg Config
}

var _ service.Advisor = (*Engine)(nil)

// NewEngine creates an engine from DefaultConfig adjusted by opts.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Evaluate runs the full pipeline for one request. Candidates whose history
// cannot support the indicators are reported as skipped; a non-positive cash
// amount aborts the evaluation with InvalidBudgetError.
func (e *Engine) Evaluate(in models.EvaluationInput) (models.RecommendationResult, error) {
	if !finite(in.Cash) || in.Cash <= 0 {
		return models.RecommendationResult{}, &models.InvalidBudgetError{Cash: in.Cash}
	}

	tolerance := normalizeTolerance(in.RiskTolerance)
	regime := e.ClassifyRegime(in.Signals)
	regime, capFrac := e.applyTolerance(regime, tolerance)

	skipped := make([]models.SkippedInstrument, 0, len(in.Skipped))
	skipped = append(skipped, in.Skipped...)

	scores := make([]models.InstrumentScore, 0, len(in.Candidates))
	candidates := make([]models.Candidate, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		series := c.Series
		series.Symbol = c.Instrument.Symbol
		ind, err := e.ComputeIndicators(series)
		if err != nil {
			skipped = append(skipped, models.SkippedInstrument{Symbol: c.Instrument.Symbol, Reason: err.Error()})
			continue
		}
		s := e.ScoreInstrument(ind, c.Instrument)
		scores = append(scores, s)
		candidates = append(candidates, models.Candidate{Score: s, Price: ind.LastClose})
	}
	sortScores(scores)
	sort.SliceStable(skipped, func(i, j int) bool { return skipped[i].Symbol < skipped[j].Symbol })

	alloc, err := e.buildAllocation(in.Cash, candidates, regime, in.TargetCount, capFrac)
	if err != nil {
		return models.RecommendationResult{}, err
	}
	alerts := e.generateAlerts(scores, regime, alloc, in.Cash, capFrac)

	summary := models.Summary{
		Scored:   len(scores),
		Skipped:  len(skipped),
		Selected: len(alloc.Positions),
	}
	for _, c := range candidates {
		summary.Ratings.Add(c.Score.Rating)
		if e.qualifies(c) {
			summary.Qualifying++
		}
	}

	return models.RecommendationResult{
		Cash:          in.Cash,
		RiskTolerance: tolerance,
		Regime:        regime,
		Scores:        scores,
		Allocation:    alloc,
		Alerts:        alerts,
		Skipped:       skipped,
		Summary:       summary,
		Advice:        e.advise(regime, summary, alloc, alerts),
		Timestamp:     in.AsOf,
	}, nil
}

// applyTolerance scales the regime ratio and picks the concentration cap for a tolerance.
func (e *Engine) applyTolerance(r models.MarketRegime, t models.RiskTolerance) (models.MarketRegime, float64) {
	profile, ok := e.cfg.Tolerances[t]
	if !ok {
		return r, e.cfg.ConcentrationCap
	}
	if profile.RatioMultiplier > 0 {
		r.InvestmentRatio = clamp(r.InvestmentRatio*profile.RatioMultiplier, e.cfg.RatioFloor, e.cfg.RatioCeiling)
		r.InvestmentRatio = math.Round(r.InvestmentRatio*1e6) / 1e6
		r.AtFloor = r.InvestmentRatio <= e.cfg.RatioFloor+1e-9
	}
	capFrac := e.cfg.ConcentrationCap
	if profile.ConcentrationCap > 0 {
		capFrac = profile.ConcentrationCap
	}
	return r, capFrac
}

func normalizeTolerance(t models.RiskTolerance) models.RiskTolerance {
	switch models.RiskTolerance(strings.ToLower(string(t))) {
	case models.ToleranceLow, "conservative":
		return models.ToleranceLow
	case models.ToleranceHigh, "aggressive":
		return models.ToleranceHigh
	default:
		return models.ToleranceMedium
	}
}

// sortScores orders by composite descending, then symbol ascending.
func sortScores(scores []models.InstrumentScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Symbol < scores[j].Symbol
	})
}
