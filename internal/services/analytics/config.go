package analytics

import (
	"fmt"
	"math"
	"sort"

	"ETFAdvisor/internal/domain/models"
)

// Breakpoint is one (input, score) knot of a piecewise-linear table.
type Breakpoint struct {
	X float64
	Y float64
}

// StrategyBand maps composite market scores at or above MinScore to a stance.
type StrategyBand struct {
	MinScore float64
	Strategy models.Strategy
	Ratio    float64
}

// Weights of the instrument sub-scores. They are renormalised over the
// sub-scores that are available for an instrument.
type Weights struct {
	Trend     float64
	Momentum  float64
	Valuation float64
	Liquidity float64
	Cost      float64
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Trend + w.Momentum + w.Valuation + w.Liquidity + w.Cost
}

func (w Weights) of(name string) float64 {
	switch name {
	case models.SubScoreTrend:
		return w.Trend
	case models.SubScoreMomentum:
		return w.Momentum
	case models.SubScoreValuation:
		return w.Valuation
	case models.SubScoreLiquidity:
		return w.Liquidity
	case models.SubScoreCost:
		return w.Cost
	default:
		return 0
	}
}

// RegimeWeights of the three market contributions.
type RegimeWeights struct {
	Volatility float64
	Momentum   float64
	Macro      float64
}

// ToleranceProfile adjusts a regime for a user's risk tolerance.
type ToleranceProfile struct {
	RatioMultiplier  float64
	ConcentrationCap float64
}

// Config holds every threshold the engine uses. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// Indicators
	ShortWindow        int
	LongWindow         int
	RSIWindow          int
	PercentileLookback int
	// BandBounds are the upper percentile bounds of the first four bands.
	BandBounds [4]float64

	// Scoring
	Weights             Weights
	TrendScale          float64
	LiquidityFullVolume float64
	CostBest            float64
	CostWorst           float64
	// RatingCutoffs are the minimum scores for green, yellow and orange.
	RatingCutoffs [3]float64
	// RecommendCutoffs are the minimum scores for strong_buy, buy and hold.
	RecommendCutoffs [3]float64

	// Regime
	VolatilityBreakpoints []Breakpoint
	MomentumBreakpoints   []Breakpoint
	MacroScores           map[models.MacroLight]float64
	RegimeWeights         RegimeWeights
	StrategyBands         []StrategyBand
	RatioFloor            float64
	RatioCeiling          float64
	DefaultVolatility     float64
	DefaultMomentum       float64
	DefaultMacro          models.MacroLight

	// Allocation
	MinScore         float64
	ConcentrationCap float64
	LotSize          int64

	// Alerts
	CapTolerance       float64
	RedFraction        float64
	VolatilitySpike    float64
	OverheatedRSI      float64
	MinDiversification int
	// GreenFractionHigh and GreenFractionMedium are the green-rated shares of
	// the scored universe below which breadth alerts fire.
	GreenFractionHigh   float64
	GreenFractionMedium float64
	// HighBandFraction is the share of scored instruments in the upper two
	// price bands above which a broad valuation alert fires.
	HighBandFraction       float64
	MaxCategoryExposure    float64
	MaxPortfolioVolatility float64

	Tolerances map[models.RiskTolerance]ToleranceProfile
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ShortWindow:        5,
		LongWindow:         20,
		RSIWindow:          14,
		PercentileLookback: 250,
		BandBounds:         [4]float64{20, 40, 60, 80},

		Weights:             Weights{Trend: 0.30, Momentum: 0.25, Valuation: 0.30, Liquidity: 0.10, Cost: 0.05},
		TrendScale:          10,
		LiquidityFullVolume: 10_000_000,
		CostBest:            0.002,
		CostWorst:           0.010,
		RatingCutoffs:       [3]float64{75, 55, 35},
		RecommendCutoffs:    [3]float64{80, 60, 40},

		VolatilityBreakpoints: []Breakpoint{{X: 15, Y: 80}, {X: 30, Y: 20}},
		MomentumBreakpoints:   []Breakpoint{{X: 30, Y: 20}, {X: 70, Y: 80}},
		MacroScores: map[models.MacroLight]float64{
			models.MacroBlue:       80,
			models.MacroYellowBlue: 65,
			models.MacroGreen:      50,
			models.MacroYellowRed:  35,
			models.MacroRed:        20,
		},
		RegimeWeights: RegimeWeights{Volatility: 0.3, Momentum: 0.4, Macro: 0.3},
		StrategyBands: []StrategyBand{
			{MinScore: 80, Strategy: models.StrategyAggressive, Ratio: 0.9},
			{MinScore: 65, Strategy: models.StrategyGrowth, Ratio: 0.8},
			{MinScore: 35, Strategy: models.StrategyBalanced, Ratio: 0.6},
			{MinScore: 25, Strategy: models.StrategyConservative, Ratio: 0.4},
			{MinScore: math.Inf(-1), Strategy: models.StrategyDefensive, Ratio: 0.2},
		},
		RatioFloor:        0.2,
		RatioCeiling:      0.9,
		DefaultVolatility: 20,
		DefaultMomentum:   50,
		DefaultMacro:      models.MacroGreen,

		MinScore:         50,
		ConcentrationCap: 0.35,
		LotSize:          1,

		CapTolerance:       0.01,
		RedFraction:        0.3,
		VolatilitySpike:    35,
		OverheatedRSI:      75,
		MinDiversification: 3,

		GreenFractionHigh:      0.10,
		GreenFractionMedium:    0.20,
		HighBandFraction:       0.60,
		MaxCategoryExposure:    0.50,
		MaxPortfolioVolatility: 0.25,

		Tolerances: map[models.RiskTolerance]ToleranceProfile{
			models.ToleranceLow:    {RatioMultiplier: 0.8, ConcentrationCap: 0.30},
			models.ToleranceMedium: {RatioMultiplier: 1.0, ConcentrationCap: 0.35},
			models.ToleranceHigh:   {RatioMultiplier: 1.2, ConcentrationCap: 0.40},
		},
	}
}

// Validate checks the invariants the engine relies on.
func (c Config) Validate() error {
	if c.ShortWindow <= 0 || c.LongWindow <= 0 || c.RSIWindow <= 0 {
		return fmt.Errorf("indicator windows must be positive")
	}
	if c.ShortWindow > c.LongWindow {
		return fmt.Errorf("short window %d exceeds long window %d", c.ShortWindow, c.LongWindow)
	}
	if math.Abs(c.Weights.Sum()-1) > 1e-6 {
		return fmt.Errorf("score weights must sum to 1, got %.4f", c.Weights.Sum())
	}
	for i := 1; i < len(c.BandBounds); i++ {
		if c.BandBounds[i] <= c.BandBounds[i-1] {
			return fmt.Errorf("band bounds must be increasing")
		}
	}
	if c.RatingCutoffs[0] < c.RatingCutoffs[1] || c.RatingCutoffs[1] < c.RatingCutoffs[2] {
		return fmt.Errorf("rating cutoffs must be non-increasing")
	}
	if c.RecommendCutoffs[0] < c.RecommendCutoffs[1] || c.RecommendCutoffs[1] < c.RecommendCutoffs[2] {
		return fmt.Errorf("recommendation cutoffs must be non-increasing")
	}
	if c.RatioFloor < 0 || c.RatioCeiling > 1 || c.RatioFloor >= c.RatioCeiling {
		return fmt.Errorf("ratio bounds must satisfy 0 <= floor < ceiling <= 1")
	}
	if c.ConcentrationCap <= 0 || c.ConcentrationCap > 1 {
		return fmt.Errorf("concentration cap must be in (0, 1]")
	}
	if c.GreenFractionHigh > c.GreenFractionMedium {
		return fmt.Errorf("green fraction thresholds must satisfy high <= medium")
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("lot size must be positive")
	}
	if len(c.StrategyBands) == 0 {
		return fmt.Errorf("at least one strategy band is required")
	}
	if !isSortedX(c.VolatilityBreakpoints) || !isSortedX(c.MomentumBreakpoints) {
		return fmt.Errorf("breakpoints must be sorted by input")
	}
	return nil
}

func (c Config) minObservations() int {
	need := c.LongWindow
	if c.ShortWindow > need {
		need = c.ShortWindow
	}
	if c.RSIWindow+1 > need {
		need = c.RSIWindow + 1
	}
	return need
}

func (c Config) sortedBands() []StrategyBand {
	bands := make([]StrategyBand, len(c.StrategyBands))
	copy(bands, c.StrategyBands)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].MinScore > bands[j].MinScore })
	return bands
}

func isSortedX(points []Breakpoint) bool {
	for i := 1; i < len(points); i++ {
		if points[i].X < points[i-1].X {
			return false
		}
	}
	return true
}

// interpolate evaluates a piecewise-linear table, flat beyond both ends.
func interpolate(points []Breakpoint, x float64) float64 {
	if len(points) == 0 {
		return 50
	}
	if x <= points[0].X {
		return points[0].Y
	}
	last := points[len(points)-1]
	if x >= last.X {
		return last.Y
	}
	for i := 1; i < len(points); i++ {
		lo, hi := points[i-1], points[i]
		if x <= hi.X {
			if hi.X == lo.X {
				return hi.Y
			}
			return lo.Y + (x-lo.X)*(hi.Y-lo.Y)/(hi.X-lo.X)
		}
	}
	return last.Y
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampScore(v float64) float64 { return clamp(v, 0, 100) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
