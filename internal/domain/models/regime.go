package models

import "strings"

// MacroLight is the Taiwan business-cycle monitoring light.
type MacroLight string

const (
	MacroUnknown    MacroLight = ""
	MacroBlue       MacroLight = "blue"
	MacroYellowBlue MacroLight = "yellow_blue"
	MacroGreen      MacroLight = "green"
	MacroYellowRed  MacroLight = "yellow_red"
	MacroRed        MacroLight = "red"
)

// ParseMacroLight normalises user or config input. Unknown values map to MacroUnknown.
func ParseMacroLight(s string) MacroLight {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "-", "_")
	switch MacroLight(v) {
	case MacroBlue, MacroYellowBlue, MacroGreen, MacroYellowRed, MacroRed:
		return MacroLight(v)
	default:
		return MacroUnknown
	}
}

// Strategy is the deployment stance chosen for a regime.
type Strategy string

const (
	StrategyDefensive    Strategy = "defensive"
	StrategyConservative Strategy = "conservative"
	StrategyBalanced     Strategy = "balanced"
	StrategyGrowth       Strategy = "growth"
	StrategyAggressive   Strategy = "aggressive"
)

// Trend of the broad index relative to its moving average.
type Trend string

const (
	TrendUp       Trend = "up"
	TrendSideways Trend = "sideways"
	TrendDown     Trend = "down"
)

// MarketSignals are the raw market-wide inputs. Nil means unavailable.
type MarketSignals struct {
	Volatility    *float64   `json:"volatility,omitempty"`
	IndexRSI      *float64   `json:"index_rsi,omitempty"`
	Macro         MacroLight `json:"macro,omitempty"`
	IndexTrend    Trend      `json:"index_trend,omitempty"`
	IndexLevel    *float64   `json:"index_level,omitempty"`
	IndexChangePc *float64   `json:"index_change_pct,omitempty"`
}

// MarketRegime is the classified market condition.
type MarketRegime struct {
	Volatility      float64    `json:"volatility"`
	Momentum        float64    `json:"momentum"`
	Macro           MacroLight `json:"macro"`
	VolatilityScore float64    `json:"volatility_score"`
	MomentumScore   float64    `json:"momentum_score"`
	MacroScore      float64    `json:"macro_score"`
	Score           float64    `json:"score"`
	Strategy        Strategy   `json:"strategy"`
	InvestmentRatio float64    `json:"investment_ratio"`
	AtFloor         bool       `json:"at_floor"`
	// Defaulted lists the inputs that were unavailable and replaced.
	Defaulted []string `json:"defaulted,omitempty"`
}
