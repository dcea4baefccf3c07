package analytics

import (
	"math"

	"ETFAdvisor/internal/domain/models"
)

// Names reported in MarketRegime.Defaulted.
const (
	SignalVolatility = "volatility"
	SignalMomentum   = "momentum"
	SignalMacro      = "macro"
)

// ClassifyRegime maps market-wide signals to a strategy and investment ratio.
// Unavailable inputs are replaced by the configured defaults; it never fails.
func (e *Engine) ClassifyRegime(signals models.MarketSignals) models.MarketRegime {
	var defaulted []string

	vol := e.cfg.DefaultVolatility
	if signals.Volatility != nil && finite(*signals.Volatility) && *signals.Volatility >= 0 {
		vol = *signals.Volatility
	} else {
		defaulted = append(defaulted, SignalVolatility)
	}

	mom := e.cfg.DefaultMomentum
	if signals.IndexRSI != nil && finite(*signals.IndexRSI) {
		mom = clampScore(*signals.IndexRSI)
	} else {
		defaulted = append(defaulted, SignalMomentum)
	}

	macro := models.ParseMacroLight(string(signals.Macro))
	macroScore, ok := e.cfg.MacroScores[macro]
	if !ok {
		defaulted = append(defaulted, SignalMacro)
		macro = e.cfg.DefaultMacro
		macroScore, ok = e.cfg.MacroScores[macro]
		if !ok {
			macroScore = 50
		}
	}

	volScore := clampScore(interpolate(e.cfg.VolatilityBreakpoints, vol))
	momScore := clampScore(interpolate(e.cfg.MomentumBreakpoints, mom))

	w := e.cfg.RegimeWeights
	total := w.Volatility + w.Momentum + w.Macro
	composite := 50.0
	if total > 0 {
		composite = (w.Volatility*volScore + w.Momentum*momScore + w.Macro*macroScore) / total
	}
	composite = round2(composite)

	strategy, ratio := e.strategyFor(composite)
	ratio = clamp(ratio, e.cfg.RatioFloor, e.cfg.RatioCeiling)
	ratio = math.Round(ratio*1e6) / 1e6

	return models.MarketRegime{
		Volatility:      vol,
		Momentum:        mom,
		Macro:           macro,
		VolatilityScore: round2(volScore),
		MomentumScore:   round2(momScore),
		MacroScore:      macroScore,
		Score:           composite,
		Strategy:        strategy,
		InvestmentRatio: ratio,
		AtFloor:         ratio <= e.cfg.RatioFloor+1e-9,
		Defaulted:       defaulted,
	}
}

func (e *Engine) strategyFor(score float64) (models.Strategy, float64) {
	bands := e.cfg.sortedBands()
	for _, b := range bands {
		if score >= b.MinScore {
			return b.Strategy, b.Ratio
		}
	}
	last := bands[len(bands)-1]
	return last.Strategy, last.Ratio
}
