package analytics

import (
	"fmt"
	"strings"

	"ETFAdvisor/internal/domain/models"
)

// subScoreOrder fixes iteration and tie-break order.
var subScoreOrder = []string{
	models.SubScoreTrend,
	models.SubScoreMomentum,
	models.SubScoreValuation,
	models.SubScoreLiquidity,
	models.SubScoreCost,
}

// ScoreInstrument combines the available sub-scores into a composite score.
// Missing sub-scores are left out and the remaining weights renormalised.
func (e *Engine) ScoreInstrument(ind models.IndicatorSet, meta models.Instrument) models.InstrumentScore {
	subs := e.subScores(ind, meta)

	var weighted, total float64
	for _, name := range subScoreOrder {
		v, ok := subs[name]
		if !ok {
			continue
		}
		w := e.cfg.Weights.of(name)
		weighted += w * v
		total += w
	}
	composite := 0.0
	if total > 0 {
		composite = round2(clampScore(weighted / total))
	}

	symbol := meta.Symbol
	if symbol == "" {
		symbol = ind.Symbol
	}
	rating := e.Rate(composite)
	rec := e.Recommend(composite)
	return models.InstrumentScore{
		Symbol:         symbol,
		Name:           meta.Name,
		Category:       meta.Category,
		Score:          composite,
		Rating:         rating,
		Recommendation: rec,
		SubScores:      subs,
		Reasoning:      reasoning(subs, ind, composite, rating, rec),
		Price:          ind.LastClose,
		Band:           ind.Band,
		Percentile:     round2(ind.Percentile),
		Volatility:     ind.Volatility,
	}
}

func (e *Engine) subScores(ind models.IndicatorSet, meta models.Instrument) map[string]float64 {
	subs := make(map[string]float64, len(subScoreOrder))
	if ind.MALong > 0 && finite(ind.MAShort) && ind.MAShort > 0 {
		gapPct := (ind.MAShort - ind.MALong) / ind.MALong * 100
		subs[models.SubScoreTrend] = round2(clampScore(50 + gapPct*e.cfg.TrendScale))
	}
	if finite(ind.RSI) {
		subs[models.SubScoreMomentum] = round2(clampScore(ind.RSI))
	}
	if finite(ind.Percentile) && ind.Band != "" {
		subs[models.SubScoreValuation] = round2(clampScore(100 - ind.Percentile))
	}
	if ind.AvgVolume != nil && *ind.AvgVolume > 0 && e.cfg.LiquidityFullVolume > 0 {
		subs[models.SubScoreLiquidity] = round2(clampScore(*ind.AvgVolume / e.cfg.LiquidityFullVolume * 100))
	}
	if meta.ExpenseRatio != nil && finite(*meta.ExpenseRatio) && *meta.ExpenseRatio >= 0 && e.cfg.CostWorst > e.cfg.CostBest {
		er := *meta.ExpenseRatio
		subs[models.SubScoreCost] = round2(clampScore((e.cfg.CostWorst - er) / (e.cfg.CostWorst - e.cfg.CostBest) * 100))
	}
	return subs
}

// Rate maps a composite score to a rating. Higher scores never rate lower.
func (e *Engine) Rate(score float64) models.Rating {
	c := e.cfg.RatingCutoffs
	switch {
	case score >= c[0]:
		return models.RatingGreen
	case score >= c[1]:
		return models.RatingYellow
	case score >= c[2]:
		return models.RatingOrange
	default:
		return models.RatingRed
	}
}

// Recommend maps a composite score to an action label.
func (e *Engine) Recommend(score float64) models.Recommendation {
	c := e.cfg.RecommendCutoffs
	switch {
	case score >= c[0]:
		return models.RecommendStrongBuy
	case score >= c[1]:
		return models.RecommendBuy
	case score >= c[2]:
		return models.RecommendHold
	default:
		return models.RecommendSell
	}
}

func reasoning(subs map[string]float64, ind models.IndicatorSet, composite float64, rating models.Rating, rec models.Recommendation) string {
	dominant, best := "", -1.0
	for _, name := range subScoreOrder {
		if v, ok := subs[name]; ok && v > best {
			dominant, best = name, v
		}
	}
	if dominant == "" {
		return fmt.Sprintf("no sub-score available; composite %.1f rates %s (%s)", composite, rating, rec)
	}
	band := strings.ReplaceAll(string(ind.Band), "_", " ")
	if band == "" {
		band = "unknown"
	}
	return fmt.Sprintf("%s is the strongest factor (%.1f); price is in the %s band at the %.0fth percentile; composite %.1f rates %s (%s)",
		dominant, best, band, ind.Percentile, composite, rating, rec)
}
