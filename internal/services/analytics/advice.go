package analytics

import (
	"fmt"

	"ETFAdvisor/internal/domain/models"
)

var outlooks = map[models.Strategy]string{
	models.StrategyAggressive:   "market conditions are strong",
	models.StrategyGrowth:       "market conditions favour growth",
	models.StrategyBalanced:     "market conditions are mixed",
	models.StrategyConservative: "market conditions are weak",
	models.StrategyDefensive:    "market conditions are poor",
}

func (e *Engine) advise(regime models.MarketRegime, summary models.Summary, alloc models.Allocation, alerts []models.RiskAlert) models.Advice {
	outlook, ok := outlooks[regime.Strategy]
	if !ok {
		outlook = "market conditions are unclear"
	}
	outlook = fmt.Sprintf("%s (score %.1f, %s strategy)", outlook, regime.Score, regime.Strategy)

	action := "no instrument qualifies today; keep the cash"
	if len(alloc.Positions) > 0 {
		action = fmt.Sprintf("invest %.0f across %d instrument(s) and keep %.0f in cash",
			alloc.AmountAllocated, len(alloc.Positions), alloc.RemainingCash)
	}

	tips := []string{fmt.Sprintf("deploy about %.0f%% of available cash", regime.InvestmentRatio*100)}
	if summary.Ratings.Green > 0 {
		tips = append(tips, fmt.Sprintf("%d instrument(s) are rated green", summary.Ratings.Green))
	}
	if summary.Skipped > 0 {
		tips = append(tips, fmt.Sprintf("%d instrument(s) were skipped for missing data", summary.Skipped))
	}
	switch regime.Strategy {
	case models.StrategyDefensive, models.StrategyConservative:
		tips = append(tips, "favour high-dividend and broad-market funds")
	case models.StrategyAggressive, models.StrategyGrowth:
		tips = append(tips, "rebalance if any single position drifts above the cap")
	default:
		tips = append(tips, "use regular fixed-amount purchases")
	}

	level := models.SeverityLow
	switch {
	case len(alerts) > 2:
		level = models.SeverityHigh
	case len(alerts) > 0:
		level = models.SeverityMedium
	}

	return models.Advice{
		Outlook:   outlook,
		Action:    action,
		Tips:      tips,
		RiskLevel: level,
	}
}
