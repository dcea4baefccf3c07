package analytics

import (
	"fmt"

	"ETFAdvisor/internal/domain/models"
)

// GenerateAlerts checks an evaluation against the configured triggers using
// the engine's concentration cap.
func (e *Engine) GenerateAlerts(scores []models.InstrumentScore, regime models.MarketRegime, alloc models.Allocation, cash float64) []models.RiskAlert {
	capFrac := alloc.ConcentrationCap
	if capFrac <= 0 {
		capFrac = e.cfg.ConcentrationCap
	}
	return e.generateAlerts(scores, regime, alloc, cash, capFrac)
}

// generateAlerts emits market-wide alerts first, then allocation-wide alerts,
// then per-position alerts in position order. The order is stable for
// identical input.
func (e *Engine) generateAlerts(scores []models.InstrumentScore, regime models.MarketRegime, alloc models.Allocation, cash, capFrac float64) []models.RiskAlert {
	alerts := make([]models.RiskAlert, 0)
	add := func(symbol string, kind models.AlertKind, sev models.Severity, msg, action string) {
		alerts = append(alerts, models.RiskAlert{
			Symbol:   symbol,
			Kind:     kind,
			Severity: sev,
			Message:  msg,
			Action:   action,
		})
	}
	market := func(kind models.AlertKind, sev models.Severity, msg, action string) {
		add(models.MarketWideSymbol, kind, sev, msg, action)
	}
	portfolio := func(kind models.AlertKind, sev models.Severity, msg, action string) {
		add(models.PortfolioWideSymbol, kind, sev, msg, action)
	}

	if regime.AtFloor {
		market(models.AlertRatioFloor, models.SeverityHigh,
			fmt.Sprintf("market regime is %s; investment ratio held at the %.0f%% floor", regime.Strategy, regime.InvestmentRatio*100),
			"keep most cash in reserve and deploy in small tranches")
	}

	if n := len(scores); n > 0 {
		red, green, high := 0, 0, 0
		for _, s := range scores {
			switch s.Rating {
			case models.RatingRed:
				red++
			case models.RatingGreen:
				green++
			}
			if s.Band == models.BandAboveAverage || s.Band == models.BandExpensive {
				high++
			}
		}
		if frac := float64(red) / float64(n); frac > e.cfg.RedFraction {
			market(models.AlertMarketQuality, models.SeverityHigh,
				fmt.Sprintf("%d of %d tracked instruments are rated red", red, n),
				"broad weakness across the universe; reduce new exposure")
		}
		greenFrac := float64(green) / float64(n)
		switch {
		case greenFrac < e.cfg.GreenFractionHigh:
			market(models.AlertMarketBreadth, models.SeverityHigh,
				fmt.Sprintf("only %d of %d tracked instruments are rated green", green, n),
				"the market is weak overall; invest cautiously")
		case greenFrac < e.cfg.GreenFractionMedium:
			market(models.AlertMarketBreadth, models.SeverityMedium,
				fmt.Sprintf("green-rated share is low at %.0f%%", greenFrac*100),
				"spread purchases across several instruments")
		}
		if float64(high) > float64(n)*e.cfg.HighBandFraction {
			market(models.AlertBroadValuation, models.SeverityMedium,
				fmt.Sprintf("%d of %d tracked instruments trade in the upper price bands", high, n),
				"wait for a pullback before adding")
		}
	}

	if regime.Volatility > e.cfg.VolatilitySpike {
		market(models.AlertVolatilitySpike, models.SeverityHigh,
			fmt.Sprintf("volatility index at %.1f is above %.0f", regime.Volatility, e.cfg.VolatilitySpike),
			"expect large swings; stagger entries")
	}

	if regime.Momentum > e.cfg.OverheatedRSI {
		market(models.AlertOverheated, models.SeverityMedium,
			fmt.Sprintf("index RSI at %.1f indicates an overheated market", regime.Momentum),
			"avoid chasing; wait for a pullback before adding")
	}

	if n := len(alloc.Positions); n > 0 && n < e.cfg.MinDiversification && cash > 0 {
		market(models.AlertDiversification, models.SeverityLow,
			fmt.Sprintf("allocation holds only %d instrument(s)", n),
			fmt.Sprintf("consider spreading across at least %d instruments", e.cfg.MinDiversification))
	}

	e.exposureAlerts(alloc.Positions, portfolio)

	limit := capFrac + e.cfg.CapTolerance
	for _, p := range alloc.Positions {
		if p.Weight > limit {
			alerts = append(alerts, models.RiskAlert{
				Symbol:   p.Symbol,
				Kind:     models.AlertConcentration,
				Severity: models.SeverityHigh,
				Message:  fmt.Sprintf("%s is %.1f%% of the allocation, above the %.0f%% cap", p.Symbol, p.Weight*100, capFrac*100),
				Action:   "trim the position or add more instruments",
			})
		}
		if p.Band == models.BandExpensive {
			alerts = append(alerts, models.RiskAlert{
				Symbol:   p.Symbol,
				Kind:     models.AlertValuation,
				Severity: models.SeverityMedium,
				Message:  fmt.Sprintf("%s trades in the expensive band of its one-year range", p.Symbol),
				Action:   "buy in installments or wait for a better price",
			})
		}
	}
	return alerts
}

// exposureAlerts checks category concentration and the value-weighted
// volatility of the positions. Positions without a category or a volatility
// are left out of the respective check.
func (e *Engine) exposureAlerts(positions []models.Position, emit func(models.AlertKind, models.Severity, string, string)) {
	var categories []string
	exposure := make(map[string]float64)
	volWeight, volSum := 0.0, 0.0
	for _, p := range positions {
		if p.Category != "" {
			if _, ok := exposure[p.Category]; !ok {
				categories = append(categories, p.Category)
			}
			exposure[p.Category] += p.Weight
		}
		if p.Volatility > 0 && p.Weight > 0 {
			volWeight += p.Weight
			volSum += p.Weight * p.Volatility
		}
	}

	for _, c := range categories {
		if exposure[c] > e.cfg.MaxCategoryExposure+e.cfg.CapTolerance {
			emit(models.AlertCategoryExposure, models.SeverityMedium,
				fmt.Sprintf("%s funds make up %.1f%% of the allocation, above the %.0f%% limit", c, exposure[c]*100, e.cfg.MaxCategoryExposure*100),
				"add instruments from other categories")
		}
	}

	if volWeight > 0 {
		if vol := volSum / volWeight; vol > e.cfg.MaxPortfolioVolatility {
			emit(models.AlertPortfolioVolatility, models.SeverityMedium,
				fmt.Sprintf("allocation volatility is %.1f%% a year, above the %.0f%% limit", vol*100, e.cfg.MaxPortfolioVolatility*100),
				"shift weight to lower-volatility funds")
		}
	}
}
