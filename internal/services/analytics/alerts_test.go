package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
)

func calmRegime() models.MarketRegime {
	return models.MarketRegime{Volatility: 18, Momentum: 55, Strategy: models.StrategyBalanced, InvestmentRatio: 0.6}
}

func scored(symbol string, rating models.Rating) models.InstrumentScore {
	return models.InstrumentScore{Symbol: symbol, Rating: rating}
}

func kinds(alerts []models.RiskAlert) []models.AlertKind {
	out := make([]models.AlertKind, len(alerts))
	for i, a := range alerts {
		out[i] = a.Kind
	}
	return out
}

func TestGenerateAlertsCalmMarket(t *testing.T) {
	e := newTestEngine(t)
	alloc := models.Allocation{
		ConcentrationCap: 0.35,
		Positions: []models.Position{
			{Symbol: "0050", Weight: 0.335, Band: models.BandFair},
			{Symbol: "0056", Weight: 0.335, Band: models.BandBelowAverage},
			{Symbol: "00878", Weight: 0.33, Band: models.BandFair},
		},
	}
	alerts := e.GenerateAlerts([]models.InstrumentScore{scored("0050", models.RatingGreen)}, calmRegime(), alloc, 100000)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestGenerateAlertsOrder(t *testing.T) {
	e := newTestEngine(t)
	regime := models.MarketRegime{
		Volatility:      40,
		Momentum:        80,
		Strategy:        models.StrategyDefensive,
		InvestmentRatio: 0.2,
		AtFloor:         true,
	}
	scores := []models.InstrumentScore{
		scored("A", models.RatingRed),
		scored("B", models.RatingRed),
		scored("C", models.RatingYellow),
	}
	alloc := models.Allocation{
		ConcentrationCap: 0.35,
		Positions: []models.Position{
			{Symbol: "C", Weight: 1, Band: models.BandExpensive},
		},
	}

	alerts := e.GenerateAlerts(scores, regime, alloc, 100000)

	assert.Equal(t, []models.AlertKind{
		models.AlertRatioFloor,
		models.AlertMarketQuality,
		models.AlertMarketBreadth,
		models.AlertVolatilitySpike,
		models.AlertOverheated,
		models.AlertDiversification,
		models.AlertConcentration,
		models.AlertValuation,
	}, kinds(alerts))

	assert.Equal(t, models.MarketWideSymbol, alerts[0].Symbol)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, models.SeverityHigh, alerts[1].Severity)
	assert.Equal(t, models.SeverityHigh, alerts[2].Severity)
	assert.Equal(t, models.SeverityMedium, alerts[4].Severity)
	assert.Equal(t, models.SeverityLow, alerts[5].Severity)
	assert.Equal(t, "C", alerts[6].Symbol)
	assert.Equal(t, models.SeverityHigh, alerts[6].Severity)
	assert.Equal(t, models.SeverityMedium, alerts[7].Severity)
	for _, a := range alerts {
		assert.NotEmpty(t, a.Message)
		assert.NotEmpty(t, a.Action)
	}
}

func TestGenerateAlertsRedFractionThreshold(t *testing.T) {
	e := newTestEngine(t)
	// exactly 30% red does not exceed the threshold
	scores := make([]models.InstrumentScore, 0, 10)
	for i := 0; i < 10; i++ {
		r := models.RatingYellow
		switch {
		case i < 3:
			r = models.RatingRed
		case i >= 8:
			r = models.RatingGreen
		}
		scores = append(scores, scored(string(rune('A'+i)), r))
	}
	alerts := e.GenerateAlerts(scores, calmRegime(), models.Allocation{}, 100000)
	assert.Empty(t, alerts)

	scores[3].Rating = models.RatingRed
	alerts = e.GenerateAlerts(scores, calmRegime(), models.Allocation{}, 100000)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertMarketQuality, alerts[0].Kind)
}

func TestGenerateAlertsUsesAllocationCap(t *testing.T) {
	e := newTestEngine(t)
	positions := []models.Position{
		{Symbol: "A", Weight: 0.38},
		{Symbol: "B", Weight: 0.31},
		{Symbol: "C", Weight: 0.31},
	}

	alerts := e.GenerateAlerts(nil, calmRegime(), models.Allocation{Positions: positions, ConcentrationCap: 0.35}, 100000)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertConcentration, alerts[0].Kind)
	assert.Equal(t, "A", alerts[0].Symbol)

	alerts = e.GenerateAlerts(nil, calmRegime(), models.Allocation{Positions: positions, ConcentrationCap: 0.40}, 100000)
	assert.Empty(t, alerts)
}

func TestGenerateAlertsConcentrationAllowsLotRounding(t *testing.T) {
	e := newTestEngine(t)
	alloc := models.Allocation{
		ConcentrationCap: 0.5,
		Positions: []models.Position{
			{Symbol: "A", Weight: 0.4993},
			{Symbol: "B", Weight: 0.5007},
		},
	}
	// zero cash skips the diversification check
	assert.Empty(t, e.GenerateAlerts(nil, calmRegime(), alloc, 0))

	alloc.Positions[1].Weight = 0.52
	alerts := e.GenerateAlerts(nil, calmRegime(), alloc, 0)
	require.Len(t, alerts, 1)
	assert.Equal(t, "B", alerts[0].Symbol)
}

func TestGenerateAlertsMarketBreadth(t *testing.T) {
	e := newTestEngine(t)
	scores := make([]models.InstrumentScore, 10)
	for i := range scores {
		scores[i] = scored(string(rune('A'+i)), models.RatingYellow)
	}

	alerts := e.GenerateAlerts(scores, calmRegime(), models.Allocation{}, 100000)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertMarketBreadth, alerts[0].Kind)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)

	scores[0].Rating = models.RatingGreen
	alerts = e.GenerateAlerts(scores, calmRegime(), models.Allocation{}, 100000)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityMedium, alerts[0].Severity)

	scores[1].Rating = models.RatingGreen
	assert.Empty(t, e.GenerateAlerts(scores, calmRegime(), models.Allocation{}, 100000))
}

func TestGenerateAlertsBroadValuation(t *testing.T) {
	e := newTestEngine(t)
	bands := []models.PriceBand{
		models.BandExpensive, models.BandExpensive, models.BandAboveAverage,
		models.BandFair, models.BandDeepValue,
	}
	scores := make([]models.InstrumentScore, len(bands))
	for i, b := range bands {
		scores[i] = models.InstrumentScore{Symbol: string(rune('A' + i)), Rating: models.RatingGreen, Band: b}
	}
	// three of five is not more than 60%
	assert.Empty(t, e.GenerateAlerts(scores, calmRegime(), models.Allocation{}, 100000))

	scores[3].Band = models.BandAboveAverage
	alerts := e.GenerateAlerts(scores, calmRegime(), models.Allocation{}, 100000)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertBroadValuation, alerts[0].Kind)
	assert.Equal(t, models.SeverityMedium, alerts[0].Severity)
	assert.Equal(t, models.MarketWideSymbol, alerts[0].Symbol)
}

func TestGenerateAlertsCategoryExposure(t *testing.T) {
	e := newTestEngine(t)
	alloc := models.Allocation{
		ConcentrationCap: 0.35,
		Positions: []models.Position{
			{Symbol: "0056", Category: "dividend", Weight: 0.34},
			{Symbol: "00878", Category: "dividend", Weight: 0.33},
			{Symbol: "0050", Category: "market_cap", Weight: 0.33},
		},
	}
	alerts := e.GenerateAlerts(nil, calmRegime(), alloc, 100000)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertCategoryExposure, alerts[0].Kind)
	assert.Equal(t, models.PortfolioWideSymbol, alerts[0].Symbol)
	assert.Contains(t, alerts[0].Message, "dividend")

	alloc.Positions[1].Category = "technology"
	assert.Empty(t, e.GenerateAlerts(nil, calmRegime(), alloc, 100000))
}

func TestGenerateAlertsPortfolioVolatility(t *testing.T) {
	e := newTestEngine(t)
	alloc := models.Allocation{
		ConcentrationCap: 0.35,
		Positions: []models.Position{
			{Symbol: "00892", Weight: 0.34, Volatility: 0.40},
			{Symbol: "0052", Weight: 0.33, Volatility: 0.30},
			{Symbol: "0056", Weight: 0.33, Volatility: 0.12},
		},
	}
	alerts := e.GenerateAlerts(nil, calmRegime(), alloc, 100000)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertPortfolioVolatility, alerts[0].Kind)
	assert.Equal(t, models.SeverityMedium, alerts[0].Severity)

	alloc.Positions[0].Volatility = 0.15
	assert.Empty(t, e.GenerateAlerts(nil, calmRegime(), alloc, 100000))

	// unknown volatility is left out rather than counted as zero
	alloc.Positions[0].Volatility = 0
	alloc.Positions[1].Volatility = 0.30
	alloc.Positions[2].Volatility = 0
	alerts = e.GenerateAlerts(nil, calmRegime(), alloc, 100000)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertPortfolioVolatility, alerts[0].Kind)
}
