package models

// Severity of a risk alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AlertKind identifies the trigger that raised an alert.
type AlertKind string

const (
	AlertRatioFloor          AlertKind = "ratio_floor"
	AlertMarketQuality       AlertKind = "market_quality"
	AlertMarketBreadth       AlertKind = "market_breadth"
	AlertBroadValuation      AlertKind = "broad_valuation"
	AlertVolatilitySpike     AlertKind = "volatility_spike"
	AlertOverheated          AlertKind = "overheated"
	AlertDiversification     AlertKind = "diversification"
	AlertCategoryExposure    AlertKind = "category_exposure"
	AlertPortfolioVolatility AlertKind = "portfolio_volatility"
	AlertConcentration       AlertKind = "concentration"
	AlertValuation           AlertKind = "valuation"
)

// MarketWideSymbol is used on alerts that concern the whole market.
const MarketWideSymbol = "MARKET"

// PortfolioWideSymbol is used on alerts that concern the allocation as a whole.
const PortfolioWideSymbol = "PORTFOLIO"

// RiskAlert is a structured warning produced for one evaluation.
type RiskAlert struct {
	Symbol   string    `json:"symbol"`
	Kind     AlertKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Action   string    `json:"action"`
}
