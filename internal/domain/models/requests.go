package models

// Requests for advisor HTTP endpoints. Defined in domain for consistency and reuse.

type AdviceRequest struct {
	Cash          float64  `query:"cash" json:"cash"`
	Symbols       []string `query:"symbols" json:"symbols" validate:"omitempty,dive,required"`
	Top           int      `query:"top" json:"top" default:"0" validate:"gte=0,lte=50"`
	RiskTolerance string   `query:"risk_tolerance" json:"risk_tolerance" default:"medium" validate:"oneof=low medium high conservative aggressive"`
}

type DailyRecommendationRequest struct {
	Funds         float64 `query:"funds" json:"funds" default:"100000"`
	Top           int     `query:"top" json:"top" default:"5" validate:"gte=0,lte=50"`
	RiskTolerance string  `query:"risk_tolerance" json:"risk_tolerance" default:"medium" validate:"oneof=low medium high conservative aggressive"`
}

type QuickRecommendationRequest struct {
	RiskTolerance string `query:"risk_tolerance" json:"risk_tolerance" default:"medium" validate:"oneof=low medium high conservative aggressive"`
}

// ExecuteInvestmentRequest leaves cash unchecked here; the use case reports
// a non-positive amount as an invalid budget.
type ExecuteInvestmentRequest struct {
	Cash   float64 `json:"cash"`
	Orders []Order `json:"orders" validate:"required,min=1,dive"`
}

type InstrumentRequest struct {
	Symbol string `param:"symbol" validate:"required"`
}

type PortfolioRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}
