package models

import "time"

// ExecutionStatus of one simulated order.
type ExecutionStatus string

const (
	ExecutionExecuted ExecutionStatus = "executed"
	ExecutionFailed   ExecutionStatus = "failed"
)

// Order is one line of a simulated investment request.
type Order struct {
	Symbol string  `json:"symbol" validate:"required"`
	Shares int64   `json:"shares" validate:"gte=0"`
	Price  float64 `json:"price" validate:"gte=0"`
}

// Execution is the simulated outcome of one order.
type Execution struct {
	Symbol string          `json:"symbol"`
	Shares int64           `json:"shares"`
	Price  float64         `json:"price"`
	Amount float64         `json:"amount"`
	Status ExecutionStatus `json:"status"`
	Reason string          `json:"reason,omitempty"`
}

// ExecutionResult acknowledges a simulated investment. Nothing is sent to a broker.
type ExecutionResult struct {
	PortfolioID   string      `json:"portfolio_id"`
	Executions    []Execution `json:"executions"`
	TotalInvested float64     `json:"total_invested"`
	RemainingCash float64     `json:"remaining_cash"`
	Note          string      `json:"note"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Holding is a position of a simulated portfolio.
type Holding struct {
	Symbol    string  `json:"symbol"`
	Shares    int64   `json:"shares"`
	CostPrice float64 `json:"cost_price"`
}

// Portfolio is a simulated portfolio kept for a limited time.
type Portfolio struct {
	ID        string    `json:"id"`
	Cash      float64   `json:"cash"`
	Holdings  []Holding `json:"holdings"`
	CreatedAt time.Time `json:"created_at"`
}

// PortfolioView is a portfolio re-priced at current market prices.
type PortfolioView struct {
	ID            string     `json:"id"`
	Cash          float64    `json:"cash"`
	Positions     []Position `json:"positions"`
	MarketValue   float64    `json:"market_value"`
	CostBasis     float64    `json:"cost_basis"`
	UnrealizedPnL float64    `json:"unrealized_pnl"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RiskAssessment is the alert view of a simulated portfolio.
type RiskAssessment struct {
	PortfolioID string       `json:"portfolio_id"`
	Regime      MarketRegime `json:"regime"`
	Alerts      []RiskAlert  `json:"alerts"`
	RiskLevel   Severity     `json:"risk_level"`
	Timestamp   time.Time    `json:"timestamp"`
}

// MarketOverview is the market-wide view served by the API and the feed.
type MarketOverview struct {
	Signals   MarketSignals `json:"signals"`
	Regime    MarketRegime  `json:"regime"`
	Timestamp time.Time     `json:"timestamp"`
}

// InstrumentDetail is the per-ETF view.
type InstrumentDetail struct {
	Instrument Instrument      `json:"instrument"`
	Indicators IndicatorSet    `json:"indicators"`
	Score      InstrumentScore `json:"score"`
}
