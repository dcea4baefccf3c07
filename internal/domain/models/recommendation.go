package models

import "time"

// RiskTolerance adjusts the regime ratio and the concentration cap.
type RiskTolerance string

const (
	ToleranceLow    RiskTolerance = "low"
	ToleranceMedium RiskTolerance = "medium"
	ToleranceHigh   RiskTolerance = "high"
)

// SkippedInstrument records a candidate left out of scoring.
type SkippedInstrument struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// RatingDistribution counts scored instruments per rating.
type RatingDistribution struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Orange int `json:"orange"`
	Red    int `json:"red"`
}

// Add counts one rating.
func (d *RatingDistribution) Add(r Rating) {
	switch r {
	case RatingGreen:
		d.Green++
	case RatingYellow:
		d.Yellow++
	case RatingOrange:
		d.Orange++
	default:
		d.Red++
	}
}

// Total returns the number of counted ratings.
func (d RatingDistribution) Total() int { return d.Green + d.Yellow + d.Orange + d.Red }

// Summary carries the statistics of one evaluation.
type Summary struct {
	Ratings    RatingDistribution `json:"ratings"`
	Scored     int                `json:"scored"`
	Skipped    int                `json:"skipped"`
	Qualifying int                `json:"qualifying"`
	Selected   int                `json:"selected"`
}

// Advice is the plain-language guidance attached to a result.
type Advice struct {
	Outlook   string   `json:"outlook"`
	Action    string   `json:"action"`
	Tips      []string `json:"tips"`
	RiskLevel Severity `json:"risk_level"`
}

// RecommendationResult is the single output of one engine evaluation.
type RecommendationResult struct {
	Cash          float64             `json:"cash"`
	RiskTolerance RiskTolerance       `json:"risk_tolerance"`
	Regime        MarketRegime        `json:"regime"`
	Scores        []InstrumentScore   `json:"scores"`
	Allocation    Allocation          `json:"allocation"`
	Alerts        []RiskAlert         `json:"alerts"`
	Skipped       []SkippedInstrument `json:"skipped"`
	Summary       Summary             `json:"summary"`
	Advice        Advice              `json:"advice"`
	Timestamp     time.Time           `json:"timestamp"`
}

// EvaluationCandidate is one instrument with its fetched history.
type EvaluationCandidate struct {
	Instrument Instrument
	Series     PriceSeries
}

// EvaluationInput is everything one engine evaluation needs.
type EvaluationInput struct {
	Cash          float64
	TargetCount   int
	RiskTolerance RiskTolerance
	Signals       MarketSignals
	Candidates    []EvaluationCandidate
	// Skipped carries candidates the caller could not load.
	Skipped []SkippedInstrument
	AsOf    time.Time
}
