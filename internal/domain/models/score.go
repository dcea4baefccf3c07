package models

// Rating is the traffic-light classification of a composite score.
type Rating string

const (
	RatingGreen  Rating = "green"
	RatingYellow Rating = "yellow"
	RatingOrange Rating = "orange"
	RatingRed    Rating = "red"
)

// Rank orders ratings from worst (0) to best (3).
func (r Rating) Rank() int {
	switch r {
	case RatingGreen:
		return 3
	case RatingYellow:
		return 2
	case RatingOrange:
		return 1
	default:
		return 0
	}
}

// Recommendation is the action label derived from a composite score.
type Recommendation string

const (
	RecommendStrongBuy Recommendation = "strong_buy"
	RecommendBuy       Recommendation = "buy"
	RecommendHold      Recommendation = "hold"
	RecommendSell      Recommendation = "sell"
)

// SubScore names.
const (
	SubScoreTrend     = "trend"
	SubScoreMomentum  = "momentum"
	SubScoreValuation = "valuation"
	SubScoreLiquidity = "liquidity"
	SubScoreCost      = "cost"
)

// InstrumentScore is the scored view of one instrument.
type InstrumentScore struct {
	Symbol         string             `json:"symbol"`
	Name           string             `json:"name,omitempty"`
	Category       string             `json:"category,omitempty"`
	Score          float64            `json:"score"`
	Rating         Rating             `json:"rating"`
	Recommendation Recommendation     `json:"recommendation"`
	SubScores      map[string]float64 `json:"sub_scores"`
	Reasoning      string             `json:"reasoning"`
	Price          float64            `json:"price"`
	Band           PriceBand          `json:"band"`
	Percentile     float64            `json:"percentile"`
	Volatility     float64            `json:"volatility"`
}

// Candidate pairs a score with the price the allocation is computed at.
type Candidate struct {
	Score InstrumentScore
	Price float64
}
