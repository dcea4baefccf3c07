package models

// Position is one instrument in the suggested allocation.
// Amount = Shares * Price and never exceeds Allocated.
type Position struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Category  string    `json:"category,omitempty"`
	Price     float64   `json:"price"`
	Shares    int64     `json:"shares"`
	Amount    float64   `json:"amount"`
	Allocated float64   `json:"allocated"`
	Weight    float64   `json:"weight"`
	Score     float64   `json:"score"`
	Rating    Rating    `json:"rating"`
	Band      PriceBand `json:"band,omitempty"`
	// Volatility is the annualised realised volatility, 0 when unknown.
	Volatility float64 `json:"volatility,omitempty"`
}

// Allocation is the output of the portfolio builder.
type Allocation struct {
	Positions       []Position `json:"positions"`
	Investable      float64    `json:"investable"`
	AmountAllocated float64    `json:"amount_allocated"`
	RemainingCash   float64    `json:"remaining_cash"`
	// ConcentrationCap is the cap fraction that applied to this allocation,
	// after relaxing to equal weight when too few instruments qualify.
	ConcentrationCap float64 `json:"concentration_cap"`
}
