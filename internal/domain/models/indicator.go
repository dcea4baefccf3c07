package models

// PriceBand is the valuation band derived from the price percentile.
type PriceBand string

const (
	BandDeepValue    PriceBand = "deep_value"
	BandBelowAverage PriceBand = "below_average"
	BandFair         PriceBand = "fair"
	BandAboveAverage PriceBand = "above_average"
	BandExpensive    PriceBand = "expensive"
)

// IndicatorSet holds the indicators computed for one instrument in one run.
// RSI and Percentile are always within [0, 100].
type IndicatorSet struct {
	Symbol     string    `json:"symbol"`
	LastClose  float64   `json:"last_close"`
	MAShort    float64   `json:"ma_short"`
	MALong     float64   `json:"ma_long"`
	RSI        float64   `json:"rsi"`
	Percentile float64   `json:"percentile"`
	Band       PriceBand `json:"band"`
	// Volatility is the annualised realised volatility of daily log returns.
	Volatility float64 `json:"volatility"`
	// AvgVolume is nil when the series carries no volume.
	AvgVolume    *float64 `json:"avg_volume,omitempty"`
	Observations int      `json:"observations"`
}
