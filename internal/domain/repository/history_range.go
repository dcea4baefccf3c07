package repository

// HistoryRange is the lookback requested from a market data source.
type HistoryRange string

const (
	Range5d  HistoryRange = "5d"
	Range1mo HistoryRange = "1mo"
	Range3mo HistoryRange = "3mo"
	Range6mo HistoryRange = "6mo"
	Range1y  HistoryRange = "1y"
	Range2y  HistoryRange = "2y"
)

// IsValidRange returns true if r is a supported range.
func IsValidRange(r HistoryRange) bool {
	switch r {
	case Range5d, Range1mo, Range3mo, Range6mo, Range1y, Range2y:
		return true
	default:
		return false
	}
}

// DefaultRange returns the default history range.
func DefaultRange() HistoryRange { return Range1y }

// NormalizeRange converts a raw string to a valid range (or default).
func NormalizeRange(s string) HistoryRange {
	if s == "" {
		return DefaultRange()
	}
	r := HistoryRange(s)
	if IsValidRange(r) {
		return r
	}
	return DefaultRange()
}

// TradingDays approximates the number of daily bars a range yields.
func (r HistoryRange) TradingDays() int {
	switch r {
	case Range5d:
		return 5
	case Range1mo:
		return 22
	case Range3mo:
		return 66
	case Range6mo:
		return 126
	case Range2y:
		return 500
	default:
		return 250
	}
}
