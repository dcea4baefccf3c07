package models

import "strings"

// Instrument is a tracked ETF from the catalog.
type Instrument struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	// Suffix is the exchange suffix used by quote providers (".TW" or ".TWO").
	Suffix string `json:"suffix" yaml:"suffix"`
	// ExpenseRatio is a fraction (0.0043 = 0.43%). Nil when unknown.
	ExpenseRatio *float64 `json:"expense_ratio,omitempty" yaml:"expense_ratio"`
}

// QuoteSymbol returns the symbol as the quote provider expects it. Index
// symbols ("^TWII") and symbols that already carry a suffix pass through.
func (i Instrument) QuoteSymbol() string {
	if strings.HasPrefix(i.Symbol, "^") || strings.Contains(i.Symbol, ".") {
		return i.Symbol
	}
	if i.Suffix == "" {
		return i.Symbol + ".TW"
	}
	return i.Symbol + i.Suffix
}
