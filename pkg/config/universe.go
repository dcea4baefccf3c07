package config

func ratio(v float64) *float64 { return &v }

// DefaultUniverse is the catalog used when the config file lists none.
func DefaultUniverse() []Instrument {
	return []Instrument{
		{Symbol: "0050", Name: "Yuanta Taiwan Top 50", Category: "market_cap", Suffix: ".TW", ExpenseRatio: ratio(0.0043)},
		{Symbol: "006208", Name: "Fubon Taiwan Top 50", Category: "market_cap", Suffix: ".TW", ExpenseRatio: ratio(0.0024)},
		{Symbol: "0056", Name: "Yuanta Taiwan High Dividend", Category: "dividend", Suffix: ".TW", ExpenseRatio: ratio(0.0066)},
		{Symbol: "00878", Name: "Cathay Sustainable High Dividend", Category: "dividend", Suffix: ".TW", ExpenseRatio: ratio(0.0055)},
		{Symbol: "00713", Name: "Yuanta Taiwan High Dividend Low Volatility", Category: "dividend", Suffix: ".TW", ExpenseRatio: ratio(0.0064)},
		{Symbol: "00919", Name: "Capital Taiwan Select High Dividend", Category: "dividend", Suffix: ".TW", ExpenseRatio: ratio(0.0056)},
		{Symbol: "0052", Name: "Fubon Taiwan Technology", Category: "technology", Suffix: ".TW", ExpenseRatio: ratio(0.0039)},
		{Symbol: "00881", Name: "Cathay Taiwan 5G+", Category: "technology", Suffix: ".TW", ExpenseRatio: ratio(0.0056)},
		{Symbol: "00892", Name: "Fubon Taiwan Core Semiconductor", Category: "technology", Suffix: ".TW", ExpenseRatio: ratio(0.0050)},
		{Symbol: "0055", Name: "Yuanta MSCI Taiwan Financials", Category: "financial", Suffix: ".TW", ExpenseRatio: ratio(0.0058)},
	}
}
