package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"ETFAdvisor/internal/domain/models"
)

// BuildAllocation splits cash*ratio equally across the qualifying candidates,
// caps each at the concentration limit and rounds down to whole lots.
func (e *Engine) BuildAllocation(cash float64, candidates []models.Candidate, regime models.MarketRegime, targetCount int) (models.Allocation, error) {
	return e.buildAllocation(cash, candidates, regime, targetCount, e.cfg.ConcentrationCap)
}

func (e *Engine) buildAllocation(cash float64, candidates []models.Candidate, regime models.MarketRegime, targetCount int, capFrac float64) (models.Allocation, error) {
	if !finite(cash) || cash <= 0 {
		return models.Allocation{}, &models.InvalidBudgetError{Cash: cash}
	}

	result := models.Allocation{
		Positions:        []models.Position{},
		RemainingCash:    cash,
		ConcentrationCap: capFrac,
	}

	selected := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if e.qualifies(c) {
			selected = append(selected, c)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Score.Score != selected[j].Score.Score {
			return selected[i].Score.Score > selected[j].Score.Score
		}
		return selected[i].Score.Symbol < selected[j].Score.Symbol
	})
	if targetCount > 0 && len(selected) > targetCount {
		selected = selected[:targetCount]
	}

	ratio := regime.InvestmentRatio
	if !finite(ratio) {
		ratio = 0
	}
	cashD := decimal.NewFromFloat(cash)
	investable := cashD.Mul(decimal.NewFromFloat(clamp(ratio, 0, 1))).Round(2)
	result.Investable = investable.InexactFloat64()
	if len(selected) == 0 || !investable.IsPositive() {
		return result, nil
	}

	n := len(selected)
	effCap := capFrac
	if float64(n)*effCap < 1 {
		effCap = 1 / float64(n)
	}
	result.ConcentrationCap = effCap
	base := investable.Div(decimal.NewFromInt(int64(n)))
	shares := make([]decimal.Decimal, n)
	for i := range shares {
		shares[i] = base
	}
	allocs := capAllocations(shares, investable.Mul(decimal.NewFromFloat(effCap)))

	lot := decimal.NewFromInt(e.cfg.LotSize)
	positions := make([]models.Position, 0, n)
	total := decimal.Zero
	for i, c := range selected {
		price := decimal.NewFromFloat(c.Price)
		lots := allocs[i].Div(price).Div(lot).Floor()
		qty := lots.Mul(lot)
		if !qty.IsPositive() {
			continue
		}
		amount := qty.Mul(price)
		total = total.Add(amount)
		positions = append(positions, models.Position{
			Symbol:     c.Score.Symbol,
			Name:       c.Score.Name,
			Category:   c.Score.Category,
			Price:      c.Price,
			Shares:     qty.IntPart(),
			Amount:     amount.Round(2).InexactFloat64(),
			Allocated:  allocs[i].Round(2).InexactFloat64(),
			Score:      c.Score.Score,
			Rating:     c.Score.Rating,
			Band:       c.Score.Band,
			Volatility: c.Score.Volatility,
		})
	}
	if !total.IsPositive() {
		return result, nil
	}

	for i := range positions {
		amount := decimal.NewFromFloat(positions[i].Amount)
		positions[i].Weight = amount.Div(total).Round(6).InexactFloat64()
	}
	result.Positions = positions
	result.AmountAllocated = total.Round(2).InexactFloat64()
	result.RemainingCash = cashD.Sub(total).Round(2).InexactFloat64()
	return result, nil
}

// qualifies reports whether a candidate may enter the allocation.
func (e *Engine) qualifies(c models.Candidate) bool {
	return c.Score.Score >= e.cfg.MinScore && finite(c.Price) && c.Price > 0
}

// capAllocations clamps every amount to limit and hands the excess to the
// uncapped entries in proportion to their size, until nothing exceeds the
// limit or a single uncapped entry is left.
func capAllocations(amounts []decimal.Decimal, limit decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(amounts))
	copy(out, amounts)
	capped := make([]bool, len(out))

	for iter := 0; iter < len(out); iter++ {
		excess := decimal.Zero
		for i, a := range out {
			if !capped[i] && a.GreaterThan(limit) {
				excess = excess.Add(a.Sub(limit))
				out[i] = limit
				capped[i] = true
			}
		}
		if !excess.IsPositive() {
			break
		}
		open := decimal.Zero
		remaining := 0
		for i, a := range out {
			if !capped[i] {
				open = open.Add(a)
				remaining++
			}
		}
		if remaining == 0 || !open.IsPositive() {
			break
		}
		for i, a := range out {
			if !capped[i] {
				out[i] = a.Add(excess.Mul(a).Div(open))
			}
		}
		if remaining == 1 {
			break
		}
	}
	return out
}
