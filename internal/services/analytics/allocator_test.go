package analytics

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
)

func candidate(symbol string, score, price float64) models.Candidate {
	return models.Candidate{
		Score: models.InstrumentScore{Symbol: symbol, Score: score, Rating: models.RatingYellow, Band: models.BandFair},
		Price: price,
	}
}

func regimeWithRatio(ratio float64) models.MarketRegime {
	return models.MarketRegime{Strategy: models.StrategyBalanced, InvestmentRatio: ratio}
}

func TestBuildAllocationTwoEqualCandidates(t *testing.T) {
	e := newTestEngine(t)
	alloc, err := e.BuildAllocation(100000, []models.Candidate{
		candidate("A", 70, 50),
		candidate("B", 70, 100),
	}, regimeWithRatio(0.6), 0)
	require.NoError(t, err)

	assert.Equal(t, 60000.0, alloc.Investable)
	require.Len(t, alloc.Positions, 2)

	a, b := alloc.Positions[0], alloc.Positions[1]
	assert.Equal(t, "A", a.Symbol)
	assert.Equal(t, int64(600), a.Shares)
	assert.Equal(t, 30000.0, a.Amount)
	assert.Equal(t, 0.5, a.Weight)
	assert.Equal(t, "B", b.Symbol)
	assert.Equal(t, int64(300), b.Shares)
	assert.Equal(t, 30000.0, b.Amount)
	assert.Equal(t, 0.5, b.Weight)

	assert.Equal(t, 60000.0, alloc.AmountAllocated)
	assert.Equal(t, 40000.0, alloc.RemainingCash)
	assert.Equal(t, 0.5, alloc.ConcentrationCap)

	alerts := e.GenerateAlerts([]models.InstrumentScore{a2s(a), a2s(b)}, regimeWithRatio(0.6), alloc, 100000)
	assert.NotContains(t, kinds(alerts), models.AlertConcentration)
}

func a2s(p models.Position) models.InstrumentScore {
	return models.InstrumentScore{Symbol: p.Symbol, Score: p.Score, Rating: p.Rating, Band: p.Band}
}

func TestBuildAllocationRecordsAppliedCap(t *testing.T) {
	e := newTestEngine(t)

	alloc, err := e.BuildAllocation(100000, []models.Candidate{
		candidate("A", 70, 50), candidate("B", 70, 40), candidate("C", 70, 25),
	}, regimeWithRatio(0.6), 0)
	require.NoError(t, err)
	assert.Equal(t, 0.35, alloc.ConcentrationCap)

	alloc, err = e.buildAllocation(100000, []models.Candidate{
		candidate("A", 70, 50), candidate("B", 70, 40), candidate("C", 70, 25),
	}, regimeWithRatio(0.6), 0, 0.30)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, alloc.ConcentrationCap, 1e-12)
	for _, p := range alloc.Positions {
		assert.LessOrEqual(t, p.Weight, alloc.ConcentrationCap+e.cfg.CapTolerance)
	}
	assert.NotContains(t, kinds(e.GenerateAlerts(nil, regimeWithRatio(0.6), alloc, 100000)), models.AlertConcentration)
}

func TestBuildAllocationCarriesCategoryAndVolatility(t *testing.T) {
	e := newTestEngine(t)
	c := candidate("A", 70, 50)
	c.Score.Category = "dividend"
	c.Score.Volatility = 0.18

	alloc, err := e.BuildAllocation(100000, []models.Candidate{c}, regimeWithRatio(0.6), 0)
	require.NoError(t, err)
	require.Len(t, alloc.Positions, 1)
	assert.Equal(t, "dividend", alloc.Positions[0].Category)
	assert.Equal(t, 0.18, alloc.Positions[0].Volatility)
}

func TestBuildAllocationNoQualifyingCandidates(t *testing.T) {
	e := newTestEngine(t)
	for name, cands := range map[string][]models.Candidate{
		"none":      nil,
		"low score": {candidate("A", 49.99, 50)},
		"bad price": {candidate("A", 90, 0), candidate("B", 90, -1), candidate("C", 90, math.NaN())},
	} {
		t.Run(name, func(t *testing.T) {
			alloc, err := e.BuildAllocation(100000, cands, regimeWithRatio(0.6), 0)
			require.NoError(t, err)
			assert.NotNil(t, alloc.Positions)
			assert.Empty(t, alloc.Positions)
			assert.Equal(t, 100000.0, alloc.RemainingCash)
			assert.Equal(t, 0.0, alloc.AmountAllocated)
		})
	}
}

func TestBuildAllocationInvalidBudget(t *testing.T) {
	e := newTestEngine(t)
	for _, cash := range []float64{0, -100, math.NaN()} {
		alloc, err := e.BuildAllocation(cash, []models.Candidate{candidate("A", 90, 50)}, regimeWithRatio(0.6), 0)
		require.Error(t, err)
		assert.True(t, models.IsInvalidBudget(err))
		assert.Empty(t, alloc.Positions)
	}
}

func TestBuildAllocationExcludesBadPriceAndKeepsOthers(t *testing.T) {
	e := newTestEngine(t)
	alloc, err := e.BuildAllocation(100000, []models.Candidate{
		candidate("A", 90, 0),
		candidate("B", 80, 40),
	}, regimeWithRatio(0.5), 0)
	require.NoError(t, err)
	require.Len(t, alloc.Positions, 1)
	assert.Equal(t, "B", alloc.Positions[0].Symbol)
	assert.Equal(t, int64(1250), alloc.Positions[0].Shares)
	assert.Equal(t, 1.0, alloc.Positions[0].Weight)
}

func TestBuildAllocationTargetCountKeepsBest(t *testing.T) {
	e := newTestEngine(t)
	alloc, err := e.BuildAllocation(100000, []models.Candidate{
		candidate("C", 60, 10),
		candidate("A", 80, 10),
		candidate("B", 80, 10),
		candidate("D", 70, 10),
	}, regimeWithRatio(0.9), 2)
	require.NoError(t, err)
	require.Len(t, alloc.Positions, 2)
	assert.Equal(t, "A", alloc.Positions[0].Symbol)
	assert.Equal(t, "B", alloc.Positions[1].Symbol)
}

func TestBuildAllocationRespectsCapWithManyCandidates(t *testing.T) {
	e := newTestEngine(t)
	prices := []float64{12.3, 47.9, 101.5, 33.3, 19.05, 71.2, 8.8}
	var cands []models.Candidate
	for i, p := range prices {
		cands = append(cands, candidate(string(rune('A'+i)), 60+float64(i), p))
	}
	for _, cash := range []float64{10000, 123456, 1000000} {
		alloc, err := e.BuildAllocation(cash, cands, regimeWithRatio(0.8), 0)
		require.NoError(t, err)

		sum := 0.0
		for _, p := range alloc.Positions {
			assert.GreaterOrEqual(t, p.Shares, int64(0))
			assert.LessOrEqual(t, p.Amount, p.Allocated+1e-6)
			assert.LessOrEqual(t, p.Weight, 0.35+0.05, "%s weight", p.Symbol)
			sum += p.Amount
		}
		assert.LessOrEqual(t, sum, alloc.Investable+1e-6)
		assert.InDelta(t, cash-sum, alloc.RemainingCash, 0.01)
	}
}

func TestBuildAllocationLotSize(t *testing.T) {
	e := newTestEngine(t, WithAllocationLimits(50, 0.35, 1000))
	alloc, err := e.BuildAllocation(100000, []models.Candidate{candidate("0050", 70, 50)}, regimeWithRatio(0.6), 0)
	require.NoError(t, err)
	require.Len(t, alloc.Positions, 1)
	assert.Equal(t, int64(1000), alloc.Positions[0].Shares)
	assert.Equal(t, 50000.0, alloc.Positions[0].Amount)
	assert.Equal(t, 50000.0, alloc.RemainingCash)
}

func TestBuildAllocationDropsZeroSharePositions(t *testing.T) {
	e := newTestEngine(t)
	alloc, err := e.BuildAllocation(1000, []models.Candidate{
		candidate("A", 70, 10),
		candidate("B", 70, 900),
	}, regimeWithRatio(0.6), 0)
	require.NoError(t, err)
	require.Len(t, alloc.Positions, 1)
	assert.Equal(t, "A", alloc.Positions[0].Symbol)
	assert.Equal(t, int64(30), alloc.Positions[0].Shares)
}

func TestCapAllocationsRedistributesProportionally(t *testing.T) {
	in := []decimal.Decimal{decimal.NewFromInt(50), decimal.NewFromInt(30), decimal.NewFromInt(20)}
	out := capAllocations(in, decimal.NewFromInt(40))

	assert.True(t, out[0].Equal(decimal.NewFromInt(40)), out[0].String())
	assert.True(t, out[1].Equal(decimal.NewFromInt(36)), out[1].String())
	assert.True(t, out[2].Equal(decimal.NewFromInt(24)), out[2].String())
	assert.True(t, in[0].Equal(decimal.NewFromInt(50)), "input must not be modified")
}

func TestCapAllocationsIterates(t *testing.T) {
	in := []decimal.Decimal{decimal.NewFromInt(60), decimal.NewFromInt(30), decimal.NewFromInt(10)}
	out := capAllocations(in, decimal.NewFromInt(35))

	total := decimal.Zero
	for _, v := range out {
		assert.True(t, v.LessThanOrEqual(decimal.NewFromInt(35).Add(decimal.New(1, -9))), v.String())
		total = total.Add(v)
	}
	assert.True(t, total.Sub(decimal.NewFromInt(100)).Abs().LessThan(decimal.New(1, -9)), total.String())
}
