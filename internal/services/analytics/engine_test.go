package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
)

func evaluationInput() models.EvaluationInput {
	return models.EvaluationInput{
		Cash:          100000,
		TargetCount:   0,
		RiskTolerance: models.ToleranceMedium,
		Signals:       models.MarketSignals{Volatility: ptr(18), IndexRSI: ptr(55), Macro: models.MacroGreen},
		Candidates: []models.EvaluationCandidate{
			{Instrument: models.Instrument{Symbol: "0050", Name: "Yuanta Taiwan 50", ExpenseRatio: ptr(0.0043)}, Series: seriesOf("", linear(60, 100, 1), 8_000_000)},
			{Instrument: models.Instrument{Symbol: "006208", Name: "Fubon Taiwan 50"}, Series: seriesOf("", linear(60, 80, 0.8), 3_000_000)},
			{Instrument: models.Instrument{Symbol: "0056", Name: "Yuanta High Dividend"}, Series: seriesOf("", wave(60, 35, 0, 1.5, 0), 5_000_000)},
			{Instrument: models.Instrument{Symbol: "00878", Name: "Cathay ESG High Dividend"}, Series: seriesOf("", linear(5, 20, 0.1), 1_000_000)},
		},
		Skipped: []models.SkippedInstrument{{Symbol: "00919", Reason: "fetch failed"}},
		AsOf:    day0,
	}
}

func TestEvaluateRejectsInvalidCash(t *testing.T) {
	e := newTestEngine(t)
	in := evaluationInput()
	in.Cash = 0
	_, err := e.Evaluate(in)
	require.Error(t, err)
	assert.True(t, models.IsInvalidBudget(err))
}

func TestEvaluatePipeline(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Evaluate(evaluationInput())
	require.NoError(t, err)

	require.Len(t, res.Scores, 3)
	for i := 1; i < len(res.Scores); i++ {
		assert.GreaterOrEqual(t, res.Scores[i-1].Score, res.Scores[i].Score)
	}

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, "00878", res.Skipped[0].Symbol)
	assert.Contains(t, res.Skipped[0].Reason, "insufficient data")
	assert.Equal(t, "00919", res.Skipped[1].Symbol)

	assert.Equal(t, 3, res.Summary.Scored)
	assert.Equal(t, 2, res.Summary.Skipped)
	assert.Equal(t, 3, res.Summary.Ratings.Total())
	assert.Equal(t, len(res.Allocation.Positions), res.Summary.Selected)
	assert.Equal(t, models.StrategyBalanced, res.Regime.Strategy)
	assert.Equal(t, day0, res.Timestamp)
	assert.Equal(t, models.ToleranceMedium, res.RiskTolerance)

	sum := 0.0
	for _, p := range res.Allocation.Positions {
		sum += p.Amount
	}
	assert.LessOrEqual(t, sum, res.Allocation.Investable+1e-6)
	assert.InDelta(t, res.Cash-sum, res.Allocation.RemainingCash, 0.01)
	assert.NotEmpty(t, res.Advice.Outlook)
	assert.NotEmpty(t, res.Advice.Tips)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	first, err := e.Evaluate(evaluationInput())
	require.NoError(t, err)
	second, err := e.Evaluate(evaluationInput())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestEvaluateRiskTolerance(t *testing.T) {
	e := newTestEngine(t)

	in := evaluationInput()
	in.RiskTolerance = "conservative"
	low, err := e.Evaluate(in)
	require.NoError(t, err)
	assert.Equal(t, models.ToleranceLow, low.RiskTolerance)
	assert.InDelta(t, 0.48, low.Regime.InvestmentRatio, 1e-9)
	assert.Equal(t, appliedCap(0.30, len(low.Allocation.Positions)), low.Allocation.ConcentrationCap)

	in.RiskTolerance = models.ToleranceHigh
	high, err := e.Evaluate(in)
	require.NoError(t, err)
	assert.InDelta(t, 0.72, high.Regime.InvestmentRatio, 1e-9)
	assert.Equal(t, appliedCap(0.40, len(high.Allocation.Positions)), high.Allocation.ConcentrationCap)

	in.RiskTolerance = ""
	medium, err := e.Evaluate(in)
	require.NoError(t, err)
	assert.Equal(t, models.ToleranceMedium, medium.RiskTolerance)
	assert.Equal(t, 0.6, medium.Regime.InvestmentRatio)
}

func appliedCap(configured float64, n int) float64 {
	if n > 0 && float64(n)*configured < 1 {
		return 1 / float64(n)
	}
	return configured
}

func TestEvaluateTwoPositionsRaiseNoConcentrationAlert(t *testing.T) {
	e := newTestEngine(t, WithAllocationLimits(0, 0.35, 1))
	in := evaluationInput()
	in.RiskTolerance = models.ToleranceLow
	in.Candidates = []models.EvaluationCandidate{
		{Instrument: models.Instrument{Symbol: "0050"}, Series: seriesOf("", linear(60, 100, 1), 8_000_000)},
		{Instrument: models.Instrument{Symbol: "006208"}, Series: seriesOf("", linear(60, 77, 0.7), 8_000_000)},
	}
	in.Skipped = nil

	res, err := e.Evaluate(in)
	require.NoError(t, err)
	require.Len(t, res.Allocation.Positions, 2)
	assert.Equal(t, 0.5, res.Allocation.ConcentrationCap)
	for _, p := range res.Allocation.Positions {
		assert.InDelta(t, 0.5, p.Weight, 0.01)
	}
	for _, a := range res.Alerts {
		assert.NotEqual(t, models.AlertConcentration, a.Kind, a.Message)
	}
}

func TestEvaluateNoCandidates(t *testing.T) {
	e := newTestEngine(t)
	in := evaluationInput()
	in.Candidates = nil
	in.Skipped = nil

	res, err := e.Evaluate(in)
	require.NoError(t, err)
	assert.Empty(t, res.Scores)
	assert.Empty(t, res.Allocation.Positions)
	assert.Equal(t, 100000.0, res.Allocation.RemainingCash)
	assert.Equal(t, models.SeverityLow, res.Advice.RiskLevel)
	assert.Contains(t, res.Advice.Action, "keep the cash")
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	_, err := NewEngine(WithWeights(Weights{Trend: 1, Momentum: 1}))
	require.Error(t, err)

	_, err = NewEngine(WithRatioBounds(0.9, 0.2))
	require.Error(t, err)

	_, err = NewEngine(WithIndicatorWindows(30, 20, 14, 250))
	require.Error(t, err)
}

func TestAdviseRiskLevel(t *testing.T) {
	e := newTestEngine(t)
	regime := calmRegime()
	alert := models.RiskAlert{Kind: models.AlertValuation}

	assert.Equal(t, models.SeverityLow, e.advise(regime, models.Summary{}, models.Allocation{}, nil).RiskLevel)
	assert.Equal(t, models.SeverityMedium, e.advise(regime, models.Summary{}, models.Allocation{}, []models.RiskAlert{alert}).RiskLevel)
	assert.Equal(t, models.SeverityHigh, e.advise(regime, models.Summary{}, models.Allocation{}, []models.RiskAlert{alert, alert, alert}).RiskLevel)
}
