package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
)

func TestMarketOverview_Signals(t *testing.T) {
	f := newFixture(t)

	ov := f.overview.Overview(context.Background())
	require.NotNil(t, ov.Signals.Volatility)
	require.NotNil(t, ov.Signals.IndexRSI)
	require.NotNil(t, ov.Signals.IndexLevel)
	assert.Equal(t, models.MacroGreen, ov.Signals.Macro)
	assert.Empty(t, ov.Regime.Defaulted)
	assert.NotEmpty(t, ov.Regime.Strategy)
	assert.Equal(t, string(ov.Regime.Strategy), f.metrics.regime)
}

func TestMarketOverview_DegradedSignalsUseDefaults(t *testing.T) {
	f := newFixture(t)
	f.source.errs["^VIX"] = errors.New("upstream down")
	f.source.errs["^TWII"] = errors.New("upstream down")

	ov := f.overview.Overview(context.Background())
	assert.Nil(t, ov.Signals.Volatility)
	assert.Nil(t, ov.Signals.IndexRSI)
	assert.Equal(t, []string{"volatility", "momentum"}, ov.Regime.Defaulted)
	assert.Equal(t, models.StrategyBalanced, ov.Regime.Strategy)
	assert.Equal(t, 1, f.metrics.errors["signal_index"])
	assert.Equal(t, 1, f.metrics.errors["signal_volatility"])
}

func TestTrendOf(t *testing.T) {
	assert.Equal(t, models.TrendUp, trendOf(models.IndicatorSet{LastClose: 102, MALong: 100}))
	assert.Equal(t, models.TrendDown, trendOf(models.IndicatorSet{LastClose: 98, MALong: 100}))
	assert.Equal(t, models.TrendSideways, trendOf(models.IndicatorSet{LastClose: 100.5, MALong: 100}))
	assert.Equal(t, models.TrendSideways, trendOf(models.IndicatorSet{LastClose: 1}))
}

func newRecommendation(f *fixture) *RecommendationUseCase {
	return NewRecommendationUseCase(f.universe, f.source, f.engine, f.overview, f.events, f.metrics, nil, f.fetchConfig())
}

func TestRecommend_InvalidCashFailsBeforeFetching(t *testing.T) {
	f := newFixture(t)
	uc := newRecommendation(f)

	_, err := uc.Recommend(context.Background(), RecommendParams{Cash: 0})
	assert.True(t, models.IsInvalidBudget(err))
	assert.Equal(t, 0, f.source.totalCalls())
}

func TestRecommend_SkipsFailedFetches(t *testing.T) {
	f := newFixture(t)
	f.source.errs["0052.TW"] = errors.New("timeout")
	uc := newRecommendation(f)

	res, err := uc.Recommend(context.Background(), RecommendParams{Cash: 100000, Top: 5, RiskTolerance: "medium"})
	require.NoError(t, err)

	assert.Len(t, res.Scores, 2)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "0052", res.Skipped[0].Symbol)
	assert.Contains(t, res.Skipped[0].Reason, "fetch failed")
	assert.Equal(t, 1, res.Summary.Skipped)
	assert.LessOrEqual(t, res.Allocation.AmountAllocated, res.Allocation.Investable+1e-9)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventRecommendationGenerated, f.events.events[0].Type)
	assert.Equal(t, "medium", f.events.events[0].Key)
}

func TestRecommend_PreferredSymbols(t *testing.T) {
	f := newFixture(t)
	uc := newRecommendation(f)

	res, err := uc.Recommend(context.Background(), RecommendParams{Cash: 50000, Symbols: []string{"0056"}})
	require.NoError(t, err)
	require.Len(t, res.Scores, 1)
	assert.Equal(t, "0056", res.Scores[0].Symbol)
	assert.Equal(t, 0, f.source.calls["0050.TW"])

	_, err = uc.Recommend(context.Background(), RecommendParams{Cash: 50000, Symbols: []string{"9999"}})
	assert.ErrorIs(t, err, models.ErrUnknownSymbol)
}

func TestRecommend_Quick(t *testing.T) {
	f := newFixture(t)
	res, err := newRecommendation(f).Quick(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, float64(QuickCash), res.Cash)
	assert.Equal(t, models.ToleranceMedium, res.RiskTolerance)
	assert.LessOrEqual(t, len(res.Allocation.Positions), QuickTop)
}

func newExecution(f *fixture, store *memPortfolios) *ExecutionUseCase {
	uc := NewExecutionUseCase(f.universe, store, f.events, nil)
	uc.newID = func() string { return "7b0c1c3e-5d1a-4f3e-9a57-1f0c2d9b8e11" }
	uc.now = func() time.Time { return day0 }
	return uc
}

func TestExecute(t *testing.T) {
	f := newFixture(t)
	store := &memPortfolios{}
	uc := newExecution(f, store)

	res, err := uc.Execute(context.Background(), models.ExecuteInvestmentRequest{
		Cash: 1000,
		Orders: []models.Order{
			{Symbol: "0050", Shares: 2, Price: 150},
			{Symbol: "0056", Shares: 0, Price: 38},
			{Symbol: "9999", Shares: 1, Price: 10},
			{Symbol: "0052", Shares: 10, Price: 100},
			{Symbol: "0050", Shares: 2, Price: 160},
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Executions, 5)
	statuses := make([]models.ExecutionStatus, len(res.Executions))
	for i, e := range res.Executions {
		statuses[i] = e.Status
	}
	assert.Equal(t, []models.ExecutionStatus{
		models.ExecutionExecuted, models.ExecutionFailed, models.ExecutionFailed, models.ExecutionFailed, models.ExecutionExecuted,
	}, statuses)
	assert.Equal(t, "shares must be positive", res.Executions[1].Reason)
	assert.Equal(t, "unknown symbol", res.Executions[2].Reason)
	assert.Contains(t, res.Executions[3].Reason, "insufficient cash")
	assert.Equal(t, 620.0, res.TotalInvested)
	assert.Equal(t, 380.0, res.RemainingCash)
	assert.Contains(t, res.Note, "simulated")

	p, err := store.Get(context.Background(), res.PortfolioID)
	require.NoError(t, err)
	require.Len(t, p.Holdings, 1)
	assert.Equal(t, int64(4), p.Holdings[0].Shares)
	assert.Equal(t, 155.0, p.Holdings[0].CostPrice)
	assert.Equal(t, 380.0, p.Cash)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventInvestmentExecuted, f.events.events[0].Type)
}

func TestExecute_InvalidCash(t *testing.T) {
	f := newFixture(t)
	_, err := newExecution(f, &memPortfolios{}).Execute(context.Background(), models.ExecuteInvestmentRequest{Cash: -1})
	assert.True(t, models.IsInvalidBudget(err))
}

func TestPortfolio_GetAndRiskAssessment(t *testing.T) {
	f := newFixture(t)
	store := &memPortfolios{}
	exec := newExecution(f, store)
	res, err := exec.Execute(context.Background(), models.ExecuteInvestmentRequest{
		Cash:   1000,
		Orders: []models.Order{{Symbol: "0050", Shares: 2, Price: 150}},
	})
	require.NoError(t, err)

	uc := NewPortfolioUseCase(store, f.universe, f.source, f.engine, f.overview, nil, f.fetchConfig())
	view, err := uc.Get(context.Background(), res.PortfolioID)
	require.NoError(t, err)

	last, _ := f.source.series["0050.TW"].Last()
	require.Len(t, view.Positions, 1)
	assert.Equal(t, last.Close, view.Positions[0].Price)
	assert.Equal(t, 300.0, view.CostBasis)
	assert.InDelta(t, 2*last.Close, view.MarketValue, 1e-9)
	assert.InDelta(t, 2*last.Close-300, view.UnrealizedPnL, 0.01)
	assert.Equal(t, 1.0, view.Positions[0].Weight)

	risk, err := uc.RiskAssessment(context.Background(), res.PortfolioID)
	require.NoError(t, err)
	kinds := map[models.AlertKind]bool{}
	for _, a := range risk.Alerts {
		kinds[a.Kind] = true
	}
	assert.True(t, kinds[models.AlertConcentration])
	assert.True(t, kinds[models.AlertDiversification])
	assert.NotEqual(t, models.SeverityLow, risk.RiskLevel)

	_, err = uc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrPortfolioNotFound)
}

func TestInstrumentDetail(t *testing.T) {
	f := newFixture(t)
	uc := NewInstrumentUseCase(f.universe, f.source, f.engine, domrepo.Range1y)

	assert.Len(t, uc.List(), 3)

	d, err := uc.Detail(context.Background(), "0050")
	require.NoError(t, err)
	assert.Equal(t, "0050", d.Score.Symbol)
	assert.Equal(t, "0050", d.Indicators.Symbol)
	assert.GreaterOrEqual(t, d.Score.Score, 0.0)

	_, err = uc.Detail(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrUnknownSymbol)

	f.source.series["0056.TW"] = series("0056.TW", 5, 38, 0)
	_, err = uc.Detail(context.Background(), "0056")
	assert.True(t, models.IsInsufficientData(err))

	f.source.errs["0052.TW"] = errors.New("timeout")
	_, err = uc.Detail(context.Background(), "0052")
	assert.ErrorIs(t, err, models.ErrMarketData)
}

func TestFetchAll_KeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.source.errs["0056.TW"] = errors.New("boom")

	cands, skipped := fetchAll(context.Background(), f.source, f.universe.List(), FetchConfig{Concurrency: 1})
	require.Len(t, cands, 2)
	assert.Equal(t, "0050", cands[0].Instrument.Symbol)
	assert.Equal(t, "0052", cands[1].Instrument.Symbol)
	require.Len(t, skipped, 1)
	assert.Equal(t, "0056", skipped[0].Symbol)
}
