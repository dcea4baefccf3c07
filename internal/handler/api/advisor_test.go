package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/usecase"
)

const portfolioID = "7b0c1c3e-5d1a-4f3e-9a57-1f0c2d9b8e11"

type stubOverview struct{}

func (stubOverview) Overview(context.Context) models.MarketOverview {
	return models.MarketOverview{Regime: models.MarketRegime{Strategy: models.StrategyBalanced, InvestmentRatio: 0.6}}
}

type stubRecommender struct {
	last usecase.RecommendParams
	err  error
}

func (s *stubRecommender) Recommend(_ context.Context, p usecase.RecommendParams) (models.RecommendationResult, error) {
	s.last = p
	if s.err != nil {
		return models.RecommendationResult{}, s.err
	}
	if p.Cash <= 0 {
		return models.RecommendationResult{}, &models.InvalidBudgetError{Cash: p.Cash}
	}
	return models.RecommendationResult{Cash: p.Cash, RiskTolerance: models.RiskTolerance(p.RiskTolerance)}, nil
}

func (s *stubRecommender) Quick(ctx context.Context, tol string) (models.RecommendationResult, error) {
	return s.Recommend(ctx, usecase.RecommendParams{Cash: usecase.QuickCash, Top: usecase.QuickTop, RiskTolerance: tol})
}

type stubExecutor struct{}

func (stubExecutor) Execute(_ context.Context, req models.ExecuteInvestmentRequest) (models.ExecutionResult, error) {
	if req.Cash <= 0 {
		return models.ExecutionResult{}, &models.InvalidBudgetError{Cash: req.Cash}
	}
	return models.ExecutionResult{PortfolioID: portfolioID, RemainingCash: req.Cash}, nil
}

type stubPortfolios struct{}

func (stubPortfolios) Get(_ context.Context, id string) (models.PortfolioView, error) {
	if id != portfolioID {
		return models.PortfolioView{}, models.ErrPortfolioNotFound
	}
	return models.PortfolioView{ID: id}, nil
}

func (stubPortfolios) RiskAssessment(_ context.Context, id string) (models.RiskAssessment, error) {
	if id != portfolioID {
		return models.RiskAssessment{}, models.ErrPortfolioNotFound
	}
	return models.RiskAssessment{PortfolioID: id, RiskLevel: models.SeverityLow, Alerts: []models.RiskAlert{}}, nil
}

type stubInstruments struct{}

func (stubInstruments) List() []models.Instrument {
	return []models.Instrument{{Symbol: "0050"}, {Symbol: "0056"}}
}

func (stubInstruments) Detail(_ context.Context, symbol string) (models.InstrumentDetail, error) {
	switch symbol {
	case "0050":
		return models.InstrumentDetail{Instrument: models.Instrument{Symbol: "0050"}}, nil
	case "0052":
		return models.InstrumentDetail{}, errors.Join(models.ErrMarketData, errors.New("timeout"))
	case "00919":
		return models.InstrumentDetail{}, &models.InsufficientDataError{Symbol: symbol, Have: 5, Need: 20}
	default:
		return models.InstrumentDetail{}, models.ErrUnknownSymbol
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, rec *stubRecommender) (*echo.Echo, *AdvisorHandler) {
	t.Helper()
	h := NewAdvisorHandler(nil, AdvisorDeps{
		Overview:    stubOverview{},
		Recommender: rec,
		Executor:    stubExecutor{},
		Portfolios:  stubPortfolios{},
		Instruments: stubInstruments{},
	}, time.Second)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func errorCode(t *testing.T, env envelope) string {
	t.Helper()
	var errs []struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.NotEmpty(t, errs)
	return errs[0].Code
}

func TestInvestmentAdvice(t *testing.T) {
	rec := &stubRecommender{}
	e, _ := newTestServer(t, rec)

	res, env := do(t, e, http.MethodGet, "/api/investment-advice?cash=50000&top=3&symbols=0050,0056&symbols=00878", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, http.StatusOK, env.Status)
	assert.Equal(t, 50000.0, rec.last.Cash)
	assert.Equal(t, 3, rec.last.Top)
	assert.Equal(t, "medium", rec.last.RiskTolerance)
	assert.Equal(t, []string{"0050", "0056", "00878"}, rec.last.Symbols)

	res, _ = do(t, e, http.MethodPost, "/api/investment-advice", `{"cash":80000,"risk_tolerance":"high"}`)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "high", rec.last.RiskTolerance)
}

func TestInvestmentAdvice_InvalidBudget(t *testing.T) {
	e, _ := newTestServer(t, &stubRecommender{})

	res, env := do(t, e, http.MethodGet, "/api/investment-advice?cash=0", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "ERR_INVALID_BUDGET", errorCode(t, env))
}

func TestInvestmentAdvice_ValidationErrors(t *testing.T) {
	e, _ := newTestServer(t, &stubRecommender{})

	res, env := do(t, e, http.MethodGet, "/api/investment-advice?cash=1000&risk_tolerance=yolo", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "ERR_ONEOF", errorCode(t, env))

	res, env = do(t, e, http.MethodGet, "/api/investment-advice?cash=1000&top=99", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "ERR_LTE", errorCode(t, env))
}

func TestInvestmentAdvice_UnknownSymbolAndUpstream(t *testing.T) {
	rec := &stubRecommender{err: models.ErrUnknownSymbol}
	e, _ := newTestServer(t, rec)
	res, env := do(t, e, http.MethodGet, "/api/investment-advice?cash=1000&symbols=9999", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "ERR_NOT_FOUND", errorCode(t, env))

	rec.err = errors.New("boom")
	res, _ = do(t, e, http.MethodGet, "/api/investment-advice?cash=1000", "")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestDailyRecommendation(t *testing.T) {
	rec := &stubRecommender{}
	e, _ := newTestServer(t, rec)

	res, _ := do(t, e, http.MethodGet, "/api/daily-recommendation", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, 100000.0, rec.last.Cash)
	assert.Equal(t, 5, rec.last.Top)

	res, _ = do(t, e, http.MethodGet, "/api/daily-recommendation/quick?risk_tolerance=low", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "low", rec.last.RiskTolerance)
	assert.Equal(t, float64(usecase.QuickCash), rec.last.Cash)
}

func TestExecuteInvestment(t *testing.T) {
	e, _ := newTestServer(t, &stubRecommender{})

	res, env := do(t, e, http.MethodPost, "/api/execute-investment", `{"cash":1000,"orders":[{"symbol":"0050","shares":2,"price":150}]}`)
	assert.Equal(t, http.StatusCreated, res.Code)
	var out models.ExecutionResult
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, portfolioID, out.PortfolioID)

	res, env = do(t, e, http.MethodPost, "/api/execute-investment", `{"cash":-5,"orders":[{"symbol":"0050","shares":2,"price":150}]}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "ERR_INVALID_BUDGET", errorCode(t, env))

	res, env = do(t, e, http.MethodPost, "/api/execute-investment", `{"cash":1000,"orders":[]}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "ERR_MIN", errorCode(t, env))
}

func TestPortfolioRoutes(t *testing.T) {
	e, _ := newTestServer(t, &stubRecommender{})

	res, _ := do(t, e, http.MethodGet, "/api/portfolio/"+portfolioID, "")
	assert.Equal(t, http.StatusOK, res.Code)

	res, _ = do(t, e, http.MethodGet, "/api/risk-assessment/"+portfolioID, "")
	assert.Equal(t, http.StatusOK, res.Code)

	res, env := do(t, e, http.MethodGet, "/api/portfolio/5f1b8a52-6a0e-4c55-8a3e-2b1c9a7d4e10", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "ERR_NOT_FOUND", errorCode(t, env))

	res, env = do(t, e, http.MethodGet, "/api/portfolio/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "ERR_UUID", errorCode(t, env))
}

func TestInstrumentRoutes(t *testing.T) {
	e, _ := newTestServer(t, &stubRecommender{})

	res, env := do(t, e, http.MethodGet, "/api/etf-list", "")
	assert.Equal(t, http.StatusOK, res.Code)
	var list struct {
		Rows  []models.Instrument `json:"rows"`
		Total int64               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(2), list.Total)

	res, _ = do(t, e, http.MethodGet, "/api/etf/0050", "")
	assert.Equal(t, http.StatusOK, res.Code)

	res, _ = do(t, e, http.MethodGet, "/api/etf/9999", "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res, env = do(t, e, http.MethodGet, "/api/etf/0052", "")
	assert.Equal(t, http.StatusBadGateway, res.Code)
	assert.Equal(t, "ERR_UPSTREAM", errorCode(t, env))

	res, _ = do(t, e, http.MethodGet, "/api/etf/00919", "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
}

func TestMarketOverviewAndHealth(t *testing.T) {
	e, h := newTestServer(t, &stubRecommender{})

	res, env := do(t, e, http.MethodGet, "/api/market-overview", "")
	assert.Equal(t, http.StatusOK, res.Code)
	var ov models.MarketOverview
	require.NoError(t, json.Unmarshal(env.Data, &ov))
	assert.Equal(t, models.StrategyBalanced, ov.Regime.Strategy)

	h.AddHealthCheck("cache", func(context.Context) error { return nil })
	res, _ = do(t, e, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, res.Code)

	h.AddHealthCheck("clickhouse", func(context.Context) error { return errors.New("connection refused") })
	res, env = do(t, e, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Contains(t, string(env.Data), "degraded")
}

func TestFlattenSymbols(t *testing.T) {
	assert.Equal(t, []string{"0050", "0056"}, flattenSymbols([]string{" 0050 , 0056"}))
	assert.Nil(t, flattenSymbols(nil))
}
