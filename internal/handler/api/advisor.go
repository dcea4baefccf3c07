package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"ETFAdvisor/internal/domain/models"
	servicemetrics "ETFAdvisor/internal/service/metrics"
	"ETFAdvisor/internal/usecase"
	xhttp "ETFAdvisor/pkg/http"
	xlogger "ETFAdvisor/pkg/logger"
)

type MarketOverviewer interface {
	Overview(ctx context.Context) models.MarketOverview
}

type Recommender interface {
	Recommend(ctx context.Context, p usecase.RecommendParams) (models.RecommendationResult, error)
	Quick(ctx context.Context, riskTolerance string) (models.RecommendationResult, error)
}

type Executor interface {
	Execute(ctx context.Context, req models.ExecuteInvestmentRequest) (models.ExecutionResult, error)
}

type PortfolioReader interface {
	Get(ctx context.Context, id string) (models.PortfolioView, error)
	RiskAssessment(ctx context.Context, id string) (models.RiskAssessment, error)
}

type InstrumentReader interface {
	List() []models.Instrument
	Detail(ctx context.Context, symbol string) (models.InstrumentDetail, error)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// AdvisorHandler serves the advisor API under /api and the market feed.
type AdvisorHandler struct {
	logger      *xlogger.Logger
	overview    MarketOverviewer
	recommender Recommender
	executor    Executor
	portfolios  PortfolioReader
	instruments InstrumentReader
	hub         *MarketHub
	checks      map[string]HealthCheck
	timeout     time.Duration
}

// AdvisorDeps groups the use cases the handler serves.
type AdvisorDeps struct {
	Overview    MarketOverviewer
	Recommender Recommender
	Executor    Executor
	Portfolios  PortfolioReader
	Instruments InstrumentReader
	Hub         *MarketHub
}

func NewAdvisorHandler(logger *xlogger.Logger, deps AdvisorDeps, timeout time.Duration) *AdvisorHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &AdvisorHandler{
		logger:      logger.With(xlogger.String("handler", "advisor")),
		overview:    deps.Overview,
		recommender: deps.Recommender,
		executor:    deps.Executor,
		portfolios:  deps.Portfolios,
		instruments: deps.Instruments,
		hub:         deps.Hub,
		checks:      make(map[string]HealthCheck),
		timeout:     timeout,
	}
}

// AddHealthCheck registers a dependency probe for /api/health.
func (h *AdvisorHandler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

func (h *AdvisorHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/market-overview", h.MarketOverview)
	g.GET("/investment-advice", h.InvestmentAdvice)
	g.POST("/investment-advice", h.InvestmentAdvice)
	g.GET("/daily-recommendation", h.DailyRecommendation)
	g.GET("/daily-recommendation/quick", h.QuickRecommendation)
	g.POST("/execute-investment", h.ExecuteInvestment)
	g.GET("/portfolio/:id", h.Portfolio)
	g.GET("/risk-assessment/:id", h.RiskAssessment)
	g.GET("/etf-list", h.InstrumentList)
	g.GET("/etf/:symbol", h.Instrument)
	if h.hub != nil {
		e.GET("/ws/market", h.hub.Serve)
	}
}

func (h *AdvisorHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthy = false
			checks[name] = err.Error()
			h.logger.Warn("health check failed", xlogger.String("check", name), xlogger.Error(err))
			continue
		}
		checks[name] = "ok"
	}
	body := map[string]interface{}{"status": "ok", "checks": checks, "time": time.Now().UTC()}
	if !healthy {
		body["status"] = "degraded"
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, body)
	}
	return xhttp.SuccessResponse(c, body)
}

func (h *AdvisorHandler) MarketOverview(c echo.Context) error {
	start := time.Now()
	ctx, cancel := h.context(c)
	defer cancel()

	ov := h.overview.Overview(ctx)
	servicemetrics.Observe("market_overview", start, nil)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, ov)
}

func (h *AdvisorHandler) InvestmentAdvice(c echo.Context) error {
	start := time.Now()
	req := &models.AdviceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.recommender.Recommend(ctx, usecase.RecommendParams{
		Cash:          req.Cash,
		Top:           req.Top,
		RiskTolerance: req.RiskTolerance,
		Symbols:       flattenSymbols(req.Symbols),
	})
	servicemetrics.Observe("investment_advice", start, err)
	if err != nil {
		return h.fail(c, "investment advice", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorHandler) DailyRecommendation(c echo.Context) error {
	start := time.Now()
	req := &models.DailyRecommendationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.recommender.Recommend(ctx, usecase.RecommendParams{
		Cash:          req.Funds,
		Top:           req.Top,
		RiskTolerance: req.RiskTolerance,
	})
	servicemetrics.Observe("daily_recommendation", start, err)
	if err != nil {
		return h.fail(c, "daily recommendation", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorHandler) QuickRecommendation(c echo.Context) error {
	start := time.Now()
	req := &models.QuickRecommendationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.recommender.Quick(ctx, req.RiskTolerance)
	servicemetrics.Observe("quick_recommendation", start, err)
	if err != nil {
		return h.fail(c, "quick recommendation", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorHandler) ExecuteInvestment(c echo.Context) error {
	start := time.Now()
	req := &models.ExecuteInvestmentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.executor.Execute(c.Request().Context(), *req)
	servicemetrics.Observe("execute_investment", start, err)
	if err != nil {
		return h.fail(c, "execute investment", err)
	}
	return xhttp.CreatedResponse(c, res)
}

func (h *AdvisorHandler) Portfolio(c echo.Context) error {
	start := time.Now()
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.portfolios.Get(ctx, req.ID)
	servicemetrics.Observe("portfolio", start, err)
	if err != nil {
		return h.fail(c, "portfolio", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorHandler) RiskAssessment(c echo.Context) error {
	start := time.Now()
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.portfolios.RiskAssessment(ctx, req.ID)
	servicemetrics.Observe("risk_assessment", start, err)
	if err != nil {
		return h.fail(c, "risk assessment", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorHandler) InstrumentList(c echo.Context) error {
	list := h.instruments.List()
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.ListResponse(c, list, int64(len(list)))
}

func (h *AdvisorHandler) Instrument(c echo.Context) error {
	start := time.Now()
	req := &models.InstrumentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.instruments.Detail(ctx, req.Symbol)
	servicemetrics.Observe("etf_detail", start, err)
	if err != nil {
		return h.fail(c, "etf detail", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorHandler) context(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.timeout)
}

// fail maps domain errors onto the AppError envelope.
func (h *AdvisorHandler) fail(c echo.Context, op string, err error) error {
	var appErr *xhttp.AppError
	switch {
	case models.IsInvalidBudget(err):
		appErr = xhttp.InvalidBudgetError(err.Error())
	case errors.Is(err, models.ErrUnknownSymbol):
		appErr = xhttp.NotFoundErrorf("%s", err.Error())
		appErr.Field = "symbol"
	case errors.Is(err, models.ErrPortfolioNotFound):
		appErr = xhttp.NotFoundErrorf("%s", err.Error())
		appErr.Field = "id"
	case models.IsInsufficientData(err):
		appErr = xhttp.NewAppError(xhttp.CodeUpstream, "symbol", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrMarketData), errors.Is(err, context.DeadlineExceeded):
		appErr = xhttp.UpstreamError("market data unavailable")
	default:
		h.logger.Error(op+" failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError(op+" failed").WithError(err))
	}
	h.logger.Warn(op+" rejected", xlogger.String("code", appErr.Code), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, appErr.WithError(err))
}

// flattenSymbols accepts repeated and comma separated symbol values.
func flattenSymbols(in []string) []string {
	var out []string
	for _, s := range in {
		out = append(out, xhttp.ParseSymbols(strings.TrimSpace(s))...)
	}
	return out
}
