package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
	"ETFAdvisor/pkg/logger"
)

const (
	EventInvestmentExecuted = "investment.executed"

	simulatedNote = "simulated execution: no order was sent to a broker"
)

// ExecutionUseCase acknowledges investment requests without trading. The
// resulting portfolio is kept in the portfolio store for a limited time.
type ExecutionUseCase struct {
	universe   domrepo.Universe
	portfolios domrepo.PortfolioStore
	events     domrepo.EventPublisher
	log        *logger.Logger
	now        func() time.Time
	newID      func() string
}

func NewExecutionUseCase(universe domrepo.Universe, portfolios domrepo.PortfolioStore, events domrepo.EventPublisher, log *logger.Logger) *ExecutionUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ExecutionUseCase{
		universe:   universe,
		portfolios: portfolios,
		events:     events,
		log:        log.With(logger.String("usecase", "execution")),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Execute fills orders in sequence while the cumulative cost stays within
// cash. Orders that cannot be filled are reported as failed with a reason.
func (uc *ExecutionUseCase) Execute(ctx context.Context, req models.ExecuteInvestmentRequest) (models.ExecutionResult, error) {
	if math.IsNaN(req.Cash) || math.IsInf(req.Cash, 0) || req.Cash <= 0 {
		return models.ExecutionResult{}, &models.InvalidBudgetError{Cash: req.Cash}
	}

	now := uc.now()
	remaining := decimal.NewFromFloat(req.Cash)
	invested := decimal.Zero
	executions := make([]models.Execution, 0, len(req.Orders))
	holdings := make([]models.Holding, 0, len(req.Orders))

	for _, o := range req.Orders {
		ex := models.Execution{Symbol: o.Symbol, Shares: o.Shares, Price: o.Price, Status: models.ExecutionFailed}
		in, err := uc.universe.Get(o.Symbol)
		switch {
		case err != nil:
			ex.Reason = "unknown symbol"
		case o.Shares <= 0:
			ex.Reason = "shares must be positive"
		case math.IsNaN(o.Price) || o.Price <= 0:
			ex.Reason = "price must be positive"
		}
		if ex.Reason != "" {
			executions = append(executions, ex)
			continue
		}

		cost := decimal.NewFromInt(o.Shares).Mul(decimal.NewFromFloat(o.Price)).Round(2)
		if cost.GreaterThan(remaining) {
			ex.Reason = fmt.Sprintf("insufficient cash: need %s, have %s", cost.StringFixed(2), remaining.StringFixed(2))
			executions = append(executions, ex)
			continue
		}
		remaining = remaining.Sub(cost)
		invested = invested.Add(cost)
		ex.Symbol = in.Symbol
		ex.Amount = cost.InexactFloat64()
		ex.Status = models.ExecutionExecuted
		executions = append(executions, ex)
		holdings = append(holdings, models.Holding{Symbol: in.Symbol, Shares: o.Shares, CostPrice: o.Price})
	}

	result := models.ExecutionResult{
		PortfolioID:   uc.newID(),
		Executions:    executions,
		TotalInvested: invested.Round(2).InexactFloat64(),
		RemainingCash: remaining.Round(2).InexactFloat64(),
		Note:          simulatedNote,
		Timestamp:     now,
	}

	portfolio := models.Portfolio{
		ID:        result.PortfolioID,
		Cash:      result.RemainingCash,
		Holdings:  mergeHoldings(holdings),
		CreatedAt: now,
	}
	if err := uc.portfolios.Save(ctx, portfolio); err != nil {
		return models.ExecutionResult{}, fmt.Errorf("save portfolio: %w", err)
	}

	uc.log.Info("simulated investment executed",
		logger.String("portfolio_id", result.PortfolioID),
		logger.Int("orders", len(req.Orders)),
		logger.Int("holdings", len(portfolio.Holdings)),
		logger.Float64("total_invested", result.TotalInvested))

	if uc.events != nil {
		if err := uc.events.PublishEvent(ctx, EventInvestmentExecuted, result.PortfolioID, result); err != nil {
			uc.log.Warn("publish execution event failed", logger.Error(err))
		}
	}
	return result, nil
}

// mergeHoldings combines repeated symbols at their share-weighted cost.
func mergeHoldings(in []models.Holding) []models.Holding {
	out := make([]models.Holding, 0, len(in))
	index := make(map[string]int, len(in))
	for _, h := range in {
		i, ok := index[h.Symbol]
		if !ok {
			index[h.Symbol] = len(out)
			out = append(out, h)
			continue
		}
		prev := out[i]
		shares := prev.Shares + h.Shares
		cost := decimal.NewFromFloat(prev.CostPrice).Mul(decimal.NewFromInt(prev.Shares)).
			Add(decimal.NewFromFloat(h.CostPrice).Mul(decimal.NewFromInt(h.Shares))).
			Div(decimal.NewFromInt(shares)).Round(4)
		out[i] = models.Holding{Symbol: h.Symbol, Shares: shares, CostPrice: cost.InexactFloat64()}
	}
	return out
}
