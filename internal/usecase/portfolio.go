package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
	"ETFAdvisor/internal/domain/service"
	"ETFAdvisor/pkg/logger"
)

// PortfolioUseCase re-prices simulated portfolios and checks them for risk.
type PortfolioUseCase struct {
	portfolios domrepo.PortfolioStore
	universe   domrepo.Universe
	source     domrepo.MarketDataSource
	engine     service.Advisor
	overview   *MarketOverviewUseCase
	log        *logger.Logger
	fetch      FetchConfig
	now        func() time.Time
}

func NewPortfolioUseCase(
	portfolios domrepo.PortfolioStore,
	universe domrepo.Universe,
	source domrepo.MarketDataSource,
	engine service.Advisor,
	overview *MarketOverviewUseCase,
	log *logger.Logger,
	fetch FetchConfig,
) *PortfolioUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &PortfolioUseCase{
		portfolios: portfolios,
		universe:   universe,
		source:     source,
		engine:     engine,
		overview:   overview,
		log:        log.With(logger.String("usecase", "portfolio")),
		fetch:      fetch.withDefaults(),
		now:        time.Now,
	}
}

// Get returns the portfolio valued at the latest close of each holding.
// A holding whose price cannot be loaded is valued at cost.
func (uc *PortfolioUseCase) Get(ctx context.Context, id string) (models.PortfolioView, error) {
	p, err := uc.portfolios.Get(ctx, id)
	if err != nil {
		return models.PortfolioView{}, err
	}
	positions, _ := uc.revalue(ctx, p)

	view := models.PortfolioView{
		ID:        p.ID,
		Cash:      p.Cash,
		Positions: positions,
		CreatedAt: p.CreatedAt,
	}
	value, cost := decimal.Zero, decimal.Zero
	for i, pos := range positions {
		value = value.Add(decimal.NewFromFloat(pos.Amount))
		cost = cost.Add(decimal.NewFromInt(pos.Shares).Mul(decimal.NewFromFloat(p.Holdings[i].CostPrice)))
	}
	view.MarketValue = value.Round(2).InexactFloat64()
	view.CostBasis = cost.Round(2).InexactFloat64()
	view.UnrealizedPnL = value.Sub(cost).Round(2).InexactFloat64()
	return view, nil
}

// RiskAssessment runs the alert generator over the re-priced portfolio and
// the current market regime.
func (uc *PortfolioUseCase) RiskAssessment(ctx context.Context, id string) (models.RiskAssessment, error) {
	p, err := uc.portfolios.Get(ctx, id)
	if err != nil {
		return models.RiskAssessment{}, err
	}
	positions, scores := uc.revalue(ctx, p)
	regime := uc.engine.ClassifyRegime(uc.overview.Signals(ctx))

	invested := 0.0
	for _, pos := range positions {
		invested += pos.Amount
	}
	alloc := models.Allocation{
		Positions:       positions,
		Investable:      invested,
		AmountAllocated: invested,
		RemainingCash:   p.Cash,
	}
	alerts := uc.engine.GenerateAlerts(scores, regime, alloc, p.Cash+invested)

	level := models.SeverityLow
	switch {
	case len(alerts) > 2:
		level = models.SeverityHigh
	case len(alerts) > 0:
		level = models.SeverityMedium
	}
	return models.RiskAssessment{
		PortfolioID: p.ID,
		Regime:      regime,
		Alerts:      alerts,
		RiskLevel:   level,
		Timestamp:   uc.now(),
	}, nil
}

// revalue prices every holding and scores it when its history allows.
// Positions keep the holding order; weights are shares of the invested value.
func (uc *PortfolioUseCase) revalue(ctx context.Context, p models.Portfolio) ([]models.Position, []models.InstrumentScore) {
	instruments := make([]models.Instrument, len(p.Holdings))
	for i, h := range p.Holdings {
		in, err := uc.universe.Get(h.Symbol)
		if err != nil {
			in = models.Instrument{Symbol: h.Symbol}
		}
		instruments[i] = in
	}
	candidates, _ := fetchAll(ctx, uc.source, instruments, uc.fetch)
	series := make(map[string]models.PriceSeries, len(candidates))
	for _, c := range candidates {
		series[c.Instrument.Symbol] = c.Series
	}

	positions := make([]models.Position, len(p.Holdings))
	scores := make([]models.InstrumentScore, 0, len(p.Holdings))
	total := decimal.Zero
	for i, h := range p.Holdings {
		pos := models.Position{
			Symbol:   h.Symbol,
			Name:     instruments[i].Name,
			Category: instruments[i].Category,
			Shares:   h.Shares,
			Price:    h.CostPrice,
		}
		if s, ok := series[h.Symbol]; ok {
			if last, ok := s.Last(); ok && last.Valid() {
				pos.Price = last.Close
			}
			s.Symbol = h.Symbol
			if ind, err := uc.engine.ComputeIndicators(s); err == nil {
				sc := uc.engine.ScoreInstrument(ind, instruments[i])
				pos.Score, pos.Rating, pos.Band = sc.Score, sc.Rating, sc.Band
				pos.Volatility = sc.Volatility
				scores = append(scores, sc)
			} else {
				uc.log.Debug("holding not scored", logger.String("symbol", h.Symbol), logger.Error(err))
			}
		}
		amount := decimal.NewFromInt(h.Shares).Mul(decimal.NewFromFloat(pos.Price)).Round(2)
		pos.Amount = amount.InexactFloat64()
		pos.Allocated = pos.Amount
		total = total.Add(amount)
		positions[i] = pos
	}
	if total.IsPositive() {
		for i := range positions {
			positions[i].Weight = decimal.NewFromFloat(positions[i].Amount).Div(total).Round(6).InexactFloat64()
		}
	}
	return positions, scores
}
