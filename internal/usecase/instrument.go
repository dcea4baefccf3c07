package usecase

import (
	"context"
	"fmt"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
	"ETFAdvisor/internal/domain/service"
)

// InstrumentUseCase serves the catalog and the per-instrument view.
type InstrumentUseCase struct {
	universe domrepo.Universe
	source   domrepo.MarketDataSource
	engine   service.Advisor
	rng      domrepo.HistoryRange
}

func NewInstrumentUseCase(universe domrepo.Universe, source domrepo.MarketDataSource, engine service.Advisor, rng domrepo.HistoryRange) *InstrumentUseCase {
	if !domrepo.IsValidRange(rng) {
		rng = domrepo.DefaultRange()
	}
	return &InstrumentUseCase{universe: universe, source: source, engine: engine, rng: rng}
}

func (uc *InstrumentUseCase) List() []models.Instrument {
	return uc.universe.List()
}

// Detail computes indicators and the score of one instrument.
func (uc *InstrumentUseCase) Detail(ctx context.Context, symbol string) (models.InstrumentDetail, error) {
	in, err := uc.universe.Get(symbol)
	if err != nil {
		return models.InstrumentDetail{}, err
	}
	series, err := uc.source.FetchSeries(ctx, in.QuoteSymbol(), uc.rng)
	if err != nil {
		return models.InstrumentDetail{}, fmt.Errorf("fetch %s: %w: %w", in.Symbol, models.ErrMarketData, err)
	}
	series.Symbol = in.Symbol
	ind, err := uc.engine.ComputeIndicators(series)
	if err != nil {
		return models.InstrumentDetail{}, err
	}
	return models.InstrumentDetail{
		Instrument: in,
		Indicators: ind,
		Score:      uc.engine.ScoreInstrument(ind, in),
	}, nil
}
