package usecase

import (
	"context"
	"time"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
	"ETFAdvisor/pkg/logger"
)

// IngestReport summarises one ingest run.
type IngestReport struct {
	Symbols  int                        `json:"symbols"`
	Bars     int                        `json:"bars"`
	Failed   []models.SkippedInstrument `json:"failed,omitempty"`
	Duration time.Duration              `json:"duration"`
}

// BarIngestUseCase pulls recent bars of the universe and the benchmarks and
// hands them to the bar processor. Bars are stored under their quote symbol.
type BarIngestUseCase struct {
	universe   domrepo.Universe
	source     domrepo.MarketDataSource
	processor  *BarProcessor
	log        *logger.Logger
	benchmarks []string
	fetch      FetchConfig
}

func NewBarIngestUseCase(
	universe domrepo.Universe,
	source domrepo.MarketDataSource,
	processor *BarProcessor,
	log *logger.Logger,
	benchmarks []string,
	fetch FetchConfig,
) *BarIngestUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if !domrepo.IsValidRange(fetch.Range) {
		fetch.Range = domrepo.Range5d
	}
	return &BarIngestUseCase{
		universe:   universe,
		source:     source,
		processor:  processor,
		log:        log.With(logger.String("usecase", "bar_ingest")),
		benchmarks: benchmarks,
		fetch:      fetch.withDefaults(),
	}
}

// Run ingests one round. Per-symbol fetch failures are reported, not fatal;
// a failing backend fails the run.
func (uc *BarIngestUseCase) Run(ctx context.Context) (IngestReport, error) {
	start := time.Now()
	instruments := uc.universe.List()
	for _, b := range uc.benchmarks {
		instruments = append(instruments, models.Instrument{Symbol: b})
	}

	candidates, failed := fetchAll(ctx, uc.source, instruments, uc.fetch)
	var bars []models.PriceBar
	for _, c := range candidates {
		for _, b := range c.Series.Bars {
			if !b.Valid() {
				continue
			}
			b.Symbol = c.Series.Symbol
			if b.Symbol == "" {
				b.Symbol = c.Instrument.QuoteSymbol()
			}
			bars = append(bars, b)
		}
	}

	report := IngestReport{Symbols: len(candidates), Bars: len(bars), Failed: failed}
	if err := uc.processor.ProcessBatch(ctx, bars); err != nil {
		uc.log.Error("bar ingest failed", logger.Int("bars", len(bars)), logger.Error(err))
		return report, err
	}
	report.Duration = time.Since(start)
	uc.log.Info("bar ingest done",
		logger.Int("symbols", report.Symbols),
		logger.Int("bars", report.Bars),
		logger.Int("failed", len(failed)),
		logger.Duration("duration_ms", report.Duration))
	return report, nil
}
