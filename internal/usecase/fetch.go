package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
)

// FetchConfig controls how price history is loaded for a batch of instruments.
type FetchConfig struct {
	Range       domrepo.HistoryRange
	Concurrency int
	Timeout     time.Duration
}

func (c FetchConfig) withDefaults() FetchConfig {
	if !domrepo.IsValidRange(c.Range) {
		c.Range = domrepo.DefaultRange()
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	return c
}

// fetchAll loads the series of every instrument with bounded concurrency.
// Failures become skipped entries; results keep the input order.
func fetchAll(ctx context.Context, source domrepo.MarketDataSource, instruments []models.Instrument, cfg FetchConfig) ([]models.EvaluationCandidate, []models.SkippedInstrument) {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	type item struct {
		idx    int
		series models.PriceSeries
		err    error
	}
	ch := make(chan item, len(instruments))
	sem := make(chan struct{}, cfg.Concurrency)
	var wg sync.WaitGroup

	for i, in := range instruments {
		wg.Add(1)
		go func(i int, in models.Instrument) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				ch <- item{idx: i, err: ctx.Err()}
				return
			}
			s, err := source.FetchSeries(ctx, in.QuoteSymbol(), cfg.Range)
			ch <- item{idx: i, series: s, err: err}
		}(i, in)
	}
	go func() { wg.Wait(); close(ch) }()

	results := make([]item, len(instruments))
	for it := range ch {
		results[it.idx] = it
	}

	candidates := make([]models.EvaluationCandidate, 0, len(instruments))
	var skipped []models.SkippedInstrument
	for i, in := range instruments {
		r := results[i]
		if r.err != nil {
			skipped = append(skipped, models.SkippedInstrument{Symbol: in.Symbol, Reason: fmt.Sprintf("fetch failed: %v", r.err)})
			continue
		}
		candidates = append(candidates, models.EvaluationCandidate{Instrument: in, Series: r.series})
	}
	return candidates, skipped
}
