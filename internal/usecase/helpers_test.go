package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
	"ETFAdvisor/internal/repository"
	"ETFAdvisor/internal/services/analytics"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// series builds n daily bars around base with a drift and a small wave.
func series(symbol string, n int, base, drift float64) models.PriceSeries {
	s := models.PriceSeries{Symbol: symbol, Bars: make([]models.PriceBar, n)}
	for i := 0; i < n; i++ {
		c := base * (1 + drift*float64(i) + 0.01*math.Sin(float64(i)))
		s.Bars[i] = models.PriceBar{Symbol: symbol, Time: day0.AddDate(0, 0, i), Close: math.Round(c*100) / 100, Volume: 5_000_000}
	}
	return s
}

type fakeSource struct {
	mu     sync.Mutex
	series map[string]models.PriceSeries
	errs   map[string]error
	calls  map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		series: map[string]models.PriceSeries{},
		errs:   map[string]error{},
		calls:  map[string]int{},
	}
}

func (f *fakeSource) FetchSeries(_ context.Context, symbol string, _ domrepo.HistoryRange) (models.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	if err, ok := f.errs[symbol]; ok {
		return models.PriceSeries{}, err
	}
	s, ok := f.series[symbol]
	if !ok {
		return models.PriceSeries{}, errors.New("not found")
	}
	return s, nil
}

func (f *fakeSource) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type publishedEvent struct {
	Type    string
	Key     string
	Payload interface{}
}

type fakeEvents struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakeEvents) PublishEvent(_ context.Context, eventType, key string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{eventType, key, payload})
	return nil
}

type nopMetrics struct {
	mu     sync.Mutex
	errors map[string]int
	sent   int
	regime string
}

func newNopMetrics() *nopMetrics { return &nopMetrics{errors: map[string]int{}} }

func (m *nopMetrics) RecordMessageSent(string, string) {
	m.mu.Lock()
	m.sent++
	m.mu.Unlock()
}
func (m *nopMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *nopMetrics) RecordLastPrice(string, float64) {}
func (m *nopMetrics) RecordLatency(string, float64)   {}
func (m *nopMetrics) RecordRegime(strategy string, _ float64) {
	m.mu.Lock()
	m.regime = strategy
	m.mu.Unlock()
}

type memPortfolios struct {
	mu sync.Mutex
	m  map[string]models.Portfolio
}

func (s *memPortfolios) Save(_ context.Context, p models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[string]models.Portfolio{}
	}
	s.m[p.ID] = p
	return nil
}

func (s *memPortfolios) Get(_ context.Context, id string) (models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[id]
	if !ok {
		return models.Portfolio{}, models.ErrPortfolioNotFound
	}
	return p, nil
}

func testUniverse() *repository.ConfigUniverse {
	er := 0.004
	return repository.NewConfigUniverse([]models.Instrument{
		{Symbol: "0050", Name: "Top 50", Suffix: ".TW", ExpenseRatio: &er},
		{Symbol: "0056", Name: "High Dividend", Suffix: ".TW", ExpenseRatio: &er},
		{Symbol: "0052", Name: "Technology", Suffix: ".TW"},
	})
}

func testEngine(t *testing.T) *analytics.Engine {
	t.Helper()
	e, err := analytics.NewEngine()
	require.NoError(t, err)
	return e
}

type fixture struct {
	source   *fakeSource
	events   *fakeEvents
	metrics  *nopMetrics
	engine   *analytics.Engine
	universe *repository.ConfigUniverse
	overview *MarketOverviewUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source:   newFakeSource(),
		events:   &fakeEvents{},
		metrics:  newNopMetrics(),
		engine:   testEngine(t),
		universe: testUniverse(),
	}
	f.source.series["^TWII"] = series("^TWII", 60, 18000, 0.002)
	f.source.series["^VIX"] = series("^VIX", 5, 16, 0)
	f.source.series["0050.TW"] = series("0050.TW", 260, 150, 0.0005)
	f.source.series["0056.TW"] = series("0056.TW", 260, 38, 0.0002)
	f.source.series["0052.TW"] = series("0052.TW", 260, 120, 0.0008)
	f.overview = NewMarketOverviewUseCase(f.source, f.engine, f.metrics, nil, "^TWII", "^VIX", models.MacroGreen, time.Second)
	return f
}

func (f *fixture) fetchConfig() FetchConfig {
	return FetchConfig{Range: domrepo.Range1y, Concurrency: 2, Timeout: 2 * time.Second}
}
