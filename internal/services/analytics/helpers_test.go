package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
)

var day0 = time.Date(2024, 1, 2, 5, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	return e
}

func seriesOf(symbol string, closes []float64, volume float64) models.PriceSeries {
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Symbol: symbol,
			Time:   day0.AddDate(0, 0, i),
			Close:  c,
			Volume: volume,
		}
	}
	return models.PriceSeries{Symbol: symbol, Bars: bars}
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// wave oscillates around a drifting base so RSI and percentile land mid-range.
func wave(n int, base, drift, amp float64, phase float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + drift*float64(i) + amp*math.Sin(float64(i)/3+phase)
	}
	return out
}

func ptr(v float64) *float64 { return &v }
