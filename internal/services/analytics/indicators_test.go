package analytics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
)

func TestComputeIndicatorsFlatSeries(t *testing.T) {
	e := newTestEngine(t)
	ind, err := e.ComputeIndicators(seriesOf("0050", linear(30, 100, 0), 0))
	require.NoError(t, err)

	assert.Equal(t, 100.0, ind.MAShort)
	assert.Equal(t, 100.0, ind.MALong)
	assert.Equal(t, 50.0, ind.RSI)
	assert.Equal(t, 50.0, ind.Percentile)
	assert.Equal(t, models.BandFair, ind.Band)
	assert.Equal(t, 0.0, ind.Volatility)
	assert.Nil(t, ind.AvgVolume)
	assert.Equal(t, 30, ind.Observations)
}

func TestComputeIndicatorsRisingSeries(t *testing.T) {
	e := newTestEngine(t)
	ind, err := e.ComputeIndicators(seriesOf("0050", linear(60, 100, 1), 2_000_000))
	require.NoError(t, err)

	assert.Equal(t, 159.0, ind.LastClose)
	assert.Equal(t, 157.0, ind.MAShort)
	assert.Equal(t, 149.5, ind.MALong)
	assert.Equal(t, 100.0, ind.RSI)
	assert.Equal(t, 100.0, ind.Percentile)
	assert.Equal(t, models.BandExpensive, ind.Band)
	require.NotNil(t, ind.AvgVolume)
	assert.Equal(t, 2_000_000.0, *ind.AvgVolume)
}

func TestComputeIndicatorsFallingSeries(t *testing.T) {
	e := newTestEngine(t)
	ind, err := e.ComputeIndicators(seriesOf("0056", linear(40, 80, -0.5), 0))
	require.NoError(t, err)

	assert.Equal(t, 0.0, ind.RSI)
	assert.Equal(t, 0.0, ind.Percentile)
	assert.Equal(t, models.BandDeepValue, ind.Band)
	assert.Less(t, ind.MAShort, ind.MALong)
}

func TestComputeIndicatorsInsufficientHistory(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ComputeIndicators(seriesOf("00878", linear(5, 20, 0.1), 0))
	require.Error(t, err)
	assert.True(t, models.IsInsufficientData(err))

	var ide *models.InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, "00878", ide.Symbol)
	assert.Equal(t, 5, ide.Have)
	assert.Equal(t, 20, ide.Need)
}

func TestComputeIndicatorsRejectsInvalidClose(t *testing.T) {
	e := newTestEngine(t)
	for name, bad := range map[string]float64{
		"nan":      math.NaN(),
		"inf":      math.Inf(1),
		"zero":     0,
		"negative": -3,
	} {
		t.Run(name, func(t *testing.T) {
			closes := linear(30, 100, 1)
			closes[12] = bad
			_, err := e.ComputeIndicators(seriesOf("0050", closes, 0))
			require.Error(t, err)
			assert.True(t, models.IsInsufficientData(err))
			assert.Contains(t, err.Error(), "index 12")
		})
	}
}

func TestComputeIndicatorsBoundedForRandomSeries(t *testing.T) {
	e := newTestEngine(t)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := 20 + rng.Intn(300)
		closes := make([]float64, n)
		price := 10 + rng.Float64()*100
		for j := range closes {
			price *= 1 + (rng.Float64()-0.5)*0.08
			closes[j] = price
		}
		ind, err := e.ComputeIndicators(seriesOf("X", closes, 0))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ind.RSI, 0.0)
		assert.LessOrEqual(t, ind.RSI, 100.0)
		assert.GreaterOrEqual(t, ind.Percentile, 0.0)
		assert.LessOrEqual(t, ind.Percentile, 100.0)
	}
}

func TestPercentileUsesLookbackWindow(t *testing.T) {
	e := newTestEngine(t, WithIndicatorWindows(5, 20, 14, 30))
	// an old spike outside the 30-bar lookback must not affect the percentile
	closes := append([]float64{500}, linear(40, 100, 0.5)...)
	ind, err := e.ComputeIndicators(seriesOf("0052", closes, 0))
	require.NoError(t, err)
	assert.Equal(t, 100.0, ind.Percentile)
}

func TestBandBoundaries(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, models.BandDeepValue, e.band(20))
	assert.Equal(t, models.BandBelowAverage, e.band(20.01))
	assert.Equal(t, models.BandFair, e.band(60))
	assert.Equal(t, models.BandAboveAverage, e.band(80))
	assert.Equal(t, models.BandExpensive, e.band(80.5))
}

func TestRelativeStrengthMixedWindow(t *testing.T) {
	// gains 1,1 losses 2 over three steps: rs = (2/3)/(2/3) = 1
	assert.InDelta(t, 50.0, relativeStrength([]float64{10, 11, 12, 10}, 3), 1e-9)
}

func TestRelativeStrengthUsesSimpleMeans(t *testing.T) {
	// changes +2 -1 +3 -1: mean gain 1.25, mean loss 0.5
	assert.InDelta(t, 100-100/3.5, relativeStrength([]float64{10, 12, 11, 14, 13}, 4), 1e-9)

	// only the last window changes count; the earlier crash is ignored
	assert.Equal(t, 50.0, relativeStrength([]float64{100, 50, 51, 52, 51}, 2))
}
