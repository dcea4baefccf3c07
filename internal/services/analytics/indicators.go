package analytics

import (
	"fmt"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/services/features"
)

// ComputeIndicators derives moving averages, RSI, price percentile and band
// from a daily series. Any invalid close is treated as a gap and rejected.
func (e *Engine) ComputeIndicators(series models.PriceSeries) (models.IndicatorSet, error) {
	need := e.cfg.minObservations()
	n := series.Len()
	for i, b := range series.Bars {
		if !b.Valid() {
			return models.IndicatorSet{}, &models.InsufficientDataError{
				Symbol: series.Symbol,
				Have:   n,
				Need:   need,
				Reason: fmt.Sprintf("invalid close at index %d", i),
			}
		}
	}
	if n < need {
		return models.IndicatorSet{}, &models.InsufficientDataError{Symbol: series.Symbol, Have: n, Need: need}
	}

	closes := series.Closes()
	pct := pricePercentile(tail(closes, e.cfg.PercentileLookback))
	returns := features.ComputeLogReturns(closes)
	volWindow := e.cfg.LongWindow
	if volWindow > len(returns) {
		volWindow = len(returns)
	}

	ind := models.IndicatorSet{
		Symbol:       series.Symbol,
		LastClose:    closes[n-1],
		MAShort:      sma(closes, e.cfg.ShortWindow),
		MALong:       sma(closes, e.cfg.LongWindow),
		RSI:          relativeStrength(closes, e.cfg.RSIWindow),
		Percentile:   pct,
		Band:         e.band(pct),
		Volatility:   features.RealizedVolatility(returns, volWindow, features.TradingDaysPerYear),
		Observations: n,
	}
	if avg, ok := features.AverageVolume(series.Volumes(), e.cfg.LongWindow); ok {
		ind.AvgVolume = &avg
	}
	return ind, nil
}

// band maps a percentile to its valuation band. Bounds are inclusive upper limits.
func (e *Engine) band(pct float64) models.PriceBand {
	b := e.cfg.BandBounds
	switch {
	case pct <= b[0]:
		return models.BandDeepValue
	case pct <= b[1]:
		return models.BandBelowAverage
	case pct <= b[2]:
		return models.BandFair
	case pct <= b[3]:
		return models.BandAboveAverage
	default:
		return models.BandExpensive
	}
}

// sma is the arithmetic mean of the trailing window.
func sma(values []float64, window int) float64 {
	w := tail(values, window)
	if len(w) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	return sum / float64(len(w))
}

// relativeStrength computes RSI from the mean gain and mean loss of the last
// window price changes. No losses saturates at 100, no gains at 0, a flat
// window is neutral.
func relativeStrength(closes []float64, window int) float64 {
	if window <= 0 || len(closes) < 2 {
		return 50
	}
	changes := tail(closes, window+1)
	var gain, loss float64
	for i := 1; i < len(changes); i++ {
		d := changes[i] - changes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	steps := float64(len(changes) - 1)
	avgGain, avgLoss := gain/steps, loss/steps
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50
	case avgLoss == 0:
		return 100
	case avgGain == 0:
		return 0
	}
	rs := avgGain / avgLoss
	return clampScore(100 - 100/(1+rs))
}

// pricePercentile places the latest value inside the window's min/max range.
func pricePercentile(window []float64) float64 {
	if len(window) == 0 {
		return 50
	}
	lo, hi := window[0], window[0]
	for _, v := range window {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return 50
	}
	return clampScore((window[len(window)-1] - lo) / (hi - lo) * 100)
}

func tail(values []float64, n int) []float64 {
	if n <= 0 || n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}
