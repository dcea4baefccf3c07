package features

import "math"

// TradingDaysPerYear is the annualisation factor for daily bars on TWSE.
const TradingDaysPerYear = 245

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(closes)-1, or nil if insufficient data.
// A non-positive close yields a zero return for both adjacent steps.
func ComputeLogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		cur := closes[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized realized volatility over the trailing
// window using the provided number of bars per year. Returns the latest window sigma.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// AverageVolume returns the mean of the trailing window of volumes and false
// when the window carries no traded volume at all.
func AverageVolume(volumes []float64, window int) (float64, bool) {
	if window <= 0 || len(volumes) == 0 {
		return 0, false
	}
	if window > len(volumes) {
		window = len(volumes)
	}
	sum := 0.0
	for _, v := range volumes[len(volumes)-window:] {
		if math.IsNaN(v) || v < 0 {
			continue
		}
		sum += v
	}
	if sum == 0 {
		return 0, false
	}
	return sum / float64(window), true
}

// ChangePct returns the percentage change between the first and last close.
func ChangePct(closes []float64) (float64, bool) {
	if len(closes) < 2 || closes[0] <= 0 {
		return 0, false
	}
	return (closes[len(closes)-1] - closes[0]) / closes[0] * 100, true
}
