// internal/forecast/holtwinters.go
package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// smoothingGrid is the coarse parameter grid searched when fitting the
// exponential smoothing models. Continuous optimization buys little on noisy
// demand series and the grid keeps the fit deterministic.
var smoothingGrid = []float64{0.1, 0.3, 0.5, 0.7, 0.9}

// fitSmoothing fits additive Holt-Winters when at least two full seasons are
// available, otherwise plain Holt (level+trend smoothing). Returns ok=false
// when every candidate fit is degenerate.
func fitSmoothing(series []float64, horizon, period int) ([]float64, bool) {
	if len(series) >= 2*period {
		if fc, ok := fitHoltWinters(series, horizon, period); ok {
			return fc, true
		}
	}
	return fitHolt(series, horizon)
}

// fitHoltWinters runs the additive trend+seasonal recursions for every
// (alpha, beta, gamma) in the grid and forecasts with the lowest in-sample
// squared error.
func fitHoltWinters(series []float64, horizon, period int) ([]float64, bool) {
	bestSSE := math.Inf(1)
	var best []float64

	for _, alpha := range smoothingGrid {
		for _, beta := range smoothingGrid {
			for _, gamma := range smoothingGrid {
				fc, sse := holtWintersPass(series, horizon, period, alpha, beta, gamma)
				if !math.IsInf(sse, 0) && !math.IsNaN(sse) && sse < bestSSE {
					bestSSE = sse
					best = fc
				}
			}
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func holtWintersPass(series []float64, horizon, period int, alpha, beta, gamma float64) ([]float64, float64) {
	n := len(series)

	// Initial state from the first two seasons.
	firstSeason := stat.Mean(series[:period], nil)
	secondSeason := stat.Mean(series[period:2*period], nil)
	level := firstSeason
	trend := (secondSeason - firstSeason) / float64(period)

	seasonal := make([]float64, n)
	for i := 0; i < period; i++ {
		seasonal[i] = series[i] - firstSeason
	}

	sse := 0.0
	for t := period; t < n; t++ {
		fitted := level + trend + seasonal[t-period]
		err := series[t] - fitted
		sse += err * err

		prevLevel := level
		level = alpha*(series[t]-seasonal[t-period]) + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
		seasonal[t] = gamma*(series[t]-level) + (1-gamma)*seasonal[t-period]

		if math.IsNaN(level) || math.IsInf(level, 0) {
			return nil, math.Inf(1)
		}
	}

	fc := make([]float64, horizon)
	for k := 1; k <= horizon; k++ {
		idx := n - period + (k-1)%period
		fc[k-1] = level + float64(k)*trend + seasonal[idx]
	}
	return fc, sse
}

// fitHolt is the non-seasonal half of the smoothing family, used when the
// history cannot support a seasonal estimate.
func fitHolt(series []float64, horizon int) ([]float64, bool) {
	if len(series) < 2 {
		return nil, false
	}

	bestSSE := math.Inf(1)
	var best []float64

	for _, alpha := range smoothingGrid {
		for _, beta := range smoothingGrid {
			level := series[0]
			trend := series[1] - series[0]
			sse := 0.0

			for t := 1; t < len(series); t++ {
				fitted := level + trend
				err := series[t] - fitted
				sse += err * err

				prevLevel := level
				level = alpha*series[t] + (1-alpha)*(level+trend)
				trend = beta*(level-prevLevel) + (1-beta)*trend
			}

			if math.IsNaN(sse) || math.IsInf(sse, 0) || sse >= bestSSE {
				continue
			}
			bestSSE = sse
			fc := make([]float64, horizon)
			for k := 1; k <= horizon; k++ {
				fc[k-1] = level + float64(k)*trend
			}
			best = fc
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}
