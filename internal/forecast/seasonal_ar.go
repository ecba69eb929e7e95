// internal/forecast/seasonal_ar.go
package forecast

import "math"

// fitSeasonalAR forecasts by first- and seasonally differencing the series,
// fitting z_t = phi*z_{t-1} + Phi*z_{t-period} by least squares, projecting
// the differenced series forward and re-integrating. Returns ok=false on
// insufficient usable observations, a degenerate (flat) differenced series or
// non-finite/explosive coefficients; the caller demotes to the next method.
func fitSeasonalAR(series []float64, horizon, period int) ([]float64, bool) {
	n := len(series)

	// First difference.
	w := make([]float64, n-1)
	for i := 1; i < n; i++ {
		w[i-1] = series[i] - series[i-1]
	}

	// Seasonal difference of the differenced series.
	if len(w) <= period {
		return nil, false
	}
	z := make([]float64, len(w)-period)
	for i := period; i < len(w); i++ {
		z[i-period] = w[i] - w[i-period]
	}

	phi, sphi, ok := fitAR2Lag(z, period)
	if !ok {
		return nil, false
	}

	// Project the doubly differenced series, consuming forecasts as lags.
	// fitAR2Lag guarantees len(z) >= period+4, so both lags stay in range.
	zExt := append(append([]float64(nil), z...), make([]float64, horizon)...)
	for k := len(z); k < len(zExt); k++ {
		zExt[k] = phi*zExt[k-1] + sphi*zExt[k-period]
	}

	// Undo the seasonal difference, then the first difference. A w index m
	// maps to z index m-period.
	wExt := append(append([]float64(nil), w...), make([]float64, horizon)...)
	for k := len(w); k < len(wExt); k++ {
		wExt[k] = zExt[k-period] + wExt[k-period]
	}
	fc := make([]float64, horizon)
	last := series[n-1]
	for k := 0; k < horizon; k++ {
		last += wExt[len(w)+k]
		if math.IsNaN(last) || math.IsInf(last, 0) {
			return nil, false
		}
		fc[k] = last
	}
	return fc, true
}

// fitAR2Lag solves the two-predictor least squares problem
// z_t ~ z_{t-1}, z_{t-lag} via the normal equations.
func fitAR2Lag(z []float64, lag int) (phi, sphi float64, ok bool) {
	start := lag
	if start < 1 {
		start = 1
	}
	rows := len(z) - start
	if rows < 4 {
		return 0, 0, false
	}

	var s11, s12, s22, s1y, s2y, syy float64
	for t := start; t < len(z); t++ {
		x1 := z[t-1]
		x2 := z[t-lag]
		y := z[t]
		s11 += x1 * x1
		s12 += x1 * x2
		s22 += x2 * x2
		s1y += x1 * y
		s2y += x2 * y
		syy += y * y
	}

	// Flat differenced series carries no signal to regress on.
	if syy < scaleEpsilon {
		return 0, 0, false
	}

	det := s11*s22 - s12*s12
	if math.Abs(det) < scaleEpsilon {
		return 0, 0, false
	}
	phi = (s1y*s22 - s2y*s12) / det
	sphi = (s2y*s11 - s1y*s12) / det

	if math.IsNaN(phi) || math.IsNaN(sphi) || math.IsInf(phi, 0) || math.IsInf(sphi, 0) {
		return 0, 0, false
	}
	// Explosive coefficients would blow up the recursive projection.
	if math.Abs(phi) > 1.5 || math.Abs(sphi) > 1.5 {
		return 0, 0, false
	}
	return phi, sphi, true
}
