// internal/forecast/forecasters.go
package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Forecaster maps a demand history to a forecast of the requested horizon.
// Implementations never return NaN, negative values or a short slice, even on
// empty input: insufficient data degrades to a simpler method, not an error.
type Forecaster func(series []float64, horizon int) []float64

// Method names, in fallback-ladder order (complex methods demote to simpler
// ones on numerical failure, ending at naive which is always defined).
const (
	MethodNaive       = "naive"
	MethodSMA         = "sma"
	MethodTrend       = "trend"
	MethodHoltWinters = "holtwinters"
	MethodSeasonalAR  = "seasonal_ar"
)

// SMAWindow is the default moving-average window.
const SMAWindow = 4

// seasonalPeriod is the seasonality assumed by the smoothing and
// autoregressive methods (monthly data, yearly cycle).
const seasonalPeriod = 12

// Methods is the registry of available forecasters.
var Methods = map[string]Forecaster{
	MethodNaive:       Naive,
	MethodSMA:         SMA,
	MethodTrend:       LevelTrend,
	MethodHoltWinters: HoltWinters,
	MethodSeasonalAR:  SeasonalAR,
}

// DefaultMethods lists every registered method in ladder order.
var DefaultMethods = []string{MethodNaive, MethodSMA, MethodTrend, MethodHoltWinters, MethodSeasonalAR}

// Forecast runs the named method. Unknown names fall back to the moving
// average, so callers can pass user input straight through.
func Forecast(method string, series []float64, horizon int) []float64 {
	f, ok := Methods[method]
	if !ok {
		f = SMA
	}
	return f(series, horizon)
}

// Naive repeats the last observed value, or zero when there is no history.
// Always defined; the bottom of the fallback ladder.
func Naive(series []float64, horizon int) []float64 {
	last := 0.0
	if len(series) > 0 {
		last = series[len(series)-1]
	}
	return repeat(math.Max(last, 0), horizon)
}

// SMA forecasts the mean of the last SMAWindow periods. Shorter histories
// average everything available; empty history forecasts zero.
func SMA(series []float64, horizon int) []float64 {
	if len(series) == 0 {
		return repeat(0, horizon)
	}
	window := series
	if len(series) >= SMAWindow {
		window = series[len(series)-SMAWindow:]
	}
	return repeat(math.Max(stat.Mean(window, nil), 0), horizon)
}

// LevelTrend projects the last value plus a linear trend estimated from the
// mean of the last up-to-3 first differences. Histories shorter than 3 points
// fall back to the plain mean. Projections are clamped at zero: demand cannot
// go negative.
func LevelTrend(series []float64, horizon int) []float64 {
	if len(series) < 3 {
		base := 0.0
		if len(series) > 0 {
			base = stat.Mean(series, nil)
		}
		return repeat(math.Max(base, 0), horizon)
	}

	diffs := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		diffs[i-1] = series[i] - series[i-1]
	}
	tail := diffs
	if len(diffs) > 3 {
		tail = diffs[len(diffs)-3:]
	}
	trend := stat.Mean(tail, nil)
	level := series[len(series)-1]

	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = math.Max(level+float64(i+1)*trend, 0)
	}
	return out
}

// HoltWinters fits an additive trend+seasonal exponential smoothing model
// (period 12). Histories shorter than 8 points, or any degenerate fit, fall
// back to the moving average.
func HoltWinters(series []float64, horizon int) []float64 {
	if len(series) < 8 {
		return SMA(series, horizon)
	}
	fc, ok := fitSmoothing(series, horizon, seasonalPeriod)
	if !ok {
		return SMA(series, horizon)
	}
	return clampForecast(fc, horizon)
}

// SeasonalAR fits an autoregressive model on the first- and seasonally
// differenced series (the (1,1,1)x(1,1,1,12) family, approximated by AR
// terms). Histories shorter than 12 points, or any fit failure, fall back to
// HoltWinters.
func SeasonalAR(series []float64, horizon int) []float64 {
	if len(series) < 12 {
		return HoltWinters(series, horizon)
	}
	fc, ok := fitSeasonalAR(series, horizon, seasonalPeriod)
	if !ok {
		return HoltWinters(series, horizon)
	}
	return clampForecast(fc, horizon)
}

func repeat(v float64, n int) []float64 {
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return out
	}
	for i := range out {
		out[i] = v
	}
	return out
}

// clampForecast zeroes anything non-finite or negative and pads/truncates to
// the horizon, so no NaN or negative quantity ever escapes downstream.
func clampForecast(fc []float64, horizon int) []float64 {
	out := make([]float64, horizon)
	for i := 0; i < horizon && i < len(fc); i++ {
		v := fc[i]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out
}
