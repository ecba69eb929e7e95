// internal/forecast/metrics.go
package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// scaleEpsilon floors the RMSSE scale so a flat training window cannot
// divide by zero.
const scaleEpsilon = 1e-9

// MAPE returns the mean absolute percentage error as a percentage number
// (not a fraction). Zero actuals contribute with a denominator of 1.0 so the
// metric stays defined on intermittent demand.
func MAPE(actual, pred []float64) float64 {
	n := len(actual)
	if len(pred) < n {
		n = len(pred)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		denom := actual[i]
		if denom == 0 {
			denom = 1.0
		}
		sum += math.Abs((actual[i] - pred[i]) / denom)
	}
	return sum / float64(n) * 100.0
}

// RMSE returns the root mean squared error.
func RMSE(actual, pred []float64) float64 {
	n := len(actual)
	if len(pred) < n {
		n = len(pred)
	}
	if n == 0 {
		return 0
	}
	se := make([]float64, n)
	for i := 0; i < n; i++ {
		d := actual[i] - pred[i]
		se[i] = d * d
	}
	return math.Sqrt(stat.Mean(se, nil))
}

// RMSSE returns the RMSE scaled by the naive one-step error of the training
// window (mean squared first difference). A training window shorter than two
// points scales by 1.
func RMSSE(train, actual, pred []float64) float64 {
	scale := 1.0
	if len(train) > 1 {
		diffs := make([]float64, len(train)-1)
		for i := 1; i < len(train); i++ {
			d := train[i] - train[i-1]
			diffs[i-1] = d * d
		}
		scale = stat.Mean(diffs, nil)
	}
	if scale < scaleEpsilon {
		scale = scaleEpsilon
	}
	rmse := RMSE(actual, pred)
	return math.Sqrt(rmse * rmse / scale)
}
