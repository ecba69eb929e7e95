// internal/forecast/backtest.go
package forecast

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

// Score holds the pooled error metrics for one algorithm. Nil fields mean
// the series never yielded a full window+horizon slice: undefined, not zero.
type Score struct {
	MAPE  *float64 `json:"mape,omitempty"`
	RMSE  *float64 `json:"rmse,omitempty"`
	RMSSE *float64 `json:"rmsse,omitempty"`
}

// Defined reports whether the algorithm produced any evaluable predictions.
func (s Score) Defined() bool { return s.RMSSE != nil }

// BacktestReport is the outcome of a rolling-origin evaluation.
type BacktestReport struct {
	Window        int              `json:"window"`
	Horizon       int              `json:"horizon"`
	Metrics       map[string]Score `json:"metrics"`
	BestAlgorithm string           `json:"best_algorithm"` // empty when nothing is definable
}

// RollingBacktest evaluates every method on a common rolling-origin basis:
// for each origin t in [window, len-horizon] the method is fit on series[:t]
// and compared against the next horizon true values, with all (pred, truth)
// pairs pooled before scoring. The best algorithm is the ascending
// (RMSSE, RMSE) minimum; undefined scores sort last. Deterministic for a
// given series, window and horizon.
func RollingBacktest(ctx context.Context, series []float64, horizon, window int, methods []string) BacktestReport {
	if len(methods) == 0 {
		methods = DefaultMethods
	}
	report := BacktestReport{
		Window:  window,
		Horizon: horizon,
		Metrics: make(map[string]Score, len(methods)),
	}
	if horizon < 1 || window < 1 {
		for _, m := range methods {
			report.Metrics[m] = Score{}
		}
		return report
	}

	// Algorithms are independent; evaluate them concurrently. Origins within
	// one algorithm stay sequential so pooled pairs keep a fixed order.
	scores := make([]Score, len(methods))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range methods {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			scores[i] = backtestOne(series, horizon, window, name)
			return nil
		})
	}
	// Evaluation is pure computation; the only possible error is cancellation,
	// in which case partial zero scores are as good an answer as any.
	_ = g.Wait()

	for i, name := range methods {
		report.Metrics[name] = scores[i]
	}
	report.BestAlgorithm = pickBest(methods, scores)
	return report
}

func backtestOne(series []float64, horizon, window int, method string) Score {
	var preds, truths []float64
	for t := window; t+horizon <= len(series); t++ {
		fc := Forecast(method, series[:t], horizon)
		preds = append(preds, fc...)
		truths = append(truths, series[t:t+horizon]...)
	}
	if len(truths) == 0 {
		return Score{}
	}
	mape := MAPE(truths, preds)
	rmse := RMSE(truths, preds)
	rmsse := RMSSE(series[:window], truths, preds)
	return Score{MAPE: &mape, RMSE: &rmse, RMSSE: &rmsse}
}

// pickBest orders by (RMSSE, RMSE) ascending with undefined treated as +Inf;
// ties keep the earlier method, so the ladder's simpler algorithm wins.
func pickBest(methods []string, scores []Score) string {
	best := ""
	bestRMSSE := math.Inf(1)
	bestRMSE := math.Inf(1)
	anyDefined := false

	for i, name := range methods {
		rmsse := math.Inf(1)
		rmse := math.Inf(1)
		if scores[i].RMSSE != nil {
			rmsse = *scores[i].RMSSE
			anyDefined = true
		}
		if scores[i].RMSE != nil {
			rmse = *scores[i].RMSE
		}
		if rmsse < bestRMSSE || (rmsse == bestRMSSE && rmse < bestRMSE) {
			best = name
			bestRMSSE = rmsse
			bestRMSE = rmse
		}
	}
	if !anyDefined {
		return ""
	}
	return best
}
