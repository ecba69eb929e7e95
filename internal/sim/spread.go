// internal/sim/spread.go
package sim

import (
	"github.com/andresuchdata/optistock/internal/domain"
)

// SpreadValues decomposes a periodic forecast into a daily-resolution series
// by splitting each period's value evenly across its days. The simulation
// step is always one day, whatever the forecast granularity.
func SpreadValues(values []float64, periodDays int) []float64 {
	if periodDays <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, 0, len(values)*periodDays)
	for _, v := range values {
		perDay := v / float64(periodDays)
		for d := 0; d < periodDays; d++ {
			out = append(out, perDay)
		}
	}
	return out
}

// SpreadDaily spreads a timestamped forecast to daily resolution, inferring
// the period length from the gap between the first two points.
func SpreadDaily(points []domain.DemandPoint) []float64 {
	if len(points) == 0 {
		return nil
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Qty
	}
	if len(points) < 2 {
		return values
	}
	days := int(points[1].Period.Sub(points[0].Period).Hours() / 24)
	return SpreadValues(values, days)
}
