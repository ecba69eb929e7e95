// internal/classify/abcxyz.go
package classify

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/andresuchdata/optistock/internal/domain"
)

// ABC tier boundaries on cumulative value share, XYZ boundaries on the
// coefficient of variation.
const (
	abcTierA = 0.80
	abcTierB = 0.95
	xyzTierX = 0.5
	xyzTierY = 1.0

	// meanFloor keeps the CV finite for SKUs that barely sell.
	meanFloor = 1e-9
)

// Classify segments the full SKU population: ABC by cumulative share of the
// summed value measure (Pareto), XYZ by demand variability. Both tiers are
// population-relative, so this always runs over the complete current SKU set;
// classifying one SKU in isolation would produce stale tiers.
func Classify(records []domain.DemandRecord) []domain.SKUClass {
	if len(records) == 0 {
		return nil
	}

	type skuAgg struct {
		sku   string
		value float64
		qtys  []float64
	}

	bysku := make(map[string]*skuAgg)
	order := make([]string, 0)
	for _, r := range records {
		agg, ok := bysku[r.SKU]
		if !ok {
			agg = &skuAgg{sku: r.SKU}
			bysku[r.SKU] = agg
			order = append(order, r.SKU)
		}
		v := r.Value
		if v == 0 {
			v = r.Qty // fall back to quantity when no value/price is supplied
		}
		agg.value += v
		agg.qtys = append(agg.qtys, r.Qty)
	}

	aggs := make([]*skuAgg, 0, len(bysku))
	for _, sku := range order {
		aggs = append(aggs, bysku[sku])
	}
	// Descending by value; stable so equal-value SKUs keep input order.
	sort.SliceStable(aggs, func(i, j int) bool { return aggs[i].value > aggs[j].value })

	total := 0.0
	for _, a := range aggs {
		total += a.value
	}

	out := make([]domain.SKUClass, 0, len(aggs))
	cum := 0.0
	for _, a := range aggs {
		share := 0.0
		if total > 0 {
			share = a.value / total
		}
		cum += share

		mean := stat.Mean(a.qtys, nil)
		std := 0.0
		if len(a.qtys) > 1 {
			std = stat.StdDev(a.qtys, nil)
		}
		denom := mean
		if denom < meanFloor {
			denom = meanFloor
		}
		cv := std / denom

		out = append(out, domain.SKUClass{
			SKU:         a.sku,
			ABC:         abcTier(cum),
			XYZ:         xyzTier(cv),
			AnnualValue: a.value,
			Share:       share,
			CumShare:    cum,
			Mean:        mean,
			Std:         std,
			CV:          cv,
		})
	}
	return out
}

func abcTier(cumShare float64) string {
	switch {
	case cumShare <= abcTierA:
		return "A"
	case cumShare <= abcTierB:
		return "B"
	default:
		return "C"
	}
}

func xyzTier(cv float64) string {
	switch {
	case cv <= xyzTierX:
		return "X"
	case cv <= xyzTierY:
		return "Y"
	default:
		return "Z"
	}
}
