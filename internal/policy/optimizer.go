// internal/policy/optimizer.go
package policy

import (
	"math"

	"github.com/andresuchdata/optistock/internal/domain"
)

// DefaultServiceGrid is the candidate grid searched when the caller supplies
// none. A coarse grid is deliberate: EOQ rounding and MOQ clipping make the
// cost surface non-smooth, so continuous optimization buys nothing here.
var DefaultServiceGrid = []float64{0.90, 0.92, 0.95, 0.97, 0.98, 0.99}

// OptimizerInput is the cost model evaluated at each candidate service level.
type OptimizerInput struct {
	WeeklyMean     float64
	WeeklyStd      float64
	LeadMeanDays   float64
	LeadStdDays    float64
	UnitCost       float64
	MinOrderQty    float64
	HoldingRate    float64
	OrderingCost   float64
	PenaltyPerUnit float64
	ServiceGrid    []float64
}

// annualCost computes the total annualized cost of running the policy at one
// service level. Holding uses the cycle-stock half of the order quantity and
// stockout uses (1-SL)*annual demand as the expected-shortage proxy; these
// exact formulas are load-bearing for comparability and are kept as is.
func annualCost(in OptimizerInput, serviceLevel float64) domain.CostBreakdown {
	pol := Calc(Input{
		WeeklyMean:   in.WeeklyMean,
		WeeklyStd:    in.WeeklyStd,
		LeadMeanDays: in.LeadMeanDays,
		LeadStdDays:  in.LeadStdDays,
		ServiceLevel: serviceLevel,
		HoldingRate:  in.HoldingRate,
		OrderingCost: in.OrderingCost,
		UnitCost:     in.UnitCost,
		MinOrderQty:  in.MinOrderQty,
	})

	annualDemand := in.WeeklyMean * weeksPerYear
	ordersPerYear := math.Max(1.0, annualDemand/math.Max(pol.OrderQty, 1e-6))

	holding := 0.5 * pol.OrderQty * in.HoldingRate * in.UnitCost
	ordering := ordersPerYear * in.OrderingCost
	stockoutUnits := (1.0 - math.Min(serviceLevel, 0.999)) * annualDemand
	stockout := stockoutUnits * in.PenaltyPerUnit

	return domain.CostBreakdown{
		ServiceLevel:  serviceLevel,
		TotalCost:     holding + ordering + stockout,
		HoldingCost:   holding,
		OrderingCost:  ordering,
		StockoutCost:  stockout,
		OrdersPerYear: ordersPerYear,
		Policy:        pol,
	}
}

// OptimizeServiceLevel searches the candidate grid for the service level with
// the minimum total annual cost. Strictly-smaller wins, so ties resolve to
// the first (lowest) grid point. Deterministic: the same input always returns
// the same answer. The full grid of breakdowns is returned alongside the best
// for side-by-side presentation.
func OptimizeServiceLevel(in OptimizerInput) (domain.CostBreakdown, []domain.CostBreakdown) {
	grid := in.ServiceGrid
	if len(grid) == 0 {
		grid = DefaultServiceGrid
	}

	var best domain.CostBreakdown
	all := make([]domain.CostBreakdown, 0, len(grid))
	for i, sl := range grid {
		bd := annualCost(in, sl)
		all = append(all, bd)
		if i == 0 || bd.TotalCost < best.TotalCost {
			best = bd
		}
	}
	return best, all
}
