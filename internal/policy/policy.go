// internal/policy/policy.go
package policy

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/andresuchdata/optistock/internal/domain"
)

const (
	daysPerWeek   = 7.0
	weeksPerYear  = 52.0
	defaultReview = 7
)

// Input carries everything the policy calculator needs for one SKU. Demand
// statistics are weekly; lead time is in days; costs are per the caller's
// currency unit.
type Input struct {
	WeeklyMean   float64
	WeeklyStd    float64
	LeadMeanDays float64
	LeadStdDays  float64
	ServiceLevel float64
	HoldingRate  float64
	OrderingCost float64
	UnitCost     float64
	MinOrderQty  float64
	LotSize      float64
	MaxStorage   *float64
	CurrentStock float64

	// VolatilityFactor inflates safety stock when the forecast behind these
	// statistics is weakly grounded. Zero means no inflation (treated as 1).
	VolatilityFactor float64
}

// ZValue returns the standard normal quantile for a service level. Valid for
// any fractional level in (0,1); out-of-range inputs are clamped to sane
// bounds rather than returning infinities.
func ZValue(serviceLevel float64) float64 {
	const lo, hi = 1e-6, 1 - 1e-6
	if serviceLevel < lo {
		serviceLevel = lo
	}
	if serviceLevel > hi {
		serviceLevel = hi
	}
	return distuv.UnitNormal.Quantile(serviceLevel)
}

// EOQ is the Wilson economic order quantity. Non-positive inputs yield 0
// rather than NaN: "no purchase needed" is always a valid answer.
func EOQ(annualDemand, orderingCost, holdingCostPerUnit float64) float64 {
	if annualDemand <= 0 || orderingCost <= 0 || holdingCostPerUnit <= 0 {
		return 0
	}
	return math.Sqrt(2 * annualDemand * orderingCost / holdingCostPerUnit)
}

// VolatilityFactor couples forecast quality to inventory buffering: a thin
// history inflates safety stock by 1.2x, a poor last validation error (MAPE
// above 15%) by a further 1.15x. Factors compose multiplicatively.
func VolatilityFactor(historyLen int, lastMAPE *float64) float64 {
	factor := 1.0
	if historyLen > 0 && historyLen < 6 {
		factor *= 1.2
	}
	if lastMAPE != nil && *lastMAPE > 15 {
		factor *= 1.15
	}
	return factor
}

// Calc derives the inventory policy for one SKU.
//
// Lead-time demand variance propagates both demand variability and lead-time
// variability: sigma_d^2*L + mu_d^2*sigma_L^2. Dropping either component
// understates risk.
func Calc(in Input) domain.InventoryPolicy {
	dailyMean := in.WeeklyMean / daysPerWeek
	dailyStd := in.WeeklyStd / math.Sqrt(daysPerWeek)

	z := ZValue(in.ServiceLevel)

	leadMean := dailyMean * in.LeadMeanDays
	variance := dailyStd*dailyStd*in.LeadMeanDays + dailyMean*dailyMean*in.LeadStdDays*in.LeadStdDays
	if variance < 0 {
		variance = 0
	}

	factor := in.VolatilityFactor
	if factor <= 0 {
		factor = 1.0
	}

	safetyStock := z * math.Sqrt(variance) * factor
	if safetyStock < 0 {
		safetyStock = 0
	}
	reorderPoint := leadMean + safetyStock

	annualDemand := in.WeeklyMean * weeksPerYear
	eoq := EOQ(annualDemand, in.OrderingCost, in.HoldingRate*in.UnitCost)

	orderQty := ConstrainOrder(math.Max(eoq, in.MinOrderQty), in.CurrentStock, in.MinOrderQty, in.LotSize, in.MaxStorage)

	return domain.InventoryPolicy{
		SafetyStock:      safetyStock,
		ReorderPoint:     reorderPoint,
		EOQ:              eoq,
		OrderQty:         orderQty,
		ReviewPeriodDays: defaultReview,
	}
}

// ConstrainOrder applies the business constraints to a raw order suggestion:
// raise to the minimum order quantity, round up to the lot multiple, then
// clip to the remaining storage space. A non-positive suggestion stays zero.
func ConstrainOrder(qty, currentStock, minOrderQty, lotSize float64, maxStorage *float64) float64 {
	if qty <= 0 {
		return 0
	}
	if minOrderQty > 0 && qty < minOrderQty {
		qty = minOrderQty
	}
	qty = roundToLot(qty, lotSize)
	return clipToStorage(qty, currentStock, maxStorage)
}

// roundToLot rounds an order up to the next lot multiple.
func roundToLot(qty, lotSize float64) float64 {
	if lotSize <= 0 || qty <= 0 {
		return qty
	}
	return math.Ceil(qty/lotSize) * lotSize
}

// clipToStorage clips a suggested order to the remaining free space; an
// already full (or overfull) warehouse forces the order to zero.
func clipToStorage(qty, currentStock float64, maxStorage *float64) float64 {
	if maxStorage == nil || qty <= 0 {
		return qty
	}
	free := *maxStorage - currentStock
	if free <= 0 {
		return 0
	}
	return math.Min(qty, free)
}
