// internal/domain/models.go
package domain

import "time"

// DemandPoint is a single period of observed demand for a SKU.
type DemandPoint struct {
	Period time.Time `json:"period" db:"period"`
	Qty    float64   `json:"qty" db:"qty"`
}

// DemandSeries is the ordered demand history for one SKU (optionally one
// location). Periods are strictly increasing and gap-filled with zeros:
// the absence of a sale is data, not missing data.
type DemandSeries struct {
	SKU      string        `json:"sku"`
	Location string        `json:"location,omitempty"`
	Freq     string        `json:"freq"` // D, W or M
	Points   []DemandPoint `json:"points"`
}

// Quantities returns the demand values in period order.
func (s DemandSeries) Quantities() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Qty
	}
	return out
}

// PeriodDays returns the number of days one period of the series spans.
func (s DemandSeries) PeriodDays() int {
	switch s.Freq {
	case "D":
		return 1
	case "M":
		return 30
	default:
		return 7
	}
}

// ForecastResult is an immutable forecast for one SKU. Status replaces
// exceptions: callers branch on it instead of handling errors.
type ForecastResult struct {
	SKU        string    `json:"sku"`
	Location   string    `json:"location,omitempty"`
	Algorithm  string    `json:"algorithm"`
	Status     string    `json:"status"` // ok, empty or no_forecast
	Reason     string    `json:"reason,omitempty"`
	History    []float64 `json:"history"`
	Forecast   []float64 `json:"forecast"`
	Freq       string    `json:"freq"`
	HistoryLen int       `json:"history_len"`
	LastMAPE   *float64  `json:"last_mape,omitempty"` // percentage, not fraction
}

// LeadTimeProfile describes replenishment lead time for a SKU/supplier.
// Read-only input supplied by the caller.
type LeadTimeProfile struct {
	SKU         string  `json:"sku" db:"sku"`
	MeanDays    float64 `json:"mean_days" db:"mean_days"`
	StdDays     float64 `json:"std_days" db:"std_days"`
	MinOrderQty float64 `json:"min_order_qty" db:"min_order_qty"`
}

// InventoryPolicy is the derived replenishment policy for one SKU. It is a
// value object recomputed whenever its inputs change, never mutated in place.
type InventoryPolicy struct {
	SafetyStock      float64 `json:"safety_stock"`
	ReorderPoint     float64 `json:"reorder_point"`
	EOQ              float64 `json:"eoq"`
	OrderQty         float64 `json:"order_qty"`
	ReviewPeriodDays int     `json:"review_period_days"`
}

// CostBreakdown is the annualized cost of running one (service level, policy)
// pair. Many are generated during optimization; only the minimum is kept.
type CostBreakdown struct {
	ServiceLevel  float64         `json:"service_level"`
	TotalCost     float64         `json:"total_cost"`
	HoldingCost   float64         `json:"holding_cost"`
	OrderingCost  float64         `json:"ordering_cost"`
	StockoutCost  float64         `json:"stockout_cost"`
	OrdersPerYear float64         `json:"orders_per_year"`
	Policy        InventoryPolicy `json:"policy"`
}

// SKUClass is the ABC/XYZ segment of one SKU, derived from the full
// population. Tiers shift whenever the population changes, so classification
// always runs over the complete SKU set.
type SKUClass struct {
	SKU         string  `json:"sku"`
	ABC         string  `json:"abc"`
	XYZ         string  `json:"xyz"`
	AnnualValue float64 `json:"annual_value"`
	Share       float64 `json:"share"`
	CumShare    float64 `json:"cum_share"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	CV          float64 `json:"cv"`
}

// SimulationOutcome reports the no-replenishment Monte Carlo stress test.
// A run stocks out if its ending stock is negative; intra-run crossings are
// deliberately not tracked here.
type SimulationOutcome struct {
	StockoutProbability float64 `json:"prob_stockout"`
	AvgEndingStock      float64 `json:"avg_ending_stock"`
	MinEndingStock      float64 `json:"min_ending_stock"`
	MaxEndingStock      float64 `json:"max_ending_stock"`
	Runs                int     `json:"runs"`
}

// PolicyOutcome reports the policy-aware Monte Carlo simulation, which counts
// every day that ends below zero as one stockout-day.
type PolicyOutcome struct {
	ProbAnyStockout      float64  `json:"prob_any_stockout"`
	AvgStockoutsPerRun   float64  `json:"avg_stockouts_per_run"`
	Runs                 int      `json:"runs"`
	ServiceLevelAchieved *float64 `json:"service_level_achieved,omitempty"`
	ServiceLevelTarget   *float64 `json:"service_level_target,omitempty"`
}

// Scenario names one (reorder point, order qty, volatility) combination for
// side-by-side comparison.
type Scenario struct {
	Name             string  `json:"name"`
	ReorderPoint     float64 `json:"reorder_point"`
	OrderQty         float64 `json:"order_qty"`
	DemandVolatility float64 `json:"demand_volatility"`
}

// ScenarioOutcome pairs a scenario with its simulated result.
type ScenarioOutcome struct {
	Scenario Scenario      `json:"scenario"`
	Outcome  PolicyOutcome `json:"outcome"`
}

// DemandRecord is one (sku, value, qty) observation used by classification.
type DemandRecord struct {
	SKU   string  `json:"sku" db:"sku"`
	Qty   float64 `json:"qty" db:"qty"`
	Value float64 `json:"value" db:"value"`
}

// Recommendation is the full replenishment answer for one SKU, ready for the
// presentation collaborator.
type Recommendation struct {
	SKU              string          `json:"sku"`
	Location         string          `json:"location,omitempty"`
	Status           string          `json:"status"` // ok or no_forecast
	Reason           string          `json:"reason,omitempty"`
	Algorithm        string          `json:"algorithm,omitempty"`
	DailyDemandEst   float64         `json:"daily_demand_est"`
	DailyDemandStd   float64         `json:"daily_demand_std"`
	VolatilityFactor float64         `json:"volatility_factor"`
	Policy           InventoryPolicy `json:"policy"`
	CurrentStock     float64         `json:"current_stock"`
	SuggestedOrder   float64         `json:"suggested_order_qty"`
	ServiceLevel     float64         `json:"service_level"`
	LeadTimeDays     float64         `json:"lead_time_days"`
	AnnualDemandEst  float64         `json:"annual_demand_est"`
	DaysOfCover      float64         `json:"days_of_cover"`
	StockoutRisk     float64         `json:"stockout_risk"`
	Constraints      Constraints     `json:"constraints"`
}

// Constraints are the order constraints applied to a recommendation.
type Constraints struct {
	MinOrderQty   float64  `json:"min_order_qty"`
	LotSize       float64  `json:"lot_size"`
	MaxStorageQty *float64 `json:"max_storage_qty,omitempty"`
}
