// internal/api/handlers/planning_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/optistock/internal/domain"
	"github.com/andresuchdata/optistock/internal/service"
)

type PlanningHandler struct {
	planner *service.ReplenishmentService
}

func NewPlanningHandler(planner *service.ReplenishmentService) *PlanningHandler {
	return &PlanningHandler{planner: planner}
}

// planRequest carries the per-request planning overrides. Zero values fall
// back to the configured defaults.
type planRequest struct {
	SKU          string   `json:"sku" binding:"required"`
	Location     string   `json:"location"`
	Freq         string   `json:"freq"`
	Horizon      int      `json:"horizon"`
	Method       string   `json:"method"`
	ServiceLevel float64  `json:"service_level"`
	HoldingRate  float64  `json:"holding_rate"`
	OrderingCost float64  `json:"ordering_cost"`
	UnitCost     float64  `json:"unit_cost"`
	LotSize      float64  `json:"lot_size"`
	MaxStorage   *float64 `json:"max_storage_qty"`
}

func (r planRequest) options() service.PlanOptions {
	return service.PlanOptions{
		Freq:         r.Freq,
		Horizon:      r.Horizon,
		Method:       r.Method,
		ServiceLevel: r.ServiceLevel,
		HoldingRate:  r.HoldingRate,
		OrderingCost: r.OrderingCost,
		UnitCost:     r.UnitCost,
		LotSize:      r.LotSize,
		MaxStorage:   r.MaxStorage,
	}
}

// Forecast returns the demand forecast for one SKU
func (h *PlanningHandler) Forecast(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	result, err := h.planner.ForecastSKU(c.Request.Context(), req.SKU, req.Location, req.options())
	if err != nil {
		log.Error().Err(err).Str("sku", req.SKU).Msg("forecast failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build forecast"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Plan returns the full replenishment recommendation for one SKU
func (h *PlanningHandler) Plan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	rec, err := h.planner.PlanSKU(c.Request.Context(), req.SKU, req.Location, req.options())
	if err != nil {
		log.Error().Err(err).Str("sku", req.SKU).Msg("planning failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build recommendation"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

type optimizeRequest struct {
	planRequest
	StockoutPenalty float64 `json:"stockout_penalty"`
}

// Optimize searches the service level grid for the cheapest policy
func (h *PlanningHandler) Optimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	best, grid, err := h.planner.Optimize(c.Request.Context(), req.SKU, req.Location, req.StockoutPenalty, req.options())
	if err != nil {
		log.Error().Err(err).Str("sku", req.SKU).Msg("optimization failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to optimize service level"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"best": best, "grid": grid})
}

// GetClassification returns the ABC/XYZ segmentation of the whole population
func (h *PlanningHandler) GetClassification(c *gin.Context) {
	classes, err := h.planner.Classify(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("classification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to classify SKUs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"classes": classes, "count": len(classes)})
}

type recordStockRequest struct {
	SKU      string   `json:"sku" binding:"required"`
	Location string   `json:"location"`
	Qty      *float64 `json:"qty" binding:"required"`
}

// RecordStock stores a new on-hand stock observation
func (h *PlanningHandler) RecordStock(c *gin.Context) {
	var req recordStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.planner.RecordStock(c.Request.Context(), req.SKU, req.Location, *req.Qty); err != nil {
		log.Error().Err(err).Str("sku", req.SKU).Msg("stock update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record stock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// InvalidateClassification drops cached classification snapshots
func (h *PlanningHandler) InvalidateClassification(c *gin.Context) {
	if err := h.planner.InvalidateClassification(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("classification cache invalidation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate classification cache"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

type simulateRequest struct {
	planRequest
	Runs             int     `json:"runs"`
	DemandVolatility float64 `json:"demand_volatility"`
	LeadTimeDays     int     `json:"lead_time_days"`
	Seed             int64   `json:"seed"`
}

func (r simulateRequest) simOptions() service.SimOptions {
	return service.SimOptions{
		PlanOptions:      r.options(),
		Runs:             r.Runs,
		DemandVolatility: r.DemandVolatility,
		LeadTimeDays:     r.LeadTimeDays,
		Seed:             r.Seed,
	}
}

// SimulateStress runs the no-replenishment stress test
func (h *PlanningHandler) SimulateStress(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	outcome, err := h.planner.SimulateStress(c.Request.Context(), req.SKU, req.Location, req.simOptions())
	if err != nil {
		log.Error().Err(err).Str("sku", req.SKU).Msg("stress simulation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to run stress simulation"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

type simulatePolicyRequest struct {
	simulateRequest
	ReorderPoint       float64  `json:"reorder_point"`
	OrderQty           float64  `json:"order_qty"`
	ServiceLevelTarget *float64 `json:"service_level_target"`
}

// SimulatePolicy validates a reorder policy against the forecast. A zero
// reorder point and order qty simulates the recommended policy.
func (h *PlanningHandler) SimulatePolicy(c *gin.Context) {
	var req simulatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	outcome, err := h.planner.SimulatePolicy(
		c.Request.Context(), req.SKU, req.Location,
		req.ReorderPoint, req.OrderQty, req.ServiceLevelTarget, req.simOptions(),
	)
	if err != nil {
		log.Error().Err(err).Str("sku", req.SKU).Msg("policy simulation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to run policy simulation"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

type scenariosRequest struct {
	simulateRequest
	Scenarios []domain.Scenario `json:"scenarios" binding:"required,min=1"`
}

// CompareScenarios runs the policy simulation for each scenario
func (h *PlanningHandler) CompareScenarios(c *gin.Context) {
	var req scenariosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	outcomes, err := h.planner.CompareScenarios(c.Request.Context(), req.SKU, req.Location, req.Scenarios, req.simOptions())
	if err != nil {
		log.Error().Err(err).Str("sku", req.SKU).Msg("scenario comparison failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compare scenarios"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}
