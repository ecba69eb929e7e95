// internal/api/api.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/optistock/internal/api/handlers"
	"github.com/andresuchdata/optistock/internal/api/middleware"
	"github.com/andresuchdata/optistock/internal/service"
)

// NewRouter wires the planning service into the HTTP surface.
func NewRouter(planner *service.ReplenishmentService) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORS(),
	)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		planningHandler := handlers.NewPlanningHandler(planner)
		v1.POST("/forecast", planningHandler.Forecast)
		v1.POST("/policy", planningHandler.Plan)
		v1.POST("/optimize", planningHandler.Optimize)
		v1.POST("/stock", planningHandler.RecordStock)
		v1.GET("/classification", planningHandler.GetClassification)
		v1.DELETE("/classification", planningHandler.InvalidateClassification)

		simGroup := v1.Group("/simulate")
		{
			simGroup.POST("/stress", planningHandler.SimulateStress)
			simGroup.POST("/policy", planningHandler.SimulatePolicy)
			simGroup.POST("/scenarios", planningHandler.CompareScenarios)
		}
	}

	return router
}
