// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// PlanRouteHandler defines the interface for plan CRUD handlers.
type PlanRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	DeleteYear(c *gin.Context)
}

// RegisterPlanRoutes registers standard CRUD routes for a plan table.
//
// Usage:
//
//	handler := handlers.NewPlanHandler(baseHandler, cfg.Plans, plans.KindProduction)
//	RegisterPlanRoutes(api.Group("/ProductionPlans"), handler)
func RegisterPlanRoutes(group *gin.RouterGroup, handler PlanRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.DELETE("/year/:subdivisionId/:materialId/:year", handler.DeleteYear)
}
