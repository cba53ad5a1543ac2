package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"supplyplan/internal/core/period"
	"supplyplan/internal/domain/planning"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
	"supplyplan/internal/infrastructure/http/v1/dto"
	"supplyplan/internal/infrastructure/http/v1/handlers"
	"supplyplan/internal/infrastructure/http/v1/middleware"
	"supplyplan/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Planning  *planning.Service
	Plans     *plans.Service
	Reference reference.Repository

	// Health is nil when the in-memory store is used.
	Health handlers.HealthChecker

	Logger *logger.Logger

	// RequestTimeout bounds every API request context.
	RequestTimeout time.Duration

	// Years is the accepted planning range for the planyear binding tag.
	Years period.YearRange
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := dto.RegisterValidators(cfg.Years); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Health)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api")
	api.Use(middleware.Timeout(cfg.RequestTimeout))
	{
		registerReferenceRoutes(api, cfg)
		registerPlanRoutes(api, cfg)
		registerInventoryRoutes(api, cfg)
		registerProductionRoutes(api, cfg)
		registerWriteOffRoutes(api, cfg)
		registerPurchaseRoutes(api, cfg)
		registerTransferRoutes(api, cfg)
	}

	return router, nil
}

// registerReferenceRoutes registers read-only master data endpoints.
func registerReferenceRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewReferenceHandler(handlers.NewBaseHandler(), cfg.Reference)

	rg.GET("/Subdivisions", h.Subdivisions)
	rg.GET("/Subdivisions/:id", h.Subdivision)
	rg.GET("/Materials", h.Materials)
	rg.GET("/Materials/:id", h.Material)
	rg.GET("/Regulations", h.Regulations)
	rg.GET("/TechnologicalCards", h.TechnologicalCards)
	rg.GET("/SupplySources", h.SupplySources)
}

// registerPlanRoutes registers manual CRUD for every row-shaped plan table.
func registerPlanRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()

	// --- SALES ---
	{
		h := handlers.NewSalesHandler(base, cfg.Plans)
		group := rg.Group("/SalesPlans")
		RegisterPlanRoutes(group, h)
		group.POST("/upsertMonthly", h.UpsertMonthly)
		group.POST("/search", h.Search)
	}

	RegisterPlanRoutes(rg.Group("/InventoryPlans"), handlers.NewPlanHandler(base, cfg.Plans, plans.KindInventory))
	RegisterPlanRoutes(rg.Group("/ProductionPlans"), handlers.NewPlanHandler(base, cfg.Plans, plans.KindProduction))
	RegisterPlanRoutes(rg.Group("/RawMaterialWriteOffs"), handlers.NewPlanHandler(base, cfg.Plans, plans.KindWriteOff))
	RegisterPlanRoutes(rg.Group("/RawMaterialPurchases"), handlers.NewPlanHandler(base, cfg.Plans, plans.KindPurchase))
}

// registerInventoryRoutes registers inventory calculations next to the
// inventory CRUD routes.
func registerInventoryRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewInventoryHandler(handlers.NewBaseHandler(), cfg.Planning)

	group := rg.Group("/InventoryPlans")
	group.POST("/calculate", h.Calculate)
	group.POST("/calculate-trading", h.CalculateTrading)
	group.POST("/calculate-production", h.CalculateProduction)
	group.POST("/calculate-raw-material", h.CalculateRawMaterial)
	group.POST("/calculate-year", h.CalculateYear)
	group.POST("/save", h.Save)
	group.POST("/compare", h.Compare)
	group.GET("/history/:subdivisionId/:materialId/:year", h.History)
}

// registerProductionRoutes registers production calculation endpoints.
func registerProductionRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewProductionHandler(handlers.NewBaseHandler(), cfg.Planning, cfg.Plans)

	group := rg.Group("/ProductionCalculation")
	group.POST("/CalculateYearlyProductionPlan", h.CalculateYear)
	group.POST("/SaveCalculatedPlan", h.Save)
	group.POST("/ComparePlans", h.Compare)
	group.GET("/GetSavedPlans/:subdivisionId/:materialId/:year", h.Saved)
	group.GET("/GetHistoryPlans", h.History)
	group.DELETE("/DeletePlan/:id", h.Delete)
	group.DELETE("/DeleteYearlyPlans/:subdivisionId/:materialId/:year", h.DeleteYear)
	group.GET("/DebugTransfers/:subdivisionId/:materialId/:year", h.DebugTransfers)
}

// registerWriteOffRoutes registers write-off calculations next to the
// write-off CRUD routes.
func registerWriteOffRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewWriteOffHandler(handlers.NewBaseHandler(), cfg.Planning, cfg.Plans)

	group := rg.Group("/RawMaterialWriteOffs")
	group.POST("/Calculate", h.Calculate)
	group.POST("/CalculateAndSave", h.CalculateAndSave)
	group.POST("/CalculateYearly", h.CalculateYear)
	group.POST("/CalculateAndSaveYearly", h.CalculateAndSaveYear)
	group.POST("/Compare", h.Compare)
	group.GET("/Calculated", h.Calculated)
	group.GET("/Calculated/Filter", h.Calculated)
	group.GET("/History/:subdivisionId/:materialId/:year", h.History)
}

// registerPurchaseRoutes registers purchase calculations next to the
// purchase CRUD routes.
func registerPurchaseRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewPurchaseHandler(handlers.NewBaseHandler(), cfg.Planning)

	group := rg.Group("/RawMaterialPurchases")
	group.POST("/CalculateYearPlan", h.CalculateYear)
	group.POST("/SaveYearPlan", h.SaveYear)
	group.POST("/RecalculatePlans", h.Recalculate)
	group.POST("/ComparePlans", h.Compare)
	group.GET("/GetExistingPlans/:subdivisionId/:rawMaterialId/:year", h.Existing)
	group.GET("/History/:subdivisionId/:materialId/:year", h.History)
}

// registerTransferRoutes registers transfer plan endpoints.
func registerTransferRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewTransferHandler(handlers.NewBaseHandler(), cfg.Plans, cfg.Planning)

	group := rg.Group("/TransferPlans")
	RegisterPlanRoutes(group, h)
	group.POST("/calculate-year", h.CalculateYear)
	group.POST("/calculate-test", h.CalculateTest)
}
