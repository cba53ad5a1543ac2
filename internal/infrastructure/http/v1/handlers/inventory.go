package handlers

import (
	"github.com/gin-gonic/gin"

	"supplyplan/internal/domain/planning"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves inventory plan calculations.
type InventoryHandler struct {
	*BaseHandler
	planning *planning.Service
}

// NewInventoryHandler creates the inventory calculation handler.
func NewInventoryHandler(base *BaseHandler, svc *planning.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, planning: svc}
}

// Calculate handles POST /calculate: one month, formula chosen by types.
func (h *InventoryHandler) Calculate(c *gin.Context) {
	h.calculate(c, "")
}

// CalculateTrading handles POST /calculate-trading.
func (h *InventoryHandler) CalculateTrading(c *gin.Context) {
	h.calculate(c, planning.CalcTradingFinished)
}

// CalculateProduction handles POST /calculate-production.
func (h *InventoryHandler) CalculateProduction(c *gin.Context) {
	h.calculate(c, planning.CalcProductionFinished)
}

// CalculateRawMaterial handles POST /calculate-raw-material.
func (h *InventoryHandler) CalculateRawMaterial(c *gin.Context) {
	h.calculate(c, planning.CalcProductionRaw)
}

func (h *InventoryHandler) calculate(c *gin.Context, want planning.CalculationType) {
	var req dto.KeyDateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, "date", req.Date)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		res *planning.InventoryCalculationResult
		err error
	)
	if want == "" {
		res, err = h.planning.CalculateInventory(ctx, req.SubdivisionID, req.MaterialID, date)
	} else {
		res, err = h.planning.CalculateInventoryAs(ctx, req.SubdivisionID, req.MaterialID, date, want)
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// CalculateYear handles POST /calculate-year: the twelve-month fold.
func (h *InventoryHandler) CalculateYear(c *gin.Context) {
	var req dto.KeyYearRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.planning.CalculateInventoryYear(c.Request.Context(), req.SubdivisionID, req.MaterialID, req.Year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Save handles POST /save.
func (h *InventoryHandler) Save(c *gin.Context) {
	saveCalculated(h.BaseHandler, h.planning, plans.KindInventory)(c)
}

// Compare handles POST /compare.
func (h *InventoryHandler) Compare(c *gin.Context) {
	compareCalculated(h.BaseHandler, h.planning, plans.KindInventory)(c)
}

// History handles GET /history/:subdivisionId/:materialId/:year.
func (h *InventoryHandler) History(c *gin.Context) {
	planHistory(h.BaseHandler, h.planning, plans.KindInventory)(c)
}
