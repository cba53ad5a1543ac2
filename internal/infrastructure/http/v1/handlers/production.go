package handlers

import (
	"github.com/gin-gonic/gin"

	"supplyplan/internal/domain/planning"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/infrastructure/http/v1/dto"
)

// ProductionHandler serves production plan calculations.
type ProductionHandler struct {
	*BaseHandler
	planning *planning.Service
	plans    *plans.Service
}

// NewProductionHandler creates the production calculation handler.
func NewProductionHandler(base *BaseHandler, planningSvc *planning.Service, plansSvc *plans.Service) *ProductionHandler {
	return &ProductionHandler{BaseHandler: base, planning: planningSvc, plans: plansSvc}
}

// CalculateYear handles POST /CalculateYearlyProductionPlan.
func (h *ProductionHandler) CalculateYear(c *gin.Context) {
	var req dto.KeyDateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, "date", req.Date)
	if !ok {
		return
	}
	months, err := h.planning.CalculateProductionYear(c.Request.Context(), req.SubdivisionID, req.MaterialID, date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, months)
}

// Save handles POST /SaveCalculatedPlan.
func (h *ProductionHandler) Save(c *gin.Context) {
	saveCalculated(h.BaseHandler, h.planning, plans.KindProduction)(c)
}

// Compare handles POST /ComparePlans.
func (h *ProductionHandler) Compare(c *gin.Context) {
	compareCalculated(h.BaseHandler, h.planning, plans.KindProduction)(c)
}

// Saved handles GET /GetSavedPlans/:subdivisionId/:materialId/:year.
func (h *ProductionHandler) Saved(c *gin.Context) {
	savedPlans(h.BaseHandler, h.planning, plans.KindProduction, "materialId")(c)
}

// History handles GET /GetHistoryPlans?year&subdivisionId&materialId and
// returns the save journal of the key, newest first.
func (h *ProductionHandler) History(c *gin.Context) {
	var q dto.KeyYearRequest
	if !h.BindQuery(c, &q) {
		return
	}
	entries, err := h.planning.GetHistoryPlans(c.Request.Context(), plans.KindProduction, q.SubdivisionID, q.MaterialID, q.Year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nonNil(entries))
}

// Delete handles DELETE /DeletePlan/:id.
func (h *ProductionHandler) Delete(c *gin.Context) {
	id, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}
	if err := h.plans.Delete(c.Request.Context(), plans.KindProduction, id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// DeleteYear handles DELETE /DeleteYearlyPlans/:subdivisionId/:materialId/:year.
func (h *ProductionHandler) DeleteYear(c *gin.Context) {
	sub, ok := h.ParamInt64(c, "subdivisionId")
	if !ok {
		return
	}
	mat, ok := h.ParamInt64(c, "materialId")
	if !ok {
		return
	}
	year, ok := h.ParamYear(c)
	if !ok {
		return
	}
	n, err := h.plans.DeleteYear(c.Request.Context(), plans.KindProduction, sub, mat, year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewDeletedResponse(n, year))
}

// DebugTransfers handles GET /DebugTransfers/:subdivisionId/:materialId/:year.
func (h *ProductionHandler) DebugTransfers(c *gin.Context) {
	sub, ok := h.ParamInt64(c, "subdivisionId")
	if !ok {
		return
	}
	mat, ok := h.ParamInt64(c, "materialId")
	if !ok {
		return
	}
	year, ok := h.ParamYear(c)
	if !ok {
		return
	}
	res, err := h.planning.DebugTransfers(c.Request.Context(), sub, mat, year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}
