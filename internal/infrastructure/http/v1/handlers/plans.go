package handlers

import (
	"github.com/gin-gonic/gin"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/core/period"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/infrastructure/http/v1/dto"
)

// PlanHandler provides CRUD over one plan kind. Rows written here are
// entered by hand and stored with isCalculated=false.
type PlanHandler struct {
	*BaseHandler
	service *plans.Service
	kind    plans.Kind
}

// NewPlanHandler creates a CRUD handler for kind.
func NewPlanHandler(base *BaseHandler, service *plans.Service, kind plans.Kind) *PlanHandler {
	return &PlanHandler{BaseHandler: base, service: service, kind: kind}
}

// List handles GET / - rows filtered by year, subdivision and material.
func (h *PlanHandler) List(c *gin.Context) {
	var q dto.PlanFilter
	if !h.BindQuery(c, &q) {
		return
	}
	rows, err := h.service.List(c.Request.Context(), h.kind, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nonNil(rows))
}

// Get handles GET /:id.
func (h *PlanHandler) Get(c *gin.Context) {
	id, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}
	row, err := h.service.Get(c.Request.Context(), h.kind, id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, row)
}

// Create handles POST / - upsert by (subdivision, material, month).
func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.PlanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, "date", req.Date)
	if !ok {
		return
	}
	row := req.ToRow(date)
	if err := h.service.Save(c.Request.Context(), h.kind, row); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, row.ID)
}

// Update handles PUT /:id. The key of a row cannot change.
func (h *PlanHandler) Update(c *gin.Context) {
	id, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}
	var req dto.PlanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, "date", req.Date)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	existing, err := h.service.Get(ctx, h.kind, id)
	if err != nil {
		h.Error(c, err)
		return
	}
	row := req.ToRow(date)
	if row.Key() != existing.Key() {
		h.Error(c, apperror.NewValidation("subdivisionId, materialId and date of a plan cannot change").
			WithSuggestion("delete the row and create a new one"))
		return
	}
	if err := h.service.Save(ctx, h.kind, row); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, row)
}

// Delete handles DELETE /:id.
func (h *PlanHandler) Delete(c *gin.Context) {
	id, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), h.kind, id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// DeleteYear handles DELETE /year/:subdivisionId/:materialId/:year.
func (h *PlanHandler) DeleteYear(c *gin.Context) {
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
	n, err := h.service.DeleteYear(c.Request.Context(), h.kind, sub, mat, year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewDeletedResponse(n, year))
}

// SalesHandler adds the monthly upsert and date-range search of sales plans.
type SalesHandler struct {
	*PlanHandler
}

// NewSalesHandler creates the sales plan handler.
func NewSalesHandler(base *BaseHandler, service *plans.Service) *SalesHandler {
	return &SalesHandler{PlanHandler: NewPlanHandler(base, service, plans.KindSales)}
}

// UpsertMonthly handles POST /upsertMonthly with a "YYYY-MM" month key.
func (h *SalesHandler) UpsertMonthly(c *gin.Context) {
	var req dto.SalesMonthlyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, "monthKey", req.MonthKey)
	if !ok {
		return
	}
	row := &plans.Row{
		SubdivisionID: req.SubdivisionID,
		MaterialID:    req.MaterialID,
		Date:          date,
		Quantity:      *req.Quantity,
	}
	if err := h.service.Save(c.Request.Context(), plans.KindSales, row); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, row)
}

// Search handles POST /search. Both dates are inclusive months.
func (h *SalesHandler) Search(c *gin.Context) {
	var req dto.SalesSearchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	filter := plans.Filter{SubdivisionID: req.SubdivisionID, MaterialID: req.MaterialID}
	if req.StartDate != "" {
		from, ok := h.ParseDate(c, "startDate", req.StartDate)
		if !ok {
			return
		}
		filter.From = from
	}
	if req.EndDate != "" {
		to, ok := h.ParseDate(c, "endDate", req.EndDate)
		if !ok {
			return
		}
		filter.To = period.Next(to)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		h.Error(c, apperror.NewValidation("startDate must not be after endDate").WithDetail("field", "startDate"))
		return
	}
	rows, err := h.service.List(c.Request.Context(), plans.KindSales, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nonNil(rows))
}

// nonNil keeps empty lists rendering as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
