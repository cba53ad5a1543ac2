package handlers

import (
	"github.com/gin-gonic/gin"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/domain/planning"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/infrastructure/http/v1/dto"
)

// TransferHandler serves transfer plans: CRUD plus the yearly calculation.
type TransferHandler struct {
	*BaseHandler
	plans    *plans.Service
	planning *planning.Service
}

// NewTransferHandler creates the transfer plan handler.
func NewTransferHandler(base *BaseHandler, plansSvc *plans.Service, planningSvc *planning.Service) *TransferHandler {
	return &TransferHandler{BaseHandler: base, plans: plansSvc, planning: planningSvc}
}

// List handles GET /.
func (h *TransferHandler) List(c *gin.Context) {
	var q dto.TransferFilter
	if !h.BindQuery(c, &q) {
		return
	}
	rows, err := h.plans.ListTransfers(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nonNil(rows))
}

// Get handles GET /:id.
func (h *TransferHandler) Get(c *gin.Context) {
	id, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}
	row, err := h.plans.GetTransfer(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, row)
}

// Create handles POST /.
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, "transferDate", req.TransferDate)
	if !ok {
		return
	}
	row := req.ToRow(date)
	if err := h.plans.SaveTransfer(c.Request.Context(), row); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, row.ID)
}

// Update handles PUT /:id. Only the quantity of a transfer can change.
func (h *TransferHandler) Update(c *gin.Context) {
	id, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, "transferDate", req.TransferDate)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	existing, err := h.plans.GetTransfer(ctx, id)
	if err != nil {
		h.Error(c, err)
		return
	}
	row := req.ToRow(date)
	if row.SourceSubdivisionID != existing.SourceSubdivisionID ||
		row.DestinationSubdivisionID != existing.DestinationSubdivisionID ||
		row.MaterialID != existing.MaterialID || !row.Date.Equal(existing.Date) {
		h.Error(c, apperror.NewValidation("the key of a transfer plan cannot change").
			WithSuggestion("delete the row and create a new one"))
		return
	}
	if err := h.plans.SaveTransfer(ctx, row); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, row)
}

// Delete handles DELETE /:id.
func (h *TransferHandler) Delete(c *gin.Context) {
	id, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}
	if err := h.plans.DeleteTransfer(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// DeleteYear handles DELETE /year/:subdivisionId/:materialId/:year where the
// subdivision is the source.
func (h *TransferHandler) DeleteYear(c *gin.Context) {
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
	n, err := h.plans.DeleteYear(c.Request.Context(), plans.KindTransfer, sub, mat, year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewDeletedResponse(n, year))
}

// CalculateYear handles POST /calculate-year: computes the year and replaces
// all non-frozen transfer rows of it.
func (h *TransferHandler) CalculateYear(c *gin.Context) {
	h.calculate(c, true)
}

// CalculateTest handles POST /calculate-test: same computation, nothing saved.
func (h *TransferHandler) CalculateTest(c *gin.Context) {
	h.calculate(c, false)
}

func (h *TransferHandler) calculate(c *gin.Context, persist bool) {
	var req dto.TransferYearRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.planning.CalculateTransfers(c.Request.Context(), req.Year, persist)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}
