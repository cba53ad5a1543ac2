package handlers

import (
	"github.com/gin-gonic/gin"

	"supplyplan/internal/domain/planning"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/infrastructure/http/v1/dto"
)

// WriteOffHandler serves raw material write-off calculations.
type WriteOffHandler struct {
	*BaseHandler
	planning *planning.Service
	plans    *plans.Service
}

// NewWriteOffHandler creates the write-off calculation handler.
func NewWriteOffHandler(base *BaseHandler, planningSvc *planning.Service, plansSvc *plans.Service) *WriteOffHandler {
	return &WriteOffHandler{BaseHandler: base, planning: planningSvc, plans: plansSvc}
}

type writeOffSaveResponse struct {
	Calculation any                   `json:"calculation"`
	Save        *planning.SaveResult `json:"save"`
}

// Calculate handles POST /Calculate.
func (h *WriteOffHandler) Calculate(c *gin.Context) {
	var req dto.WriteOffRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.planning.CalculateWriteOff(c.Request.Context(), req.SubdivisionID, req.RawMaterialID, req.Year, req.Month)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// CalculateAndSave handles POST /CalculateAndSave.
func (h *WriteOffHandler) CalculateAndSave(c *gin.Context) {
	var req dto.WriteOffRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, saved, err := h.planning.CalculateAndSaveWriteOff(c.Request.Context(),
		req.SubdivisionID, req.RawMaterialID, req.Year, req.Month, req.Comment)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, writeOffSaveResponse{Calculation: m, Save: saved})
}

// CalculateYear handles POST /CalculateYearly.
func (h *WriteOffHandler) CalculateYear(c *gin.Context) {
	var req dto.RawYearRequest
	if !h.BindJSON(c, &req) {
		return
	}
	y, err := h.planning.CalculateWriteOffYear(c.Request.Context(), req.SubdivisionID, req.RawMaterialID, req.Year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, y)
}

// CalculateAndSaveYear handles POST /CalculateAndSaveYearly.
func (h *WriteOffHandler) CalculateAndSaveYear(c *gin.Context) {
	var req dto.RawYearRequest
	if !h.BindJSON(c, &req) {
		return
	}
	y, saved, err := h.planning.CalculateAndSaveWriteOffYear(c.Request.Context(),
		req.SubdivisionID, req.RawMaterialID, req.Year, req.Comment)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, writeOffSaveResponse{Calculation: y, Save: saved})
}

// Calculated handles GET /Calculated and GET /Calculated/Filter: saved
// write-offs that came from a calculation.
func (h *WriteOffHandler) Calculated(c *gin.Context) {
	var q dto.RawFilter
	if !h.BindQuery(c, &q) {
		return
	}
	rows, err := h.plans.List(c.Request.Context(), plans.KindWriteOff, plans.Filter{
		Year:          q.Year,
		SubdivisionID: q.SubdivisionID,
		MaterialID:    q.RawMaterialID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	out := make([]plans.Row, 0, len(rows))
	for _, r := range rows {
		if r.IsCalculated {
			out = append(out, r)
		}
	}
	h.OK(c, out)
}

// Compare handles POST /Compare.
func (h *WriteOffHandler) Compare(c *gin.Context) {
	compareCalculated(h.BaseHandler, h.planning, plans.KindWriteOff)(c)
}

// History handles GET /History/:subdivisionId/:materialId/:year.
func (h *WriteOffHandler) History(c *gin.Context) {
	planHistory(h.BaseHandler, h.planning, plans.KindWriteOff)(c)
}
