package handlers

import (
	"github.com/gin-gonic/gin"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/domain/planning"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/infrastructure/http/v1/dto"
)

// toCalculated parses request plans; false means the error was already sent.
func toCalculated(h *BaseHandler, c *gin.Context, items []dto.CalculatedPlan) ([]planning.CalculatedPlan, bool) {
	out := make([]planning.CalculatedPlan, 0, len(items))
	for _, item := range items {
		date, ok := h.ParseDate(c, "calculatedPlans.date", item.Date)
		if !ok {
			return nil, false
		}
		qty, ok := item.Value()
		if !ok {
			h.Error(c, apperror.NewValidation("every calculated plan needs a quantity").
				WithDetail("field", "calculatedPlans.quantity").
				WithDetail("date", item.Date))
			return nil, false
		}
		out = append(out, planning.CalculatedPlan{Date: date, Quantity: qty, Note: item.Note})
	}
	return out, true
}

// saveCalculated builds the POST handler persisting calculated plans of kind.
func saveCalculated(h *BaseHandler, svc *planning.Service, kind plans.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SavePlansRequest
		if !h.BindJSON(c, &req) {
			return
		}
		calculated, ok := toCalculated(h, c, req.CalculatedPlans)
		if !ok {
			return
		}
		res, err := svc.SaveCalculatedPlans(c.Request.Context(), planning.SaveRequest{
			Kind:              kind,
			SubdivisionID:     req.SubdivisionID,
			MaterialID:        req.MaterialID,
			Plans:             calculated,
			OverwriteExisting: req.OverwriteExisting,
			Comment:           req.Comment,
		})
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, res)
	}
}

// compareCalculated builds the POST handler reconciling calculated plans of kind.
func compareCalculated(h *BaseHandler, svc *planning.Service, kind plans.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ComparePlansRequest
		if !h.BindJSON(c, &req) {
			return
		}
		calculated, ok := toCalculated(h, c, req.CalculatedPlans)
		if !ok {
			return
		}
		res, err := svc.Compare(c.Request.Context(), kind, req.SubdivisionID, req.MaterialID, calculated)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, res)
	}
}

// savedPlans builds GET /:subdivisionId/:materialId/:year returning saved rows of kind.
func savedPlans(h *BaseHandler, svc *planning.Service, kind plans.Kind, materialParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, ok := h.ParamInt64(c, "subdivisionId")
		if !ok {
			return
		}
		mat, ok := h.ParamInt64(c, materialParam)
		if !ok {
			return
		}
		year, ok := h.ParamYear(c)
		if !ok {
			return
		}
		rows, err := svc.GetSavedPlans(c.Request.Context(), kind, sub, mat, year)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, nonNil(rows))
	}
}

// planHistory builds GET /history/:subdivisionId/:materialId/:year returning
// the save journal of kind, newest first.
func planHistory(h *BaseHandler, svc *planning.Service, kind plans.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
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
		entries, err := svc.GetHistoryPlans(c.Request.Context(), kind, sub, mat, year)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, nonNil(entries))
	}
}
