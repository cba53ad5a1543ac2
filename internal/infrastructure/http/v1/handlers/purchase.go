package handlers

import (
	"github.com/gin-gonic/gin"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/domain/planning"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler serves raw material purchase calculations.
type PurchaseHandler struct {
	*BaseHandler
	planning *planning.Service
}

// NewPurchaseHandler creates the purchase calculation handler.
func NewPurchaseHandler(base *BaseHandler, svc *planning.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, planning: svc}
}

type purchaseRecalcResponse struct {
	PurchasePlans []planning.PurchaseMonth `json:"purchasePlans"`
	Save          *planning.SaveResult     `json:"save"`
}

// CalculateYear handles POST /CalculateYearPlan.
func (h *PurchaseHandler) CalculateYear(c *gin.Context) {
	var req dto.RawYearRequest
	if !h.BindJSON(c, &req) {
		return
	}
	months, err := h.planning.CalculatePurchaseYear(c.Request.Context(), req.SubdivisionID, req.RawMaterialID, req.Year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, months)
}

// SaveYear handles POST /SaveYearPlan. All items must share one
// (subdivision, raw material) pair.
func (h *PurchaseHandler) SaveYear(c *gin.Context) {
	var req dto.SavePurchasesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	first := req.PurchasePlans[0]
	calculated := make([]planning.CalculatedPlan, 0, len(req.PurchasePlans))
	for _, item := range req.PurchasePlans {
		if item.SubdivisionID != first.SubdivisionID || item.RawMaterialID != first.RawMaterialID {
			h.Error(c, apperror.NewValidation("purchasePlans must belong to one subdivision and raw material").
				WithDetail("field", "purchasePlans"))
			return
		}
		date, ok := h.ParseDate(c, "purchasePlans.date", item.Date)
		if !ok {
			return
		}
		calculated = append(calculated, planning.CalculatedPlan{
			Date:     date,
			Quantity: *item.PurchasePlanQuantity,
			Note:     item.Note,
		})
	}

	res, err := h.planning.SaveCalculatedPlans(c.Request.Context(), planning.SaveRequest{
		Kind:              plans.KindPurchase,
		SubdivisionID:     first.SubdivisionID,
		MaterialID:        first.RawMaterialID,
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

// Recalculate handles POST /RecalculatePlans: calculate and overwrite.
func (h *PurchaseHandler) Recalculate(c *gin.Context) {
	var req dto.RawYearRequest
	if !h.BindJSON(c, &req) {
		return
	}
	months, saved, err := h.planning.RecalculatePurchases(c.Request.Context(),
		req.SubdivisionID, req.RawMaterialID, req.Year, req.Comment)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, purchaseRecalcResponse{PurchasePlans: months, Save: saved})
}

// Existing handles GET /GetExistingPlans/:subdivisionId/:rawMaterialId/:year.
func (h *PurchaseHandler) Existing(c *gin.Context) {
	sub, ok := h.ParamInt64(c, "subdivisionId")
	if !ok {
		return
	}
	raw, ok := h.ParamInt64(c, "rawMaterialId")
	if !ok {
		return
	}
	year, ok := h.ParamYear(c)
	if !ok {
		return
	}
	rows, err := h.planning.GetExistingPurchases(c.Request.Context(), sub, raw, year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nonNil(rows))
}

// Compare handles POST /ComparePlans.
func (h *PurchaseHandler) Compare(c *gin.Context) {
	compareCalculated(h.BaseHandler, h.planning, plans.KindPurchase)(c)
}

// History handles GET /History/:subdivisionId/:materialId/:year.
func (h *PurchaseHandler) History(c *gin.Context) {
	planHistory(h.BaseHandler, h.planning, plans.KindPurchase)(c)
}
