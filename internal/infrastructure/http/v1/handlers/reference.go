package handlers

import (
	"github.com/gin-gonic/gin"

	"supplyplan/internal/domain/reference"
	"supplyplan/internal/infrastructure/http/v1/dto"
)

// ReferenceHandler exposes read-only master data.
type ReferenceHandler struct {
	*BaseHandler
	repo reference.Repository
}

// NewReferenceHandler creates the reference data handler.
func NewReferenceHandler(base *BaseHandler, repo reference.Repository) *ReferenceHandler {
	return &ReferenceHandler{BaseHandler: base, repo: repo}
}

type subdivisionQuery struct {
	Type string `form:"type" binding:"omitempty,oneof=Trading Production"`
}

type materialQuery struct {
	Type string `form:"type" binding:"omitempty,oneof=RawMaterial FinishedProduct"`
}

type regulationQuery struct {
	SubdivisionID int64 `form:"subdivisionId" binding:"omitempty,min=1"`
	MaterialID    int64 `form:"materialId" binding:"omitempty,min=1"`
	Year          int   `form:"year" binding:"omitempty,planyear"`
}

type cardQuery struct {
	SubdivisionID     int64 `form:"subdivisionId" binding:"omitempty,min=1"`
	RawMaterialID     int64 `form:"rawMaterialId" binding:"omitempty,min=1"`
	FinishedProductID int64 `form:"finishedProductId" binding:"omitempty,min=1"`
}

// Subdivisions handles GET /Subdivisions?type=.
func (h *ReferenceHandler) Subdivisions(c *gin.Context) {
	var q subdivisionQuery
	if !h.BindQuery(c, &q) {
		return
	}
	var typ *reference.SubdivisionType
	if q.Type != "" {
		t := reference.SubdivisionType(q.Type)
		typ = &t
	}
	list, err := h.repo.ListSubdivisions(c.Request.Context(), typ)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nonNil(list))
}

// Subdivision handles GET /Subdivisions/:id.
func (h *ReferenceHandler) Subdivision(c *gin.Context) {
	id, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}
	s, err := h.repo.GetSubdivision(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Materials handles GET /Materials?type=.
func (h *ReferenceHandler) Materials(c *gin.Context) {
	var q materialQuery
	if !h.BindQuery(c, &q) {
		return
	}
	var typ *reference.MaterialType
	if q.Type != "" {
		t := reference.MaterialType(q.Type)
		typ = &t
	}
	list, err := h.repo.ListMaterials(c.Request.Context(), typ)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nonNil(list))
}

// Material handles GET /Materials/:id.
func (h *ReferenceHandler) Material(c *gin.Context) {
	id, ok := h.ParamInt64(c, "id")
	if !ok {
		return
	}
	m, err := h.repo.GetMaterial(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Regulations handles GET /Regulations.
func (h *ReferenceHandler) Regulations(c *gin.Context) {
	var q regulationQuery
	if !h.BindQuery(c, &q) {
		return
	}
	list, err := h.repo.ListRegulations(c.Request.Context(), reference.RegulationFilter{
		SubdivisionID: q.SubdivisionID,
		MaterialID:    q.MaterialID,
		Year:          q.Year,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nonNil(list))
}

// TechnologicalCards handles GET /TechnologicalCards.
func (h *ReferenceHandler) TechnologicalCards(c *gin.Context) {
	var q cardQuery
	if !h.BindQuery(c, &q) {
		return
	}
	list, err := h.repo.ListTechnologicalCards(c.Request.Context(), reference.CardFilter{
		SubdivisionID:     q.SubdivisionID,
		RawMaterialID:     q.RawMaterialID,
		FinishedProductID: q.FinishedProductID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nonNil(list))
}

// SupplySources handles GET /SupplySources?year=.
func (h *ReferenceHandler) SupplySources(c *gin.Context) {
	var q dto.YearRequest
	if !h.BindQuery(c, &q) {
		return
	}
	list, err := h.repo.ListSupplySources(c.Request.Context(), q.Year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nonNil(list))
}
