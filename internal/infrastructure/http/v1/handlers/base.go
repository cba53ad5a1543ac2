package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/core/period"
	"supplyplan/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, bindError("invalid request body", err))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, bindError("invalid query parameters", err))
		return false
	}
	return true
}

func bindError(message string, err error) *apperror.AppError {
	appErr := apperror.NewValidation(message)
	if fields := dto.FieldErrors(err); fields != nil {
		return appErr.WithDetail("fields", fields)
	}
	return appErr.WithDetail("error", err.Error())
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParamInt64 parses a positive integer path parameter.
func (h *BaseHandler) ParamInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		h.Error(c, apperror.NewValidation(name+" must be a positive integer").
			WithDetail("field", name).
			WithDetail("value", c.Param(name)))
		return 0, false
	}
	return v, true
}

// ParamYear parses the year path parameter.
func (h *BaseHandler) ParamYear(c *gin.Context) (int, bool) {
	v, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.Error(c, apperror.NewValidation("year must be an integer").WithDetail("field", "year"))
		return 0, false
	}
	return v, true
}

// ParseDate parses a request date and normalizes it to the first of the month.
func (h *BaseHandler) ParseDate(c *gin.Context, field, value string) (time.Time, bool) {
	t, err := period.ParseDate(value)
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", field))
		return time.Time{}, false
	}
	return t, true
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, id int64) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: id})
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
