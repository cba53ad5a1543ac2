// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import "fmt"

// IDResponse for create operations.
type IDResponse struct {
	ID int64 `json:"id"`
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// DeletedResponse reports how many rows a bulk delete removed.
type DeletedResponse struct {
	DeletedCount int64  `json:"deletedCount"`
	Message      string `json:"message"`
}

// NewDeletedResponse describes a yearly delete of n plans.
func NewDeletedResponse(n int64, year int) DeletedResponse {
	return DeletedResponse{
		DeletedCount: n,
		Message:      fmt.Sprintf("%d plans deleted for %d", n, year),
	}
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// YearRequest selects a planning year.
type YearRequest struct {
	Year int `json:"year" form:"year" binding:"required,planyear"`
}
