// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"github.com/google/uuid"
)

// RequestInfo identifies a single API call for logs and the plan audit journal.
type RequestInfo struct {
	TraceID   string
	SpanID    string
	RequestID string

	// Operator is a free-form label supplied by the client (X-Operator header).
	// It is not authenticated.
	Operator string
}

type requestInfoKey struct{}

// WithRequest adds RequestInfo to context.
func WithRequest(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// GetRequest returns RequestInfo from context.
func GetRequest(ctx context.Context) *RequestInfo {
	if v, ok := ctx.Value(requestInfoKey{}).(*RequestInfo); ok {
		return v
	}
	return nil
}

// GetTraceID returns trace ID from context or generates new one.
func GetTraceID(ctx context.Context) string {
	if r := GetRequest(ctx); r != nil {
		return r.TraceID
	}
	return uuid.New().String()
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if r := GetRequest(ctx); r != nil {
		return r.RequestID
	}
	return ""
}

// GetOperator returns the operator label or "system" for background jobs.
func GetOperator(ctx context.Context) string {
	if r := GetRequest(ctx); r != nil && r.Operator != "" {
		return r.Operator
	}
	return "system"
}

// NewRequestInfo creates a RequestInfo with generated IDs.
func NewRequestInfo() *RequestInfo {
	return &RequestInfo{
		TraceID:   uuid.New().String(),
		SpanID:    uuid.New().String()[:16],
		RequestID: uuid.New().String(),
	}
}
