package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDeletedResponse(t *testing.T) {
	tests := []struct {
		n       int64
		year    int
		message string
	}{
		{0, 2024, "0 plans deleted for 2024"},
		{12, 2025, "12 plans deleted for 2025"},
	}
	for _, tt := range tests {
		got := NewDeletedResponse(tt.n, tt.year)
		assert.Equal(t, tt.n, got.DeletedCount)
		assert.Equal(t, tt.message, got.Message)
	}
}
