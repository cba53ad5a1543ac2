package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundQuantity(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{150, 150},
		{149.5, 150},
		{149.49, 149},
		{-2.5, -3},
		{0.4999, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundQuantity(tt.in), "round(%v)", tt.in)
	}
}

func TestNearlyEqual(t *testing.T) {
	assert.True(t, NearlyEqual(100, 100.005))
	assert.False(t, NearlyEqual(100, 90))
	assert.False(t, NearlyEqual(100, 100.01))
}

func TestMulRatio(t *testing.T) {
	assert.Equal(t, 20.0, MulRatio(10, MustRatio("2")))
	assert.Equal(t, 0.3, MulRatio(1, MustRatio("0.3")))
}
