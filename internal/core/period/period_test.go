package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"iso date", "2024-03-17", Month(2024, time.March), false},
		{"rfc3339", "2024-03-17T10:00:00Z", Month(2024, time.March), false},
		{"year month", "2024-12", Month(2024, time.December), false},
		{"garbage", "march", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestNextRollsOverDecember(t *testing.T) {
	assert.Equal(t, Month(2025, time.January), Next(Month(2024, time.December)))
	assert.Equal(t, Month(2023, time.December), Prev(Month(2024, time.January)))
}

func TestMonthsOfYear(t *testing.T) {
	months := MonthsOfYear(2024)
	require.Len(t, months, 12)
	assert.Equal(t, Month(2024, time.January), months[0])
	assert.Equal(t, Month(2024, time.December), months[11])
}

func TestParseMarker(t *testing.T) {
	m, err := ParseMarker("2023-01")
	require.NoError(t, err)
	assert.Equal(t, 2023, m.Year)
	assert.Equal(t, time.January, m.Month)
	assert.Nil(t, m.SubdivisionID)
	assert.Nil(t, m.MaterialID)

	m, err = ParseMarker("2024-05@3:*")
	require.NoError(t, err)
	require.NotNil(t, m.SubdivisionID)
	assert.Equal(t, int64(3), *m.SubdivisionID)
	assert.Nil(t, m.MaterialID)
	assert.Equal(t, "2024-05@3:*", m.String())

	_, err = ParseMarker("2024-05@x:1")
	assert.Error(t, err)
	_, err = ParseMarker("2024/05")
	assert.Error(t, err)
}

func TestFrozenSet_IsFrozen(t *testing.T) {
	set := MustFrozenSet("2023-01", "2024-06@7:9")

	tests := []struct {
		name string
		sub  int64
		mat  int64
		date time.Time
		want bool
	}{
		{"global baseline any key", 1, 2, Month(2023, time.January), true},
		{"global baseline mid-month date", 99, 42, time.Date(2023, 1, 20, 0, 0, 0, 0, time.UTC), true},
		{"other month", 1, 2, Month(2023, time.February), false},
		{"scoped match", 7, 9, Month(2024, time.June), true},
		{"scoped other material", 7, 8, Month(2024, time.June), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, set.IsFrozen(tt.sub, tt.mat, tt.date))
		})
	}
}

func TestFrozenSet_DecodeEmpty(t *testing.T) {
	var set FrozenSet
	require.NoError(t, set.Decode(""))
	assert.Empty(t, set)
	assert.False(t, set.IsFrozen(1, 1, Month(2023, time.January)))
}
