package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain date", "2025-10-08", "2025-10-08", true},
		{"trailing weekday annotation", "2025-10-08 (śr.)", "2025-10-08", true},
		{"date inside text", "Data: 2025-10-08, Waga: 5", "2025-10-08", true},
		{"single digit day", "2025-10-1", "2025-10-01", true},
		{"no date", "Unknown", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, FormatDateStr(got))
			}
		})
	}
}

func TestNormalizeDateString(t *testing.T) {
	assert.Equal(t, "2025-10-01", NormalizeDateString("2025-10-1"))
	assert.Equal(t, "2025-01-09", NormalizeDateString("2025-1-9"))
	assert.Equal(t, "2025-10-23", NormalizeDateString("2025-10-23"))
	assert.Equal(t, "garbage", NormalizeDateString("garbage"))
}

func TestTomorrow(t *testing.T) {
	now := Date(2025, 10, 15) // Wednesday
	tomorrow := Tomorrow(now)
	assert.Equal(t, "2025-10-16", FormatDateStr(tomorrow))
	assert.Equal(t, 0, tomorrow.Hour())
}

func TestWeekdayName(t *testing.T) {
	wed := Date(2025, 10, 15)
	assert.Equal(t, "Wednesday", WeekdayName(wed))
	assert.Equal(t, "środa", WeekdayNamePl(wed))
}

func TestIsSameDay(t *testing.T) {
	a := time.Date(2025, 10, 15, 23, 30, 0, 0, time.UTC)
	b := time.Date(2025, 10, 16, 0, 30, 0, 0, time.UTC)
	// 23:30 UTC is already the next day in Warsaw (CEST).
	assert.True(t, IsSameDay(a, b))
}

func TestIsQuietHours(t *testing.T) {
	assert.True(t, IsQuietHours(time.Date(2025, 10, 15, 23, 30, 0, 0, WarsawTZ)))
	assert.True(t, IsQuietHours(time.Date(2025, 10, 15, 3, 0, 0, 0, WarsawTZ)))
	assert.False(t, IsQuietHours(time.Date(2025, 10, 15, 16, 0, 0, 0, WarsawTZ)))
}
