package presenter

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/librus-hub/librus-notify/internal/domain/timetable"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

// 2025-10-14 is a Tuesday, so the report covers Wednesday.
func tuesday() (now string, grid timetable.Grid) {
	return "2025-10-14", timetable.Grid{
		"Wednesday": {
			{Subject: "Matematyka", Teacher: "Nowak", Room: "12", Time: "08:00 - 08:45"},
			{Subject: "Historia", Cancelled: true},
			nil,
			{Subject: "Fizyka", Substitution: true},
		},
	}
}

func TestTomorrowScheduleFormatsLessons(t *testing.T) {
	_, grid := tuesday()
	now := timeutil.Date(2025, 10, 14)

	report := TomorrowSchedule([]ScheduleSection{{AccountName: "Jan", Grid: grid}}, now)

	assert.True(t, strings.HasPrefix(report, "📚 *PLAN LEKCJI NA JUTRO*\n"))
	assert.Contains(t, report, "📅 środa, 15 października 2025")
	assert.Contains(t, report, "👤 *JAN*")
	assert.Contains(t, report, "📖 *Lekcja 1*: Matematyka")
	assert.Contains(t, report, "⏰ 08:00 - 08:45")
	assert.Contains(t, report, "👨‍🏫 Nowak")
	assert.Contains(t, report, "🚪 Sala: 12")
	assert.Contains(t, report, "❌ *Lekcja 2*: Historia")
	assert.Contains(t, report, "⚠️ *ODWOŁANA*")
	assert.Contains(t, report, "🔄 *Lekcja 4*: Fizyka")
	assert.Contains(t, report, "ℹ️ Zastępstwo")
	// The free period at slot 3 is skipped entirely.
	assert.NotContains(t, report, "Lekcja 3")
}

func TestTomorrowScheduleNoLessons(t *testing.T) {
	now := timeutil.Date(2025, 10, 14)
	grid := timetable.Grid{"Wednesday": {nil, nil}}

	report := TomorrowSchedule([]ScheduleSection{{AccountName: "Ala", Grid: grid}}, now)
	assert.Contains(t, report, "✨ Brak lekcji!")
}

func TestTomorrowScheduleFetchErrorBecomesLine(t *testing.T) {
	now := timeutil.Date(2025, 10, 14)
	_, grid := tuesday()

	report := TomorrowSchedule([]ScheduleSection{
		{AccountName: "Jan", Err: errors.New("login failed")},
		{AccountName: "Ala", Grid: grid},
	}, now)

	assert.Contains(t, report, "👤 *JAN*")
	assert.Contains(t, report, "⚠️ Nie udało się pobrać planu lekcji")
	assert.Contains(t, report, "👤 *ALA*")
	assert.Contains(t, report, "📖 *Lekcja 1*: Matematyka")
}
