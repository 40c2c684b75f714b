package presenter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/librus-hub/librus-notify/internal/domain/librus"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

func sampleUpdate() librus.AccountUpdate {
	return librus.AccountUpdate{
		AccountName: "Jan",
		Changes: &librus.ChangeSet{
			HasChanges: true,
			NewGrades: []librus.Grade{
				{Subject: "Matematyka", Value: "5", Category: "kartkówka", Weight: "5", Date: "2025-10-08", Teacher: "Nowak", Comment: "ułamki"},
				{Subject: "Chemia", Value: "2", Category: "odpowiedź", Weight: "3", Date: "2025-10-08"},
			},
			NewMessages: []librus.Message{
				{From: "Kowalska Anna", Subject: "Wycieczka", Date: "2025-10-07", Body: "<p>Zbiórka o 8:00</p><br>Prosimy o punktualność"},
				{From: "Wychowawca", Subject: "Uwaga", Date: "2025-10-07", IsNote: true, Body: "Rozmowy na lekcji"},
			},
			NewAnnouncements: []librus.Announcement{
				{Title: "Dzień otwarty", Content: "<b>Zapraszamy</b> rodziców", Date: "2025-10-10", Author: "Dyrekcja"},
			},
			NewAttendance: []librus.AttendanceRecord{
				{Date: "2025-10-06", LessonNo: "4", Type: "nieobecność", Subject: "WF"},
			},
			NewCalendarEvents: []librus.CalendarEvent{
				{Title: "Sprawdzian", Date: "2025-10-15", Category: "Sprawdzian"},
			},
		},
	}
}

func TestReportHeaderAndAccountSection(t *testing.T) {
	now := timeutil.Date(2025, 10, 8).Add(14*time.Hour + 30*time.Minute)

	report := Report([]librus.AccountUpdate{sampleUpdate()}, now)

	assert.True(t, strings.HasPrefix(report, "📚 *RAPORT ZMIAN W LIBRUS*\n"))
	assert.Contains(t, report, "📅 8 października 2025, 14:30")
	assert.Contains(t, report, "👤 *JAN*")
	assert.Contains(t, report, "📊 *NOWE OCENY (2)*")
	assert.Contains(t, report, "⭐ *Matematyka* - Ocena: *5*")
	assert.Contains(t, report, "⚠️ *Chemia* - Ocena: *2*")
	assert.Contains(t, report, "Komentarz: \"ułamki\"")
	assert.Contains(t, report, "📨 *NOWE WIADOMOŚCI (1)*")
	assert.Contains(t, report, "📝 *NOWE UWAGI (1)*")
	assert.Contains(t, report, "📢 *NOWE OGŁOSZENIA (1)*")
	assert.Contains(t, report, "✅ *NOWE FREKWENCJE (1)*")
	assert.Contains(t, report, "Lekcja 4: nieobecność (WF)")
	assert.Contains(t, report, "📅 *NOWE WYDARZENIA (1)*")
}

func TestReportStripsMessageHTML(t *testing.T) {
	report := Report([]librus.AccountUpdate{sampleUpdate()}, timeutil.Now())

	assert.NotContains(t, report, "<p>")
	assert.NotContains(t, report, "<br>")
	assert.NotContains(t, report, "<b>")
	assert.Contains(t, report, "Zbiórka o 8:00")
	assert.Contains(t, report, "Prosimy o punktualność")
	assert.Contains(t, report, "Zapraszamy rodziców")
}

func TestReportEmptyMessageBodyPlaceholder(t *testing.T) {
	update := librus.AccountUpdate{
		AccountName: "Ala",
		Changes: &librus.ChangeSet{
			HasChanges:  true,
			NewMessages: []librus.Message{{From: "Nadawca", Subject: "Temat", Date: "2025-10-07"}},
		},
	}

	report := Report([]librus.AccountUpdate{update}, timeutil.Now())
	assert.Contains(t, report, "[Brak treści wiadomości]")
}

func TestGradeEmoji(t *testing.T) {
	cases := map[string]string{
		"6":  "⭐",
		"5":  "⭐",
		"4+": "📝",
		"3-": "📄",
		"2":  "⚠️",
		"1":  "⚠️",
		"np": "⚠️",
	}
	for value, want := range cases {
		assert.Equal(t, want, gradeEmoji(value), "value %q", value)
	}
}

func TestFormatDateFallsBackToRaw(t *testing.T) {
	assert.Equal(t, "08.10.2025", formatDate("2025-10-08 (śr.)"))
	assert.Equal(t, "wczoraj", formatDate("wczoraj"))
}
