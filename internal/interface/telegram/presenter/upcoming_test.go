package presenter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/librus-hub/librus-notify/internal/domain/librus"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

func TestUpcomingEventsFiltersAndSorts(t *testing.T) {
	now := timeutil.Date(2025, 10, 13)
	accounts := []AccountCalendar{{
		AccountName: "Jan",
		Events: []librus.CalendarEvent{
			{Title: "Sprawdzian chemia", Date: "2025-10-15", Category: "Sprawdzian"},
			{Title: "Kartkówka polski", Date: "2025-10-14", Category: "Kartkówka"},
			// Outside the 2-day window.
			{Title: "Sprawdzian fizyka", Date: "2025-10-16", Category: "Sprawdzian"},
			// Wrong category.
			{Title: "Wycieczka", Date: "2025-10-14", Category: "Wydarzenie"},
		},
	}}

	report := UpcomingEvents(accounts, 2, now)

	assert.Contains(t, report, "👤 *JAN*")
	assert.Contains(t, report, "Kartkówka polski")
	assert.Contains(t, report, "Sprawdzian chemia")
	assert.NotContains(t, report, "Sprawdzian fizyka")
	assert.NotContains(t, report, "Wycieczka")

	// Sorted by date: the quiz on the 14th comes before the test on the 15th.
	assert.Less(t,
		strings.Index(report, "Kartkówka polski"),
		strings.Index(report, "Sprawdzian chemia"))
}

func TestUpcomingEventsInclusiveRangeWithUnpaddedDates(t *testing.T) {
	// Portal calendar dates sometimes come unpadded ("2025-10-1").
	now := timeutil.Date(2025, 10, 1)
	accounts := []AccountCalendar{{
		AccountName: "Ala",
		Events: []librus.CalendarEvent{
			{Title: "Kartkówka dziś", Date: "2025-10-1", Category: "Kartkówka"},
			{Title: "Sprawdzian na granicy", Date: "2025-10-3", Category: "Sprawdzian"},
		},
	}}

	report := UpcomingEvents(accounts, 2, now)
	assert.Contains(t, report, "Kartkówka dziś")
	assert.Contains(t, report, "Sprawdzian na granicy")
}

func TestUpcomingEventsEmptyDigest(t *testing.T) {
	report := UpcomingEvents(nil, 2, timeutil.Date(2025, 10, 13))
	assert.Contains(t, report, "✨ Brak sprawdzianów i kartkówek w najbliższych 2 dniach!")
}

func TestCleanEventTitle(t *testing.T) {
	cases := map[string]string{
		"Nr lekcji: 3Język angielski, sprawdzian2a SP": "Język angielski, sprawdzian",
		"Kartkówka Sala: 21 matematyka":                "Kartkówka matematyka",
		"":                                             "Wydarzenie",
		"Zwykły tytuł":                                 "Zwykły tytuł",
	}
	for input, want := range cases {
		assert.Equal(t, want, CleanEventTitle(input), "input %q", input)
	}
}

func TestUpcomingEventTruncatesLongDescription(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "bardzo długi opis "
	}
	accounts := []AccountCalendar{{
		AccountName: "Jan",
		Events: []librus.CalendarEvent{
			{Title: "Sprawdzian", Date: "2025-10-14", Category: "Sprawdzian", Description: long},
		},
	}}

	report := UpcomingEvents(accounts, 2, timeutil.Date(2025, 10, 13))
	assert.Contains(t, report, "...")
	assert.NotContains(t, report, long)
}

func TestUpcomingEventTruncationKeepsValidUTF8(t *testing.T) {
	// Polish letters are multi-byte; the cut must land between runes, never
	// inside one, or Telegram rejects the whole digest.
	long := "a" + strings.Repeat("ą", maxEventDescription)
	accounts := []AccountCalendar{{
		AccountName: "Jan",
		Events: []librus.CalendarEvent{
			{Title: "Sprawdzian", Date: "2025-10-14", Category: "Sprawdzian", Description: long},
		},
	}}

	report := UpcomingEvents(accounts, 2, timeutil.Date(2025, 10, 13))
	assert.True(t, utf8.ValidString(report))
	assert.Contains(t, report, "...")
	assert.Contains(t, report, "a"+strings.Repeat("ą", maxEventDescription-1)+"...")
}
