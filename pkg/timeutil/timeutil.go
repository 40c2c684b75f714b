// Package timeutil provides timezone utilities for the Warsaw timezone.
// All Librus dates (grade dates, lesson days, report headers) are local to
// Poland, so every date decision in the notifier goes through this package.
// No external dependencies - uses only standard library.
package timeutil

import (
	"regexp"
	"time"
)

// WarsawTZ is the Europe/Warsaw timezone. Poland observes DST, so the IANA
// database is authoritative; the fixed CET fallback only matters on hosts
// with no tzdata at all.
var WarsawTZ = loadWarsaw()

func loadWarsaw() *time.Location {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		return time.FixedZone("CET", 1*60*60)
	}
	return loc
}

// Now returns the current time in Warsaw timezone.
func Now() time.Time {
	return time.Now().In(WarsawTZ)
}

// ToWarsaw converts a time to Warsaw timezone.
func ToWarsaw(t time.Time) time.Time {
	return t.In(WarsawTZ)
}

// Date creates a time in Warsaw timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, WarsawTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Warsaw timezone.
func StartOfDay(t time.Time) time.Time {
	w := ToWarsaw(t)
	return time.Date(w.Year(), w.Month(), w.Day(), 0, 0, 0, 0, WarsawTZ)
}

// Tomorrow returns the start of the next day in Warsaw timezone.
func Tomorrow(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// IsSameDay checks if two times are on the same day in Warsaw timezone.
func IsSameDay(t1, t2 time.Time) bool {
	w1, w2 := ToWarsaw(t1), ToWarsaw(t2)
	return w1.Year() == w2.Year() && w1.YearDay() == w2.YearDay()
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD) used across the
	// Librus API and in persisted snapshots.
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

// FormatWarsaw formats a time in Warsaw timezone with the given layout.
func FormatWarsaw(t time.Time, layout string) string {
	return ToWarsaw(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in Warsaw timezone.
func FormatDateStr(t time.Time) string {
	return FormatWarsaw(t, FormatDate)
}

// ParseWarsaw parses a time string in Warsaw timezone.
func ParseWarsaw(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, WarsawTZ)
}

// ParseDate parses a date string (YYYY-MM-DD) in Warsaw timezone.
func ParseDate(value string) (time.Time, error) {
	return ParseWarsaw(FormatDate, value)
}

// datePattern matches the first ISO-style date inside a larger string.
// Librus date fields frequently carry trailing annotations, e.g.
// "2025-10-08 (śr.)", and single-digit day/month parts do occur in
// calendar payloads ("2025-10-1").
var datePattern = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)

// ExtractDate locates the first YYYY-MM-DD substring in s and parses it in
// Warsaw timezone. The second return value is false when no date is present.
func ExtractDate(s string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	t, err := ParseDate(NormalizeDateString(m[0]))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDateString pads single-digit month/day parts so that plain string
// comparison of dates is safe ("2025-10-1" -> "2025-10-01").
func NormalizeDateString(s string) string {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	month, day := m[2], m[3]
	if len(month) == 1 {
		month = "0" + month
	}
	if len(day) == 1 {
		day = "0" + day
	}
	return m[1] + "-" + month + "-" + day
}

// WeekdayName returns the English weekday name for a date. Timetable grids
// from the portal are keyed by these names.
func WeekdayName(t time.Time) string {
	return ToWarsaw(t).Weekday().String()
}

// WeekdayNamePl returns the Polish name for a weekday, used in reports.
func WeekdayNamePl(t time.Time) string {
	switch ToWarsaw(t).Weekday() {
	case time.Monday:
		return "poniedziałek"
	case time.Tuesday:
		return "wtorek"
	case time.Wednesday:
		return "środa"
	case time.Thursday:
		return "czwartek"
	case time.Friday:
		return "piątek"
	case time.Saturday:
		return "sobota"
	case time.Sunday:
		return "niedziela"
	default:
		return ""
	}
}

// MonthNamePl returns the Polish genitive month name for report dates.
func MonthNamePl(m time.Month) string {
	names := []string{
		"", "stycznia", "lutego", "marca", "kwietnia", "maja", "czerwca",
		"lipca", "sierpnia", "września", "października", "listopada", "grudnia",
	}
	if int(m) >= 1 && int(m) <= 12 {
		return names[m]
	}
	return ""
}

// IsQuietHours checks whether notifications should be sent silently
// (23:00-07:00 Warsaw time). The run itself still happens; the transport
// just disables the client-side sound.
func IsQuietHours(t time.Time) bool {
	hour := ToWarsaw(t).Hour()
	return hour >= 23 || hour < 7
}
