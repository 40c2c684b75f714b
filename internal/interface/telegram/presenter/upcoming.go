package presenter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/librus-hub/librus-notify/internal/domain/librus"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

// maxEventDescription caps event descriptions in the digest.
const maxEventDescription = 200

// AccountCalendar carries one account's calendar for the upcoming digest.
type AccountCalendar struct {
	AccountName string
	Events      []librus.CalendarEvent
}

// UpcomingEvents renders the digest of quizzes and tests falling within the
// next daysAhead days, today inclusive.
func UpcomingEvents(accounts []AccountCalendar, daysAhead int, now time.Time) string {
	startDate := timeutil.FormatDateStr(now)
	endDate := timeutil.FormatDateStr(now.AddDate(0, 0, daysAhead))

	var b strings.Builder
	b.WriteString("📝 *NADCHODZĄCE SPRAWDZIANY I KARTKÓWKI*\n")
	fmt.Fprintf(&b, "📅 Najbliższe %d dni\n", daysAhead)
	b.WriteString(sectionRule + "\n\n")

	hasAny := false
	for _, account := range accounts {
		events := filterUpcoming(account.Events, startDate, endDate)
		if len(events) == 0 {
			continue
		}
		hasAny = true

		b.WriteString("👤 *" + strings.ToUpper(account.AccountName) + "*\n")
		for _, event := range events {
			writeUpcomingEvent(&b, event)
		}
		b.WriteString("\n")
	}

	if !hasAny {
		fmt.Fprintf(&b, "✨ Brak sprawdzianów i kartkówek w najbliższych %d dniach!\n\n", daysAhead)
	}

	b.WriteString(sectionRule + "\n")
	return b.String()
}

// filterUpcoming keeps quiz/test events inside the date range. Dates compare
// as normalized YYYY-MM-DD strings, which sidesteps timezone drift around
// midnight.
func filterUpcoming(events []librus.CalendarEvent, startDate, endDate string) []librus.CalendarEvent {
	var upcoming []librus.CalendarEvent
	for _, event := range events {
		if !isQuizOrTest(event.Category) || event.Date == "" {
			continue
		}
		date := timeutil.NormalizeDateString(event.Date)
		if date >= startDate && date <= endDate {
			upcoming = append(upcoming, event)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return timeutil.NormalizeDateString(upcoming[i].Date) <
			timeutil.NormalizeDateString(upcoming[j].Date)
	})
	return upcoming
}

func isQuizOrTest(category string) bool {
	return strings.Contains(category, "Kartkówka") || strings.Contains(category, "Sprawdzian")
}

func writeUpcomingEvent(b *strings.Builder, event librus.CalendarEvent) {
	fmt.Fprintf(b, "   %s *%s*\n", EventEmoji(event.Category), CleanEventTitle(event.Title))
	if event.Date != "" {
		fmt.Fprintf(b, "      📅 %s\n", formatLongDate(event.Date))
	}
	if event.Category != "" {
		fmt.Fprintf(b, "      🏷️ %s\n", event.Category)
	}

	if desc := strings.TrimSpace(event.Description); desc != "" {
		// Truncation counts runes, not bytes; a byte cut through a Polish
		// letter would hand Telegram invalid UTF-8.
		if runes := []rune(desc); len(runes) > maxEventDescription {
			desc = string(runes[:maxEventDescription]) + "..."
		}
		fmt.Fprintf(b, "      📝 %s\n", desc)
	}
	b.WriteString("\n")
}

var (
	lessonNoNoisePattern = regexp.MustCompile(`(?i)Nr lekcji:\s*\d+`)
	roomNoisePattern     = regexp.MustCompile(`(?i)Sala:\s*\d+`)
	classNoisePattern    = regexp.MustCompile(`(?i)\d+[a-z]\s*SP`)
	doubleCommaPattern   = regexp.MustCompile(`,\s*,`)
	spaceRunPattern      = regexp.MustCompile(`\s+`)
)

// CleanEventTitle strips the lesson-number, room and class annotations the
// portal glues onto event titles, e.g.
// "Nr lekcji: 3Język angielski, sprawdzian2a SP" -> "Język angielski, sprawdzian".
func CleanEventTitle(title string) string {
	if title == "" {
		return "Wydarzenie"
	}

	cleaned := lessonNoNoisePattern.ReplaceAllString(title, "")
	cleaned = roomNoisePattern.ReplaceAllString(cleaned, "")
	cleaned = classNoisePattern.ReplaceAllString(cleaned, "")
	cleaned = doubleCommaPattern.ReplaceAllString(cleaned, ",")
	cleaned = spaceRunPattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cleaned), ","))

	if cleaned == "" {
		return title
	}
	return cleaned
}
