// Package presenter formats domain data into the Polish Markdown messages
// sent to the Telegram chat.
package presenter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/librus-hub/librus-notify/internal/domain/librus"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

const (
	sectionRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	messageRule = "   ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
)

// Report renders the change report for all accounts that had updates.
func Report(updates []librus.AccountUpdate, now time.Time) string {
	var b strings.Builder

	b.WriteString("📚 *RAPORT ZMIAN W LIBRUS*\n")
	b.WriteString("📅 " + formatReportTimestamp(now) + "\n")
	b.WriteString(sectionRule + "\n\n")

	for _, update := range updates {
		writeAccountSection(&b, update)
	}

	return b.String()
}

func formatReportTimestamp(now time.Time) string {
	warsaw := timeutil.ToWarsaw(now)
	return fmt.Sprintf("%d %s %d, %02d:%02d",
		warsaw.Day(), timeutil.MonthNamePl(warsaw.Month()), warsaw.Year(),
		warsaw.Hour(), warsaw.Minute())
}

func writeAccountSection(b *strings.Builder, update librus.AccountUpdate) {
	changes := update.Changes

	b.WriteString("👤 *" + strings.ToUpper(update.AccountName) + "*\n")
	b.WriteString(sectionRule + "\n\n")

	if len(changes.NewGrades) > 0 {
		fmt.Fprintf(b, "📊 *NOWE OCENY (%d)*\n\n", len(changes.NewGrades))
		for _, grade := range changes.NewGrades {
			writeGrade(b, grade)
		}
	}

	if len(changes.NewMessages) > 0 {
		var regular, notes []librus.Message
		for _, msg := range changes.NewMessages {
			if msg.IsNote {
				notes = append(notes, msg)
			} else {
				regular = append(regular, msg)
			}
		}

		if len(regular) > 0 {
			fmt.Fprintf(b, "📨 *NOWE WIADOMOŚCI (%d)*\n\n", len(regular))
			for _, msg := range regular {
				writeMessage(b, msg)
			}
		}
		if len(notes) > 0 {
			fmt.Fprintf(b, "📝 *NOWE UWAGI (%d)*\n\n", len(notes))
			for _, note := range notes {
				writeMessage(b, note)
			}
		}
	}

	if len(changes.NewAnnouncements) > 0 {
		fmt.Fprintf(b, "📢 *NOWE OGŁOSZENIA (%d)*\n\n", len(changes.NewAnnouncements))
		for _, ann := range changes.NewAnnouncements {
			writeAnnouncement(b, ann)
		}
	}

	if len(changes.ScheduleChanges) > 0 {
		b.WriteString("📅 *ZMIANY W PLANIE*\n\n")
		for _, change := range changes.ScheduleChanges {
			fmt.Fprintf(b, "   • %s, lekcja %d: %s\n", change.Day, change.LessonNo, change.Subject)
		}
		b.WriteString("\n")
	}

	if len(changes.NewAttendance) > 0 {
		fmt.Fprintf(b, "✅ *NOWE FREKWENCJE (%d)*\n\n", len(changes.NewAttendance))
		for _, att := range changes.NewAttendance {
			fmt.Fprintf(b, "   • %s - Lekcja %s: %s (%s)\n",
				formatDate(att.Date), att.LessonNo, att.Type, att.Subject)
		}
	}

	if len(changes.NewCalendarEvents) > 0 {
		fmt.Fprintf(b, "📅 *NOWE WYDARZENIA (%d)*\n\n", len(changes.NewCalendarEvents))
		for _, event := range changes.NewCalendarEvents {
			writeCalendarEvent(b, event)
		}
	}

	b.WriteString(sectionRule + "\n\n")
}

func writeGrade(b *strings.Builder, grade librus.Grade) {
	fmt.Fprintf(b, "   %s *%s* - Ocena: *%s*\n", gradeEmoji(grade.Value), grade.Subject, grade.Value)
	fmt.Fprintf(b, "      Kategoria: %s\n", orNA(grade.Category))
	fmt.Fprintf(b, "      Waga: %s\n", orNA(grade.Weight))
	fmt.Fprintf(b, "      Data: %s\n", formatDate(grade.Date))
	if grade.Teacher != "" {
		fmt.Fprintf(b, "      Nauczyciel: %s\n", grade.Teacher)
	}
	if grade.Comment != "" {
		fmt.Fprintf(b, "      Komentarz: %q\n", grade.Comment)
	}
	b.WriteString("\n")
}

func writeMessage(b *strings.Builder, msg librus.Message) {
	b.WriteString(messageRule + "\n")
	fmt.Fprintf(b, "   *Od:* %s\n", msg.From)
	fmt.Fprintf(b, "   *Temat:* %s\n", msg.Subject)
	fmt.Fprintf(b, "   *Data:* %s\n", formatDate(msg.Date))
	if msg.HasAttachments {
		fmt.Fprintf(b, "   📎 *Załączniki:* %d\n", len(msg.Attachments))
	}
	b.WriteString("\n")
	b.WriteString(formatMessageBody(msg.Body))
	b.WriteString(messageRule + "\n\n")
}

func writeAnnouncement(b *strings.Builder, ann librus.Announcement) {
	title := ann.Title
	if title == "" {
		title = "Ogłoszenie"
	}
	date := ann.Date
	if date == "" {
		date = "Brak daty"
	}

	fmt.Fprintf(b, "   *%s*\n", title)
	fmt.Fprintf(b, "   📅 Data: %s\n", formatDate(date))
	if ann.Author != "" {
		fmt.Fprintf(b, "   👤 Autor: %s\n", ann.Author)
	}
	b.WriteString("\n")

	content := strings.TrimSpace(stripTags(ann.Content))
	if content != "" {
		for _, line := range strings.Split(content, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				b.WriteString("   " + trimmed + "\n")
			}
		}
	}
	b.WriteString("\n")
}

func writeCalendarEvent(b *strings.Builder, event librus.CalendarEvent) {
	fmt.Fprintf(b, "   %s *%s*\n", EventEmoji(event.Category), event.Title)
	if event.Date != "" {
		fmt.Fprintf(b, "   📅 %s\n", formatLongDate(event.Date))
	}
	if event.Category != "" {
		fmt.Fprintf(b, "   🏷️ %s\n", event.Category)
	}
	if event.Description != "" {
		fmt.Fprintf(b, "   📝 %s\n", event.Description)
	}
	b.WriteString("\n")
}

var (
	paragraphEndPattern = regexp.MustCompile(`(?i)</p>`)
	lineBreakPattern    = regexp.MustCompile(`(?i)<br\s*/?>`)
	divEndPattern       = regexp.MustCompile(`(?i)</div>`)
	tagPattern          = regexp.MustCompile(`<[^>]*>`)
)

// formatMessageBody converts the portal's HTML message body into indented
// plain text, preserving paragraph breaks.
func formatMessageBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return "   [Brak treści wiadomości]\n\n"
	}

	clean := paragraphEndPattern.ReplaceAllString(body, "\n\n")
	clean = lineBreakPattern.ReplaceAllString(clean, "\n")
	clean = divEndPattern.ReplaceAllString(clean, "\n")
	clean = tagPattern.ReplaceAllString(clean, "")
	clean = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
	).Replace(clean)
	clean = strings.TrimSpace(clean)

	var formatted strings.Builder
	for _, line := range strings.Split(clean, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			formatted.WriteString("   " + trimmed + "\n")
		} else if out := formatted.String(); strings.HasSuffix(out, "\n") && !strings.HasSuffix(out, "\n\n") {
			formatted.WriteString("\n")
		}
	}
	formatted.WriteString("\n")
	return formatted.String()
}

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// gradeEmoji picks the grade marker from the leading digit, so "4+" rates
// the same as "4".
func gradeEmoji(value string) string {
	digits := value
	for i, r := range value {
		if r < '0' || r > '9' {
			digits = value[:i]
			break
		}
	}
	switch digits {
	case "6", "5":
		return "⭐"
	case "4":
		return "📝"
	case "3":
		return "📄"
	default:
		return "⚠️"
	}
}

// EventEmoji picks the marker for a calendar event category.
func EventEmoji(category string) string {
	switch {
	case strings.Contains(category, "Kartkówka"):
		return "📝"
	case strings.Contains(category, "Sprawdzian"):
		return "📋"
	case strings.Contains(category, "Nieobecność"):
		return "👤"
	case strings.Contains(category, "Zastępstwo"):
		return "🔄"
	default:
		return "📌"
	}
}

// formatDate renders a portal date string as DD.MM.YYYY, falling back to the
// raw value when no date can be extracted.
func formatDate(dateStr string) string {
	if date, ok := timeutil.ExtractDate(dateStr); ok {
		return timeutil.FormatWarsaw(date, "02.01.2006")
	}
	return dateStr
}

// formatLongDate renders a portal date with the Polish weekday and month,
// e.g. "środa, 15 października 2025".
func formatLongDate(dateStr string) string {
	date, ok := timeutil.ExtractDate(dateStr)
	if !ok {
		return dateStr
	}
	warsaw := timeutil.ToWarsaw(date)
	return fmt.Sprintf("%s, %d %s %d",
		timeutil.WeekdayNamePl(date), warsaw.Day(),
		timeutil.MonthNamePl(warsaw.Month()), warsaw.Year())
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
