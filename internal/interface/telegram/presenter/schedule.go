package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/librus-hub/librus-notify/internal/domain/timetable"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

// ScheduleSection carries one account's contribution to the tomorrow report.
// A fetch failure becomes an error line in the report instead of dropping
// the whole send.
type ScheduleSection struct {
	AccountName string
	Grid        timetable.Grid
	Err         error
}

// TomorrowSchedule renders the daily lesson plan report for the next day.
func TomorrowSchedule(sections []ScheduleSection, now time.Time) string {
	tomorrow := timeutil.Tomorrow(now)
	warsaw := timeutil.ToWarsaw(tomorrow)

	var b strings.Builder
	b.WriteString("📚 *PLAN LEKCJI NA JUTRO*\n")
	fmt.Fprintf(&b, "📅 %s, %d %s %d\n",
		timeutil.WeekdayNamePl(tomorrow), warsaw.Day(),
		timeutil.MonthNamePl(warsaw.Month()), warsaw.Year())
	b.WriteString(sectionRule + "\n\n")

	dayKey := timeutil.WeekdayName(tomorrow)

	for _, section := range sections {
		b.WriteString("👤 *" + strings.ToUpper(section.AccountName) + "*\n\n")

		if section.Err != nil {
			b.WriteString("⚠️ Nie udało się pobrać planu lekcji\n\n")
			continue
		}

		lessons := section.Grid[dayKey]
		if !hasLessons(lessons) {
			b.WriteString("✨ Brak lekcji!\n\n")
			continue
		}

		for idx, lesson := range lessons {
			if lesson == nil {
				continue
			}
			writeLesson(&b, idx+1, lesson)
		}
	}

	b.WriteString(sectionRule + "\n")
	return b.String()
}

func hasLessons(lessons []*timetable.LessonSlot) bool {
	for _, lesson := range lessons {
		if lesson != nil {
			return true
		}
	}
	return false
}

func writeLesson(b *strings.Builder, lessonNo int, lesson *timetable.LessonSlot) {
	emoji := "📖"
	switch {
	case lesson.Cancelled:
		emoji = "❌"
	case lesson.Substitution:
		emoji = "🔄"
	}

	subject := lesson.Subject
	if subject == "" {
		subject = "Lekcja"
	}

	fmt.Fprintf(b, "   %s *Lekcja %d*: %s\n", emoji, lessonNo, subject)
	if lesson.Time != "" {
		fmt.Fprintf(b, "      ⏰ %s\n", lesson.Time)
	}
	if lesson.Teacher != "" {
		fmt.Fprintf(b, "      👨‍🏫 %s\n", lesson.Teacher)
	}
	if lesson.Room != "" {
		fmt.Fprintf(b, "      🚪 Sala: %s\n", lesson.Room)
	}

	if lesson.Cancelled {
		b.WriteString("      ⚠️ *ODWOŁANA*\n")
	} else if lesson.Substitution {
		b.WriteString("      ℹ️ Zastępstwo\n")
	}
	b.WriteString("\n")
}
