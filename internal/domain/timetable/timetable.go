// Package timetable parses the raw lesson-plan page into per-lesson
// substitution and cancellation flags and merges them into a lesson grid.
// Detection is a pure function over the page markup, so it is testable
// against fixed fixtures without a session or network.
package timetable

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

// LessonSlot is one cell of the weekday x position grid. A nil slot means
// no lesson in that position.
type LessonSlot struct {
	Subject      string `json:"subject"`
	Teacher      string `json:"teacher"`
	Room         string `json:"room"`
	Time         string `json:"time"`
	Substitution bool   `json:"substitution"`
	Cancelled    bool   `json:"cancelled"`
}

// Grid maps an English weekday name to its ordered lesson slots.
// Position in the slice is zero-based; entries may be nil.
type Grid map[string][]*LessonSlot

// DetectionResult holds the composite "weekday-lessonNo" keys parsed from
// the plan page, split into the two disjoint classifications.
type DetectionResult struct {
	Substitutions map[string]struct{}
	Cancellations map[string]struct{}
}

// Empty reports whether detection produced no matches at all.
func (r DetectionResult) Empty() bool {
	return len(r.Substitutions) == 0 && len(r.Cancellations) == 0
}

// Markers the portal embeds in a plan cell. The info class appears on
// substitute-teacher cells that do not spell the word out.
const (
	substitutionMarker      = "zastępstwo"
	substitutionClassMarker = "plan-lekcji-info"
	cancellationMarker      = "odwołane"
)

// cellPattern matches one plan cell. The portal puts raw markup inside the
// title attribute (`title="<b>Nr lekcji:</b> 2"`), so attribute runs are
// matched as quoted-string-or-other instead of a naive [^>]* that would stop
// at the ">" inside the title.
var (
	cellPattern     = regexp.MustCompile(`(?s)<td(?:[^>"]|"[^"]*")*id="timetableEntryBox"(?:[^>"]|"[^"]*")*data-date="([^"]+)"(?:[^>"]|"[^"]*")*>.*?</td>`)
	lessonNoPattern = regexp.MustCompile(`<b>Nr lekcji:</b>\s*(\d+)`)
)

// Detect scans plan-page markup for substitution and cancellation cells.
// Each matching cell is keyed by the English weekday of its data-date
// attribute plus its "Nr lekcji" label, which sits in the opening tag's
// title attribute. A cell carrying both markers counts as a cancellation
// only.
func Detect(html string) DetectionResult {
	result := DetectionResult{
		Substitutions: make(map[string]struct{}),
		Cancellations: make(map[string]struct{}),
	}

	for _, match := range cellPattern.FindAllStringSubmatch(html, -1) {
		// Markers live in the cell body, the lesson label in the title
		// attribute; both are scanned over the whole cell.
		cell, dateStr := match[0], match[1]

		cancelled := strings.Contains(cell, cancellationMarker)
		substituted := strings.Contains(cell, substitutionMarker) ||
			strings.Contains(cell, substitutionClassMarker)
		if !cancelled && !substituted {
			continue
		}

		date, ok := timeutil.ExtractDate(dateStr)
		if !ok {
			continue
		}

		lessonMatch := lessonNoPattern.FindStringSubmatch(cell)
		if lessonMatch == nil {
			continue
		}
		lessonNo, err := strconv.Atoi(lessonMatch[1])
		if err != nil {
			continue
		}

		key := timeutil.WeekdayName(date) + "-" + strconv.Itoa(lessonNo)
		if cancelled {
			result.Cancellations[key] = struct{}{}
		} else {
			result.Substitutions[key] = struct{}{}
		}
	}

	return result
}

// Merge sets the Substitution and Cancelled flags of every non-nil slot by
// membership test against the detection keys. Grid position is zero-based
// while the portal numbers lessons from 1, so position idx holds lesson
// number idx+1.
func Merge(grid Grid, result DetectionResult) Grid {
	for day, lessons := range grid {
		for idx, lesson := range lessons {
			if lesson == nil {
				continue
			}
			key := day + "-" + strconv.Itoa(idx+1)
			_, lesson.Substitution = result.Substitutions[key]
			_, lesson.Cancelled = result.Cancellations[key]
		}
	}
	return grid
}

// Fallback clears both flags on every non-nil slot. This is the only state
// safe to report when detection is impossible (no session, fetch failure,
// zero matches parsed) - flags are never left partially applied.
func Fallback(grid Grid) Grid {
	for _, lessons := range grid {
		for _, lesson := range lessons {
			if lesson == nil {
				continue
			}
			lesson.Substitution = false
			lesson.Cancelled = false
		}
	}
	return grid
}
