package librus

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/librus-hub/librus-notify/internal/domain/librus"
	"github.com/librus-hub/librus-notify/internal/domain/timetable"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

// Mapper is the anti-corruption layer between the portal's ad-hoc payloads
// and the fixed domain shapes. Missing fields degrade to "Unknown" or empty
// values rather than errors, and entities without native ids get synthetic
// ones here, before anything reaches the change detector.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// gradeInfo holds the fields parsed out of a grade's tooltip text.
type gradeInfo struct {
	Category string
	Date     string
	Teacher  string
	Weight   string
	Comment  string
}

var (
	categoryPattern = regexp.MustCompile(`Kategoria:\s*(.+?)(?:\n|$)`)
	datePattern     = regexp.MustCompile(`Data:\s*(.+?)(?:\n|$)`)
	teacherPattern  = regexp.MustCompile(`Nauczyciel:\s*(.+?)(?:\n|$)`)
	weightPattern   = regexp.MustCompile(`Waga:\s*(.+?)(?:\n|$)`)
	commentPattern  = regexp.MustCompile(`(?s)Komentarz:\s*(.+)$`)
)

// parseGradeInfo extracts the labelled lines from a grade tooltip, e.g.
//
//	Kategoria: kartkówka
//	Data: 2025-10-08 (śr.)
//	Nauczyciel: Moździerz Tomasz
//	Waga: 5
//	Komentarz: ułamki dziesiętne
func parseGradeInfo(info string) gradeInfo {
	var parsed gradeInfo
	if info == "" {
		return parsed
	}
	if m := categoryPattern.FindStringSubmatch(info); m != nil {
		parsed.Category = strings.TrimSpace(m[1])
	}
	if m := datePattern.FindStringSubmatch(info); m != nil {
		parsed.Date = strings.TrimSpace(m[1])
	}
	if m := teacherPattern.FindStringSubmatch(info); m != nil {
		parsed.Teacher = strings.TrimSpace(m[1])
	}
	if m := weightPattern.FindStringSubmatch(info); m != nil {
		parsed.Weight = strings.TrimSpace(m[1])
	}
	if m := commentPattern.FindStringSubmatch(info); m != nil {
		parsed.Comment = strings.TrimSpace(m[1])
	}
	return parsed
}

// GradesFromDTO flattens the subject/semester nesting into domain grades.
func (m *Mapper) GradesFromDTO(subjects []gradeSubjectDTO) []librus.Grade {
	grades := []librus.Grade{}
	for _, subject := range subjects {
		name := subject.Name
		if name == "" {
			name = "Unknown"
		}
		for _, semester := range subject.Semester {
			for _, dto := range semester.Grades {
				info := parseGradeInfo(dto.Info)
				grade := librus.Grade{
					Subject:  name,
					Value:    dto.Value,
					Category: orUnknown(info.Category),
					Weight:   orUnknown(info.Weight),
					Date:     orUnknown(info.Date),
					Teacher:  info.Teacher,
					Comment:  info.Comment,
				}
				grade.ID = librus.ResolveGradeID(dto.ID.String(), grade)
				grades = append(grades, grade)
			}
		}
	}
	return grades
}

// MessageFromHeader builds a domain message from a listing row; body and
// attachments come from the full fetch, which only happens for unread mail.
func (m *Mapper) MessageFromHeader(header messageHeaderDTO, full *messageDTO) librus.Message {
	msg := librus.Message{
		ID:      header.ID.String(),
		From:    orUnknown(header.User),
		Subject: header.Title,
		Date:    header.Date,
		IsRead:  header.Read,
		IsNote:  header.Note,
	}
	if msg.Subject == "" {
		msg.Subject = "No Subject"
	}
	if full != nil {
		msg.Body = full.Content
		msg.Attachments = full.Files
		msg.HasAttachments = len(full.Files) > 0
	}
	return msg
}

// AnnouncementsFromDTO normalizes announcements, coalescing the field-name
// variants and resolving synthetic ids.
func (m *Mapper) AnnouncementsFromDTO(dtos []announcementDTO) []librus.Announcement {
	announcements := []librus.Announcement{}
	for _, dto := range dtos {
		ann := librus.Announcement{
			Title:   dto.title(),
			Content: dto.content(),
			Date:    dto.date(),
			Author:  dto.author(),
		}
		ann.ID = librus.ResolveAnnouncementID(dto.ID.String(), ann)
		announcements = append(announcements, ann)
	}
	return announcements
}

// AttendanceFromDTO normalizes absence rows.
func (m *Mapper) AttendanceFromDTO(dtos []attendanceDTO) []librus.AttendanceRecord {
	records := []librus.AttendanceRecord{}
	for _, dto := range dtos {
		records = append(records, librus.AttendanceRecord{
			ID:       dto.ID.String(),
			Date:     dto.Date,
			LessonNo: strconv.Itoa(dto.lessonNo()),
			Type:     string(dto.Type),
			Subject:  dto.subject(),
		})
	}
	return records
}

// CalendarFromDTO normalizes terminarz entries.
func (m *Mapper) CalendarFromDTO(dtos []calendarEventDTO) []librus.CalendarEvent {
	events := []librus.CalendarEvent{}
	for _, dto := range dtos {
		events = append(events, librus.CalendarEvent{
			ID:          dto.ID.String(),
			Title:       dto.title(),
			Description: dto.description(),
			Date:        dto.date(),
			DateFrom:    dto.DateFrom,
			DateTo:      dto.DateTo,
			Category:    dto.category(),
			AddedBy:     dto.addedBy(),
		})
	}
	return events
}

// GridFromDTO converts the date-keyed timetable into the weekday-keyed
// lesson grid used by the schedule report. Free periods stay nil.
func (m *Mapper) GridFromDTO(dto timetableDTO) timetable.Grid {
	grid := timetable.Grid{}
	for dateStr, lessons := range dto {
		date, ok := timeutil.ExtractDate(dateStr)
		if !ok {
			continue
		}
		day := timeutil.WeekdayName(date)
		slots := make([]*timetable.LessonSlot, len(lessons))
		for i, lesson := range lessons {
			if lesson == nil {
				continue
			}
			slot := &timetable.LessonSlot{
				Subject: lesson.Subject,
				Teacher: lesson.Teacher,
				Room:    lesson.Room,
			}
			if lesson.TimeFrom != "" && lesson.TimeTo != "" {
				slot.Time = lesson.TimeFrom + " - " + lesson.TimeTo
			}
			slots[i] = slot
		}
		grid[day] = slots
	}
	return grid
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
