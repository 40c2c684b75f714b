// Package librus implements the Synergia portal client: form login with a
// cookie jar, JSON category fetches, and the raw lesson-plan page used for
// substitution detection.
package librus

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The portal's JSON payloads are not stable: the same category arrives with
// different field names depending on portal version and school configuration.
// DTOs in this file accept every observed variant; the mapper collapses them
// into the fixed domain shapes so nothing downstream branches on "which shape
// did this come from".

// flexID unmarshals an id that arrives either as a JSON number or a string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = flexID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

// flexInt unmarshals an integer that arrives as a number or a string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// gradeSubjectDTO is one subject block from the grades payload.
type gradeSubjectDTO struct {
	Name     string             `json:"name"`
	Semester []gradeSemesterDTO `json:"semester"`
}

type gradeSemesterDTO struct {
	Grades []gradeDTO `json:"grades"`
}

// gradeDTO is a single grade cell. Info is the tooltip text carrying
// "Kategoria: ...", "Data: ...", "Nauczyciel: ...", "Waga: ..." and
// "Komentarz: ..." lines.
type gradeDTO struct {
	ID    flexID `json:"id"`
	Value string `json:"value"`
	Info  string `json:"info"`
}

// messageHeaderDTO is an inbox listing row.
type messageHeaderDTO struct {
	ID    flexID `json:"id"`
	User  string `json:"user"`
	Title string `json:"title"`
	Date  string `json:"date"`
	Read  bool   `json:"read"`
	Note  bool   `json:"note"`
}

// messageDTO is a fully fetched message.
type messageDTO struct {
	Content string   `json:"content"`
	Files   []string `json:"files"`
}

// announcementDTO carries both naming variants seen in the wild.
type announcementDTO struct {
	ID        flexID `json:"id"`
	Subject   string `json:"subject"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Body      string `json:"body"`
	Date      string `json:"date"`
	StartDate string `json:"startDate"`
	Author    string `json:"author"`
	User      string `json:"user"`
}

func (a announcementDTO) title() string   { return firstNonEmpty(a.Subject, a.Title) }
func (a announcementDTO) content() string { return firstNonEmpty(a.Content, a.Body) }
func (a announcementDTO) date() string    { return firstNonEmpty(a.Date, a.StartDate) }
func (a announcementDTO) author() string  { return firstNonEmpty(a.Author, a.User) }

// attendanceTypeDTO arrives as a bare string or as an object {"name": ...}.
type attendanceTypeDTO string

func (t *attendanceTypeDTO) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) > 0 && s[0] == '{' {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*t = attendanceTypeDTO(obj.Name)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*t = attendanceTypeDTO(str)
	return nil
}

// attendanceDTO is one absence row.
type attendanceDTO struct {
	ID       flexID            `json:"id"`
	Date     string            `json:"date"`
	LessonNo flexInt           `json:"lessonNo"`
	Number   flexInt           `json:"number"`
	Type     attendanceTypeDTO `json:"type"`
	Subject  string            `json:"subject"`
	Lesson   struct {
		Subject string `json:"subject"`
	} `json:"lesson"`
}

func (a attendanceDTO) lessonNo() int {
	if a.LessonNo != 0 {
		return int(a.LessonNo)
	}
	return int(a.Number)
}

func (a attendanceDTO) subject() string { return firstNonEmpty(a.Subject, a.Lesson.Subject) }

// calendarEventDTO is one terminarz entry.
type calendarEventDTO struct {
	ID          flexID `json:"id"`
	Title       string `json:"title"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Date        string `json:"date"`
	StartDate   string `json:"startDate"`
	DateFrom    string `json:"dateFrom"`
	DateTo      string `json:"dateTo"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	AddedBy     string `json:"addedBy"`
	Author      string `json:"author"`
}

func (e calendarEventDTO) title() string       { return firstNonEmpty(e.Title, e.Name) }
func (e calendarEventDTO) description() string { return firstNonEmpty(e.Description, e.Content) }
func (e calendarEventDTO) date() string        { return firstNonEmpty(e.Date, e.StartDate) }
func (e calendarEventDTO) category() string    { return firstNonEmpty(e.Category, e.Type) }
func (e calendarEventDTO) addedBy() string     { return firstNonEmpty(e.AddedBy, e.Author) }

// timetableDTO maps an ISO date to the day's lesson cells, ordered by lesson
// number. A null cell is a free period.
type timetableDTO map[string][]*timetableLessonDTO

type timetableLessonDTO struct {
	Subject  string `json:"subject"`
	Teacher  string `json:"teacher"`
	Room     string `json:"room"`
	TimeFrom string `json:"timeFrom"`
	TimeTo   string `json:"timeTo"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
