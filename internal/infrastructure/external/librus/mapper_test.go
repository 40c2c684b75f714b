package librus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librus-hub/librus-notify/internal/domain/librus"
)

func TestParseGradeInfo(t *testing.T) {
	info := "Kategoria: kartkówka\nData: 2025-10-08 (śr.)\nNauczyciel: Moździerz Tomasz\nWaga: 5\nKomentarz: ułamki dziesiętne"

	parsed := parseGradeInfo(info)

	assert.Equal(t, "kartkówka", parsed.Category)
	assert.Equal(t, "2025-10-08 (śr.)", parsed.Date)
	assert.Equal(t, "Moździerz Tomasz", parsed.Teacher)
	assert.Equal(t, "5", parsed.Weight)
	assert.Equal(t, "ułamki dziesiętne", parsed.Comment)
}

func TestParseGradeInfoMultilineComment(t *testing.T) {
	info := "Kategoria: sprawdzian\nKomentarz: rozdział 3\nplus zadania domowe"

	parsed := parseGradeInfo(info)

	assert.Equal(t, "sprawdzian", parsed.Category)
	assert.Equal(t, "rozdział 3\nplus zadania domowe", parsed.Comment)
}

func TestParseGradeInfoEmpty(t *testing.T) {
	parsed := parseGradeInfo("")
	assert.Equal(t, gradeInfo{}, parsed)
}

func TestGradesFromDTOFlattensAndDefaults(t *testing.T) {
	mapper := NewMapper()
	subjects := []gradeSubjectDTO{
		{
			Name: "Matematyka",
			Semester: []gradeSemesterDTO{
				{Grades: []gradeDTO{
					{ID: "101", Value: "5", Info: "Kategoria: kartkówka\nData: 2025-10-08\nWaga: 5"},
					{Value: "4+", Info: ""},
				}},
				{Grades: []gradeDTO{
					{ID: "102", Value: "3", Info: "Data: 2025-02-01"},
				}},
			},
		},
		{
			// Subject without a name.
			Semester: []gradeSemesterDTO{
				{Grades: []gradeDTO{{ID: "103", Value: "2"}}},
			},
		},
	}

	grades := mapper.GradesFromDTO(subjects)
	require.Len(t, grades, 4)

	assert.Equal(t, "101", grades[0].ID)
	assert.Equal(t, "Matematyka", grades[0].Subject)
	assert.Equal(t, "kartkówka", grades[0].Category)
	assert.Equal(t, "5", grades[0].Weight)

	// Missing native id gets a synthetic one; missing fields become Unknown.
	assert.Contains(t, grades[1].ID, "custom_")
	assert.Equal(t, "Unknown", grades[1].Category)
	assert.Equal(t, "Unknown", grades[1].Date)
	assert.Equal(t, "Unknown", grades[1].Weight)

	assert.Equal(t, "Unknown", grades[3].Subject)
}

func TestGradesFromDTOSyntheticIDStable(t *testing.T) {
	mapper := NewMapper()
	subjects := []gradeSubjectDTO{{
		Name: "Fizyka",
		Semester: []gradeSemesterDTO{
			{Grades: []gradeDTO{{Value: "5", Info: "Data: 2025-03-01\nNauczyciel: Nowak"}}},
		},
	}}

	first := mapper.GradesFromDTO(subjects)
	second := mapper.GradesFromDTO(subjects)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestMessageFromHeader(t *testing.T) {
	mapper := NewMapper()
	header := messageHeaderDTO{ID: "55", User: "Kowalska Anna", Title: "Wycieczka", Date: "2025-10-01", Read: false, Note: true}
	full := &messageDTO{Content: "Szczegóły wycieczki", Files: []string{"plan.pdf"}}

	msg := mapper.MessageFromHeader(header, full)

	assert.Equal(t, "55", msg.ID)
	assert.Equal(t, "Kowalska Anna", msg.From)
	assert.Equal(t, "Szczegóły wycieczki", msg.Body)
	assert.True(t, msg.IsNote)
	assert.True(t, msg.HasAttachments)
}

func TestMessageFromHeaderDefaults(t *testing.T) {
	mapper := NewMapper()
	msg := mapper.MessageFromHeader(messageHeaderDTO{ID: "7", Read: true}, nil)

	assert.Equal(t, "Unknown", msg.From)
	assert.Equal(t, "No Subject", msg.Subject)
	assert.Empty(t, msg.Body)
	assert.False(t, msg.HasAttachments)
}

func TestAnnouncementsFromDTOCoalescesVariants(t *testing.T) {
	mapper := NewMapper()
	payload := `[
		{"id": 1, "subject": "Dzień otwarty", "content": "Zapraszamy", "date": "2025-10-01", "author": "Dyrekcja"},
		{"title": "Zbiórka", "body": "Makulatura", "startDate": "2025-10-02", "user": "Samorząd"}
	]`
	var dtos []announcementDTO
	require.NoError(t, json.Unmarshal([]byte(payload), &dtos))

	announcements := mapper.AnnouncementsFromDTO(dtos)
	require.Len(t, announcements, 2)

	assert.Equal(t, "1", announcements[0].ID)
	assert.Equal(t, "Dzień otwarty", announcements[0].Title)

	assert.Contains(t, announcements[1].ID, "ann_")
	assert.Equal(t, "Zbiórka", announcements[1].Title)
	assert.Equal(t, "Makulatura", announcements[1].Content)
	assert.Equal(t, "2025-10-02", announcements[1].Date)
	assert.Equal(t, "Samorząd", announcements[1].Author)
}

func TestAttendanceFromDTOVariants(t *testing.T) {
	mapper := NewMapper()
	payload := `[
		{"id": "9", "date": "2025-10-03", "lessonNo": 4, "type": "nieobecność", "subject": "Chemia"},
		{"id": 10, "date": "2025-10-04", "number": "2", "type": {"name": "spóźnienie"}, "lesson": {"subject": "Polski"}}
	]`
	var dtos []attendanceDTO
	require.NoError(t, json.Unmarshal([]byte(payload), &dtos))

	records := mapper.AttendanceFromDTO(dtos)
	require.Len(t, records, 2)

	assert.Equal(t, librus.AttendanceRecord{
		ID: "9", Date: "2025-10-03", LessonNo: "4", Type: "nieobecność", Subject: "Chemia",
	}, records[0])
	assert.Equal(t, librus.AttendanceRecord{
		ID: "10", Date: "2025-10-04", LessonNo: "2", Type: "spóźnienie", Subject: "Polski",
	}, records[1])
}

func TestCalendarFromDTOVariants(t *testing.T) {
	mapper := NewMapper()
	payload := `[
		{"id": 3, "name": "Sprawdzian matematyka", "content": "Działy 1-3", "startDate": "2025-10-10", "type": "Sprawdzian", "author": "Nowak"}
	]`
	var dtos []calendarEventDTO
	require.NoError(t, json.Unmarshal([]byte(payload), &dtos))

	events := mapper.CalendarFromDTO(dtos)
	require.Len(t, events, 1)
	assert.Equal(t, "Sprawdzian matematyka", events[0].Title)
	assert.Equal(t, "Działy 1-3", events[0].Description)
	assert.Equal(t, "2025-10-10", events[0].Date)
	assert.Equal(t, "Sprawdzian", events[0].Category)
	assert.Equal(t, "Nowak", events[0].AddedBy)
}

func TestGridFromDTO(t *testing.T) {
	mapper := NewMapper()
	// 2025-10-15 is a Wednesday.
	dto := timetableDTO{
		"2025-10-15": {
			{Subject: "Matematyka", Teacher: "Nowak", Room: "12", TimeFrom: "08:00", TimeTo: "08:45"},
			nil,
			{Subject: "Fizyka"},
		},
		"not-a-date": {{Subject: "Ignored"}},
	}

	grid := mapper.GridFromDTO(dto)

	require.Contains(t, grid, "Wednesday")
	require.Len(t, grid["Wednesday"], 3)
	assert.Equal(t, "Matematyka", grid["Wednesday"][0].Subject)
	assert.Equal(t, "08:00 - 08:45", grid["Wednesday"][0].Time)
	assert.Nil(t, grid["Wednesday"][1])
	assert.Equal(t, "Fizyka", grid["Wednesday"][2].Subject)
	assert.Empty(t, grid["Wednesday"][2].Time)
	assert.NotContains(t, grid, "not-a-date")
}

func TestFlexIDNumberAndString(t *testing.T) {
	var dto gradeDTO
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42, "value": "5"}`), &dto))
	assert.Equal(t, "42", dto.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id": "abc", "value": "5"}`), &dto))
	assert.Equal(t, "abc", dto.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id": null, "value": "5"}`), &dto))
	assert.Equal(t, "", dto.ID.String())
}
