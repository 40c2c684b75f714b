package librus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindChangesNewGrade(t *testing.T) {
	previous := EmptySnapshot()
	previous.Grades = []Grade{{ID: "g1"}}

	current := EmptySnapshot()
	current.Grades = []Grade{{ID: "g1"}, {ID: "g2", Date: "2025-10-08"}}

	changes := FindChanges(previous, current)

	require.Len(t, changes.NewGrades, 1)
	assert.Equal(t, "g2", changes.NewGrades[0].ID)
	assert.True(t, changes.HasChanges)
	assert.Equal(t, 1, changes.TotalCount)
}

func TestFindChangesIdempotent(t *testing.T) {
	previous := EmptySnapshot()
	previous.Grades = []Grade{{ID: "g1"}}
	previous.Announcements = []Announcement{{ID: "a1"}}

	current := EmptySnapshot()
	current.Grades = []Grade{{ID: "g1"}, {ID: "g2"}}
	current.Messages = []Message{{ID: "m1", IsRead: false}}
	current.Announcements = []Announcement{{ID: "a1"}, {ID: "a2"}}
	current.Attendance = []AttendanceRecord{{ID: "att1"}}

	first := FindChanges(previous, current)
	second := FindChanges(previous, current)

	assert.Equal(t, first, second)
	assert.Equal(t, 4, first.TotalCount)
}

func TestFindChangesSuppressesReadMessages(t *testing.T) {
	previous := EmptySnapshot()
	current := EmptySnapshot()
	current.Messages = []Message{
		{ID: "m1", IsRead: true},
		{ID: "m2", IsRead: false},
	}

	changes := FindChanges(previous, current)

	require.Len(t, changes.NewMessages, 1)
	assert.Equal(t, "m2", changes.NewMessages[0].ID)
}

func TestFindChangesScheduleAlwaysEmpty(t *testing.T) {
	previous := EmptySnapshot()
	current := EmptySnapshot()
	current.Schedule = []ScheduleEntry{
		{Day: "Monday", LessonNo: 1, Subject: "Matematyka"},
	}

	changes := FindChanges(previous, current)

	assert.Empty(t, changes.ScheduleChanges)
	assert.False(t, changes.HasChanges)
}

func TestFindChangesNoChanges(t *testing.T) {
	snap := EmptySnapshot()
	snap.Grades = []Grade{{ID: "g1"}}
	snap.Messages = []Message{{ID: "m1", IsRead: false}}

	changes := FindChanges(snap, snap)

	assert.False(t, changes.HasChanges)
	assert.Zero(t, changes.TotalCount)
}

func TestFindChangesNilPrevious(t *testing.T) {
	current := EmptySnapshot()
	current.Grades = []Grade{{ID: "g1"}}

	changes := FindChanges(nil, current)

	assert.Equal(t, 1, changes.TotalCount)
}
