package librus

// FindChanges computes the entities present in current but absent from
// previous, per category. Pure: identical inputs always produce an identical
// ChangeSet, so re-running a diff is safe.
//
// Category rules:
//   - grades, announcements, attendance, calendar: new = id not seen before;
//   - messages: new = id not seen before AND still unread - a read message
//     was already seen through the portal, surfacing it would be noise;
//   - schedule: always empty here. Schedule changes are reported by the
//     separate daily schedule run, not by the per-run diff;
//   - calendar: not diffed. Calendar events feed the upcoming-events digest,
//     which reads the live calendar directly.
func FindChanges(previous, current *AccountSnapshot) *ChangeSet {
	if previous == nil {
		previous = EmptySnapshot()
	}
	if current == nil {
		current = EmptySnapshot()
	}

	changes := &ChangeSet{
		NewGrades:         []Grade{},
		NewMessages:       []Message{},
		NewAnnouncements:  []Announcement{},
		ScheduleChanges:   []ScheduleEntry{},
		NewAttendance:     []AttendanceRecord{},
		NewCalendarEvents: []CalendarEvent{},
	}

	prevGrades := idSet(len(previous.Grades))
	for _, g := range previous.Grades {
		prevGrades[g.ID] = struct{}{}
	}
	for _, g := range current.Grades {
		if _, seen := prevGrades[g.ID]; !seen {
			changes.NewGrades = append(changes.NewGrades, g)
		}
	}

	prevMessages := idSet(len(previous.Messages))
	for _, m := range previous.Messages {
		prevMessages[m.ID] = struct{}{}
	}
	for _, m := range current.Messages {
		if _, seen := prevMessages[m.ID]; !seen && !m.IsRead {
			changes.NewMessages = append(changes.NewMessages, m)
		}
	}

	prevAnnouncements := idSet(len(previous.Announcements))
	for _, a := range previous.Announcements {
		prevAnnouncements[a.ID] = struct{}{}
	}
	for _, a := range current.Announcements {
		if _, seen := prevAnnouncements[a.ID]; !seen {
			changes.NewAnnouncements = append(changes.NewAnnouncements, a)
		}
	}

	prevAttendance := idSet(len(previous.Attendance))
	for _, a := range previous.Attendance {
		prevAttendance[a.ID] = struct{}{}
	}
	for _, a := range current.Attendance {
		if _, seen := prevAttendance[a.ID]; !seen {
			changes.NewAttendance = append(changes.NewAttendance, a)
		}
	}

	changes.TotalCount = len(changes.NewGrades) +
		len(changes.NewMessages) +
		len(changes.NewAnnouncements) +
		len(changes.ScheduleChanges) +
		len(changes.NewAttendance) +
		len(changes.NewCalendarEvents)
	changes.HasChanges = changes.TotalCount > 0

	return changes
}

func idSet(capacity int) map[string]struct{} {
	return make(map[string]struct{}, capacity)
}
