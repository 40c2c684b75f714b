// Package librus contains the domain model for a monitored Librus account:
// the entity categories fetched from the portal, the per-account snapshot of
// last-seen state, and the change-detection logic that compares two snapshots.
// This is the core of the notifier - no external dependencies here.
package librus

// Grade is a single grade entry for a subject.
// The portal does not always provide a native id; Resolve fills one in.
type Grade struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Value    string `json:"value"`
	Category string `json:"category"`
	Weight   string `json:"weight"`
	Date     string `json:"date"`
	Teacher  string `json:"teacher"`
	Comment  string `json:"comment"`
}

// Message is an inbox message header plus, for unread messages, its body.
type Message struct {
	ID             string   `json:"id"`
	From           string   `json:"from"`
	Subject        string   `json:"subject"`
	Body           string   `json:"body"`
	Date           string   `json:"date"`
	IsRead         bool     `json:"isRead"`
	IsNote         bool     `json:"isNote"`
	HasAttachments bool     `json:"hasAttachments"`
	Attachments    []string `json:"attachments,omitempty"`
}

// Announcement is a school-wide announcement.
type Announcement struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
	Author  string `json:"author"`
}

// AttendanceRecord is a single absence or attendance remark.
type AttendanceRecord struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	LessonNo string `json:"lessonNo"`
	Type     string `json:"type"`
	Subject  string `json:"subject"`
}

// CalendarEvent is an entry from the school calendar (tests, quizzes,
// absences of teachers, and so on).
type CalendarEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	DateFrom    string `json:"dateFrom,omitempty"`
	DateTo      string `json:"dateTo,omitempty"`
	Category    string `json:"category"`
	AddedBy     string `json:"addedBy"`
}

// AccountSnapshot is the full recorded state of one account's entities as of
// the last successful run. One snapshot per account; saving overwrites the
// whole record.
type AccountSnapshot struct {
	Timestamp     string             `json:"timestamp,omitempty"`
	Grades        []Grade            `json:"grades"`
	Messages      []Message          `json:"messages"`
	Announcements []Announcement     `json:"announcements"`
	Schedule      []ScheduleEntry    `json:"schedule"`
	Attendance    []AttendanceRecord `json:"attendance"`
	Calendar      []CalendarEvent    `json:"calendar,omitempty"`
}

// ScheduleEntry is an opaque schedule record carried through the snapshot.
// Schedule diffs are excluded from regular change detection; the daily
// schedule report reads the live timetable instead.
type ScheduleEntry struct {
	Day      string `json:"day"`
	LessonNo int    `json:"lessonNo"`
	Subject  string `json:"subject"`
}

// EmptySnapshot returns a snapshot with every category present and empty.
// Used on first run and whenever persisted state cannot be read.
func EmptySnapshot() *AccountSnapshot {
	return &AccountSnapshot{
		Grades:        []Grade{},
		Messages:      []Message{},
		Announcements: []Announcement{},
		Schedule:      []ScheduleEntry{},
		Attendance:    []AttendanceRecord{},
	}
}

// ChangeSet holds the entities newly observed relative to a previous
// snapshot, grouped by category. Ephemeral - never persisted.
type ChangeSet struct {
	HasChanges        bool
	TotalCount        int
	NewGrades         []Grade
	NewMessages       []Message
	NewAnnouncements  []Announcement
	ScheduleChanges   []ScheduleEntry
	NewAttendance     []AttendanceRecord
	NewCalendarEvents []CalendarEvent
}

// Recount recomputes TotalCount and HasChanges after a caller has filtered
// one of the category lists.
func (c *ChangeSet) Recount() {
	c.TotalCount = len(c.NewGrades) + len(c.NewMessages) + len(c.NewAnnouncements) +
		len(c.ScheduleChanges) + len(c.NewAttendance) + len(c.NewCalendarEvents)
	c.HasChanges = c.TotalCount > 0
}

// AccountUpdate pairs a display name with the changes found for that account.
type AccountUpdate struct {
	AccountName string
	Changes     *ChangeSet
}
