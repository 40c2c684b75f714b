package librus

import (
	"time"

	"github.com/librus-hub/librus-notify/pkg/logger"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

// GradeAgeFilter drops newly detected grades older than a configured window.
// Freshly assigned grades for work done weeks ago show up as "new" on the
// first run after a snapshot loss; the window keeps that flood out of the
// report.
type GradeAgeFilter struct {
	maxAgeDays      int
	detailedLogging bool
	log             *logger.Logger
}

// NewGradeAgeFilter creates a filter. maxAgeDays of zero disables filtering.
// When detailedLogging is set, every keep/drop decision is logged.
func NewGradeAgeFilter(maxAgeDays int, detailedLogging bool, log *logger.Logger) *GradeAgeFilter {
	return &GradeAgeFilter{
		maxAgeDays:      maxAgeDays,
		detailedLogging: detailedLogging,
		log:             log,
	}
}

// Filter returns the grades dated within the recency window, relative to now.
// The boundary is inclusive: a grade dated exactly now - maxAgeDays days is
// kept. Grades whose date field yields no YYYY-MM-DD substring are kept -
// over-notifying beats silently dropping a legitimate grade.
func (f *GradeAgeFilter) Filter(grades []Grade, now time.Time) []Grade {
	if f.maxAgeDays <= 0 {
		return grades
	}

	cutoff := timeutil.StartOfDay(now.AddDate(0, 0, -f.maxAgeDays))
	kept := make([]Grade, 0, len(grades))

	for _, g := range grades {
		gradeDate, ok := timeutil.ExtractDate(g.Date)
		if !ok {
			if f.detailedLogging {
				f.log.Warn("grade date unparseable, keeping grade",
					logger.GradeSubject(g.Subject),
					logger.String("date", g.Date))
			}
			kept = append(kept, g)
			continue
		}

		if gradeDate.Before(cutoff) {
			if f.detailedLogging {
				f.log.Info("grade outside recency window, dropping",
					logger.GradeSubject(g.Subject),
					logger.String("date", g.Date),
					logger.Int("max_age_days", f.maxAgeDays))
			}
			continue
		}

		if f.detailedLogging {
			f.log.Debug("grade within recency window, keeping",
				logger.GradeSubject(g.Subject),
				logger.String("date", g.Date))
		}
		kept = append(kept, g)
	}

	return kept
}
