// Package application wires the domain together into runnable operations:
// the periodic change check and the daily schedule report.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/librus-hub/librus-notify/internal/domain/librus"
	"github.com/librus-hub/librus-notify/internal/domain/shared"
	"github.com/librus-hub/librus-notify/internal/domain/timetable"
	"github.com/librus-hub/librus-notify/internal/interface/telegram/presenter"
	"github.com/librus-hub/librus-notify/pkg/logger"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

// Account identifies one monitored Librus account.
type Account struct {
	// Name is the display name used in reports.
	Name string

	// Username is the Synergia login, also the snapshot key.
	Username string

	// Password is the Synergia password.
	Password string
}

// PortalClient is the per-account portal session the monitor drives.
type PortalClient interface {
	Login(ctx context.Context) error
	FetchAll(ctx context.Context) (*librus.AccountSnapshot, error)
	FetchSchedule(ctx context.Context) timetable.Grid
	FetchCalendar(ctx context.Context) []librus.CalendarEvent
}

// ClientFactory builds a portal client for one account's credentials.
type ClientFactory func(username, password string) (PortalClient, error)

// Reporter delivers rendered reports to the chat.
type Reporter interface {
	Send(ctx context.Context, text string) error
	SendAlert(ctx context.Context, text string)
}

// MonitorConfig contains monitor tuning.
type MonitorConfig struct {
	// Accounts to check, in order.
	Accounts []Account

	// UpcomingDaysAhead is the window of the quiz/test digest.
	UpcomingDaysAhead int

	// DisableUpcomingDigest drops the quiz/test digest from the daily
	// schedule report.
	DisableUpcomingDigest bool
}

// Monitor runs the check-and-notify cycle across all configured accounts.
type Monitor struct {
	config    MonitorConfig
	newClient ClientFactory
	snapshots librus.SnapshotRepository
	filter    *librus.GradeAgeFilter
	reporter  Reporter
	log       *logger.Logger
}

// NewMonitor creates a monitor.
func NewMonitor(
	config MonitorConfig,
	newClient ClientFactory,
	snapshots librus.SnapshotRepository,
	filter *librus.GradeAgeFilter,
	reporter Reporter,
	log *logger.Logger,
) *Monitor {
	if log == nil {
		log = logger.Default()
	}
	if config.UpcomingDaysAhead <= 0 {
		config.UpcomingDaysAhead = 2
	}
	return &Monitor{
		config:    config,
		newClient: newClient,
		snapshots: snapshots,
		filter:    filter,
		reporter:  reporter,
		log:       log,
	}
}

// CheckForUpdates runs one change-detection cycle. Accounts are processed
// sequentially so the portal never sees parallel sessions from one IP. The
// returned flag reports blocking errors: the caller exits nonzero on it so a
// supervisor can tell broken runs from quiet ones.
func (m *Monitor) CheckForUpdates(ctx context.Context) (blocking bool, err error) {
	runLog := m.log.WithRunID(uuid.New().String())
	runLog.Info("starting librus check", logger.Count(len(m.config.Accounts)))

	var allUpdates []librus.AccountUpdate
	var errorLines []string
	hasBlockingErrors := false

	for _, account := range m.config.Accounts {
		accLog := runLog.With(logger.Account(account.Name))
		accLog.Info("checking account")

		update, accErr := m.checkAccount(ctx, account, accLog)
		if accErr != nil {
			if errors.Is(accErr, shared.ErrUnauthorized) {
				errorLines = append(errorLines,
					fmt.Sprintf("Błąd logowania dla %s: %v", account.Name, accErr))
				hasBlockingErrors = true
			} else {
				errorLines = append(errorLines,
					fmt.Sprintf("Błąd dla %s: %v", account.Name, accErr))
				if shared.IsExternalService(accErr) {
					hasBlockingErrors = true
				}
			}
			accLog.Error("account check failed", logger.Err(accErr))
			continue
		}

		if update != nil {
			accLog.Info("found new items", logger.Count(update.Changes.TotalCount))
			allUpdates = append(allUpdates, *update)
		} else {
			accLog.Info("no new updates")
		}
	}

	if len(allUpdates) > 0 {
		runLog.Info("sending change report", logger.Count(len(allUpdates)))
		report := presenter.Report(allUpdates, timeutil.Now())
		if sendErr := m.reporter.Send(ctx, report); sendErr != nil {
			runLog.Error("failed to send report", logger.Err(sendErr))
			errorLines = append(errorLines,
				fmt.Sprintf("Nie udało się wysłać powiadomienia: %v", sendErr))
			hasBlockingErrors = true
		}
	} else {
		runLog.Info("no updates found, staying silent")
	}

	if hasBlockingErrors {
		runLog.Error("blocking errors occurred, sending alert")
		m.reporter.SendAlert(ctx, strings.Join(errorLines, "\n\n"))
	}

	runLog.Info("check completed")
	return hasBlockingErrors, nil
}

// checkAccount processes one account. A nil update with nil error means the
// account had no changes.
func (m *Monitor) checkAccount(ctx context.Context, account Account, log *logger.Logger) (*librus.AccountUpdate, error) {
	client, err := m.newClient(account.Username, account.Password)
	if err != nil {
		return nil, err
	}

	if err := client.Login(ctx); err != nil {
		return nil, err
	}

	current, err := client.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("data fetched")

	previous, err := m.snapshots.Load(ctx, account.Username)
	if err != nil {
		return nil, err
	}

	changes := librus.FindChanges(previous, current)
	if !changes.HasChanges {
		return nil, nil
	}

	if m.filter != nil {
		changes.NewGrades = m.filter.Filter(changes.NewGrades, timeutil.Now())
		changes.Recount()
	}

	// The snapshot is saved even when the age filter emptied the report,
	// otherwise stale grades would be re-detected every run. A failed save
	// costs at worst a duplicate report next run, so it never blocks one.
	if err := m.snapshots.Save(ctx, account.Username, current); err != nil {
		log.Error("failed to save snapshot", logger.Err(err))
	}

	if !changes.HasChanges {
		return nil, nil
	}
	return &librus.AccountUpdate{AccountName: account.Name, Changes: changes}, nil
}

// SendTomorrowSchedule logs in per account, fetches the lesson grid and
// sends the tomorrow plan plus the upcoming quiz/test digest. Per-account
// failures become report lines; a failed send is logged but never blocking.
func (m *Monitor) SendTomorrowSchedule(ctx context.Context) {
	runLog := m.log.WithRunID(uuid.New().String())
	runLog.Info("sending tomorrow schedule")

	var sections []presenter.ScheduleSection
	var calendars []presenter.AccountCalendar

	for _, account := range m.config.Accounts {
		accLog := runLog.With(logger.Account(account.Name))

		grid, calendar, err := m.fetchSchedule(ctx, account)
		if err != nil {
			accLog.Error("failed to fetch schedule", logger.Err(err))
			sections = append(sections, presenter.ScheduleSection{
				AccountName: account.Name,
				Err:         err,
			})
			continue
		}

		sections = append(sections, presenter.ScheduleSection{
			AccountName: account.Name,
			Grid:        grid,
		})
		calendars = append(calendars, presenter.AccountCalendar{
			AccountName: account.Name,
			Events:      calendar,
		})
	}

	if len(sections) == 0 {
		return
	}

	now := timeutil.Now()
	report := presenter.TomorrowSchedule(sections, now)
	if !m.config.DisableUpcomingDigest {
		report += "\n" + presenter.UpcomingEvents(calendars, m.config.UpcomingDaysAhead, now)
	}

	if err := m.reporter.Send(ctx, report); err != nil {
		runLog.Error("failed to send schedule report", logger.Err(err))
		return
	}
	runLog.Info("tomorrow schedule sent")
}

func (m *Monitor) fetchSchedule(ctx context.Context, account Account) (timetable.Grid, []librus.CalendarEvent, error) {
	client, err := m.newClient(account.Username, account.Password)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Login(ctx); err != nil {
		return nil, nil, err
	}
	return client.FetchSchedule(ctx), client.FetchCalendar(ctx), nil
}
