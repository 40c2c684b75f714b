package librus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/librus-hub/librus-notify/internal/domain/librus"
	"github.com/librus-hub/librus-notify/internal/domain/shared"
	"github.com/librus-hub/librus-notify/internal/domain/timetable"
	"github.com/librus-hub/librus-notify/pkg/circuitbreaker"
	"github.com/librus-hub/librus-notify/pkg/logger"
	"github.com/librus-hub/librus-notify/pkg/retry"
)

// Portal endpoints, relative to the base URL.
const (
	endpointLogin         = "/loguj"
	endpointHome          = "/uczen/index"
	endpointGrades        = "/uczen/api/oceny"
	endpointInbox         = "/uczen/api/wiadomosci/%d"
	endpointMessage       = "/uczen/api/wiadomosci/%d/%s"
	endpointAnnouncements = "/uczen/api/ogloszenia"
	endpointAttendance    = "/uczen/api/nieobecnosci"
	endpointCalendar      = "/uczen/api/terminarz"
	endpointTimetable     = "/uczen/api/plan_lekcji"
	endpointSchedulePage  = "/przegladaj_plan_lekcji"
)

// inboxFolder is the standard Synergia inbox folder id.
const inboxFolder = 5

// SessionCache stores serialized session cookies between runs. Optional;
// a nil cache means every run logs in fresh.
type SessionCache interface {
	Get(ctx context.Context, accountKey string) (string, error)
	Put(ctx context.Context, accountKey, cookies string) error
	Invalidate(ctx context.Context, accountKey string)
}

// ClientConfig contains configuration for the portal client.
type ClientConfig struct {
	// BaseURL is the Synergia base URL.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// DetailPause is the polite delay between unread-message body fetches.
	DetailPause time.Duration

	// RateLimiterConfig for portal request pacing.
	RateLimiterConfig RateLimiterConfig

	// SessionCache is the optional cross-run cookie cache.
	SessionCache SessionCache

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           "https://synergia.librus.pl",
		Timeout:           30 * time.Second,
		DetailPause:       200 * time.Millisecond,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// Client talks to the Synergia portal on behalf of one account.
type Client struct {
	config   ClientConfig
	username string
	password string

	httpClient *http.Client
	jar        *cookiejar.Jar
	baseURL    *url.URL
	limiter    *RateLimiter
	breaker    *circuitbreaker.CircuitBreaker
	mapper     *Mapper
	log        *logger.Logger
}

// NewClient creates a portal client for one account.
func NewClient(config ClientConfig, username, password string) (*Client, error) {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("librus: invalid base URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("librus: cookie jar: %w", err)
	}

	log := config.Logger.With(logger.Account(username))

	return &Client{
		config:   config,
		username: username,
		password: password,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: config.Timeout,
		},
		jar:     jar,
		baseURL: base,
		limiter: NewRateLimiter(config.RateLimiterConfig),
		breaker: circuitbreaker.PortalBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("portal circuit state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		}),
		mapper: NewMapper(),
		log:    log,
	}, nil
}

// Login establishes a portal session. A cached session is tried first; a
// fresh login is attempted twice with a long fixed delay, because the portal
// throttles repeated login attempts. After exhaustion the error is
// distinguishable via errors.Is(err, shared.ErrUnauthorized).
func (c *Client) Login(ctx context.Context) error {
	if c.restoreCachedSession(ctx) {
		c.log.Info("reusing cached portal session")
		return nil
	}

	attempt := 0
	err := retry.LoginRetrier().Do(ctx, func(ctx context.Context) error {
		attempt++
		c.log.Info("portal login attempt", logger.Attempt(attempt))
		if err := c.doLogin(ctx); err != nil {
			c.log.Warn("portal login attempt failed", logger.Attempt(attempt), logger.Err(err))
			return retry.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return shared.WrapError("librus", "Login", shared.ErrUnauthorized,
			fmt.Sprintf("login failed for %s", c.username), err)
	}

	c.log.Info("portal login successful")
	c.cacheSession(ctx)
	return nil
}

func (c *Client) doLogin(ctx context.Context) error {
	form := url.Values{
		"login":  {c.username},
		"passwd": {c.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+endpointLogin, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	if !c.sessionValid(ctx) {
		return fmt.Errorf("portal rejected credentials")
	}
	return nil
}

// sessionValid probes the student home page; a session that has expired
// redirects back to the login form.
func (c *Client) sessionValid(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpointHome, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK &&
		!strings.Contains(resp.Request.URL.Path, "loguj")
}

func (c *Client) restoreCachedSession(ctx context.Context) bool {
	if c.config.SessionCache == nil {
		return false
	}
	cached, err := c.config.SessionCache.Get(ctx, c.username)
	if err != nil || cached == "" {
		return false
	}

	var cookies []*http.Cookie
	for _, pair := range strings.Split(cached, "; ") {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	c.jar.SetCookies(c.baseURL, cookies)

	if !c.sessionValid(ctx) {
		c.config.SessionCache.Invalidate(ctx, c.username)
		return false
	}
	return true
}

func (c *Client) cacheSession(ctx context.Context) {
	if c.config.SessionCache == nil {
		return
	}
	var pairs []string
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		pairs = append(pairs, cookie.Name+"="+cookie.Value)
	}
	if len(pairs) == 0 {
		return
	}
	if err := c.config.SessionCache.Put(ctx, c.username, strings.Join(pairs, "; ")); err != nil {
		c.log.Warn("failed to cache portal session", logger.Err(err))
	}
}

// FetchAll gathers every entity category for the account. Independent
// categories are fetched concurrently; each degrades to an empty result on
// failure so one broken category never aborts the run. The schedule is
// fetched last since it reuses the session sequentially for the plan page.
func (c *Client) FetchAll(ctx context.Context) (*librus.AccountSnapshot, error) {
	c.log.Info("fetching portal data")

	snapshot := librus.EmptySnapshot()
	snapshot.Timestamp = time.Now().UTC().Format(time.RFC3339)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		snapshot.Grades = c.FetchGrades(ctx)
	}()
	go func() {
		defer wg.Done()
		snapshot.Messages = c.FetchMessages(ctx)
	}()
	go func() {
		defer wg.Done()
		snapshot.Announcements = c.FetchAnnouncements(ctx)
	}()
	go func() {
		defer wg.Done()
		snapshot.Attendance = c.FetchAttendance(ctx)
	}()
	wg.Wait()

	snapshot.Calendar = c.FetchCalendar(ctx)

	grid := c.FetchSchedule(ctx)
	snapshot.Schedule = flattenGrid(grid)

	return snapshot, nil
}

// FetchGrades returns all grades, or an empty slice on any failure.
func (c *Client) FetchGrades(ctx context.Context) []librus.Grade {
	var payload struct {
		Subjects []gradeSubjectDTO `json:"subjects"`
	}
	if err := c.fetchJSON(ctx, endpointGrades, &payload); err != nil {
		c.log.Warn("failed to fetch grades", logger.Category("grades"), logger.Err(err))
		return []librus.Grade{}
	}

	grades := c.mapper.GradesFromDTO(payload.Subjects)
	c.log.Info("fetched grades", logger.Category("grades"), logger.Count(len(grades)))
	return grades
}

// FetchMessages returns inbox messages. Bodies are fetched only for unread
// messages, with a polite pause between requests; a failed body fetch falls
// back to the header alone.
func (c *Client) FetchMessages(ctx context.Context) []librus.Message {
	var headers []messageHeaderDTO
	if err := c.fetchJSON(ctx, fmt.Sprintf(endpointInbox, inboxFolder), &headers); err != nil {
		c.log.Warn("failed to fetch messages", logger.Category("messages"), logger.Err(err))
		return []librus.Message{}
	}

	messages := []librus.Message{}
	for _, header := range headers {
		var full *messageDTO
		if !header.Read {
			var body messageDTO
			path := fmt.Sprintf(endpointMessage, inboxFolder, url.PathEscape(header.ID.String()))
			if err := c.fetchJSON(ctx, path, &body); err != nil {
				c.log.Warn("failed to fetch message body",
					logger.Category("messages"),
					logger.String("message_id", header.ID.String()),
					logger.Err(err))
			} else {
				full = &body
			}

			select {
			case <-ctx.Done():
				return messages
			case <-time.After(c.config.DetailPause):
			}
		}
		messages = append(messages, c.mapper.MessageFromHeader(header, full))
	}

	unread := 0
	for _, m := range messages {
		if !m.IsRead {
			unread++
		}
	}
	c.log.Info("fetched messages", logger.Category("messages"),
		logger.Count(len(messages)), logger.Int("unread", unread))
	return messages
}

// FetchAnnouncements returns school announcements, empty on failure.
func (c *Client) FetchAnnouncements(ctx context.Context) []librus.Announcement {
	var dtos []announcementDTO
	if err := c.fetchJSON(ctx, endpointAnnouncements, &dtos); err != nil {
		c.log.Warn("failed to fetch announcements", logger.Category("announcements"), logger.Err(err))
		return []librus.Announcement{}
	}

	announcements := c.mapper.AnnouncementsFromDTO(dtos)
	for _, ann := range announcements {
		if ann.Title == "" {
			c.log.Warn("announcement missing title", logger.Category("announcements"),
				logger.String("announcement_id", ann.ID))
		}
	}
	c.log.Info("fetched announcements", logger.Category("announcements"),
		logger.Count(len(announcements)))
	return announcements
}

// FetchAttendance returns absence records, empty on failure.
func (c *Client) FetchAttendance(ctx context.Context) []librus.AttendanceRecord {
	var dtos []attendanceDTO
	if err := c.fetchJSON(ctx, endpointAttendance, &dtos); err != nil {
		c.log.Warn("failed to fetch attendance", logger.Category("attendance"), logger.Err(err))
		return []librus.AttendanceRecord{}
	}
	return c.mapper.AttendanceFromDTO(dtos)
}

// FetchCalendar returns calendar events, empty on failure.
func (c *Client) FetchCalendar(ctx context.Context) []librus.CalendarEvent {
	var dtos []calendarEventDTO
	if err := c.fetchJSON(ctx, endpointCalendar, &dtos); err != nil {
		c.log.Warn("failed to fetch calendar", logger.Category("calendar"), logger.Err(err))
		return []librus.CalendarEvent{}
	}
	return c.mapper.CalendarFromDTO(dtos)
}

// FetchSchedule returns the lesson grid enhanced with substitution and
// cancellation flags. Any failure in the enhancement path routes through
// the fallback, which clears both flags on every slot - a grid with stale
// or partial flags is never returned.
func (c *Client) FetchSchedule(ctx context.Context) timetable.Grid {
	var dto timetableDTO
	if err := c.fetchJSON(ctx, endpointTimetable, &dto); err != nil {
		c.log.Warn("failed to fetch timetable", logger.Category("schedule"), logger.Err(err))
		return timetable.Grid{}
	}
	grid := c.mapper.GridFromDTO(dto)

	html, err := c.fetchSchedulePage(ctx)
	if err != nil {
		c.log.Warn("failed to fetch plan page, skipping substitution detection",
			logger.Category("schedule"), logger.Err(err))
		return timetable.Fallback(grid)
	}

	result := timetable.Detect(html)
	if result.Empty() {
		return timetable.Fallback(grid)
	}

	c.log.Info("detected schedule markers", logger.Category("schedule"),
		logger.Int("substitutions", len(result.Substitutions)),
		logger.Int("cancellations", len(result.Cancellations)))
	return timetable.Merge(grid, result)
}

func (c *Client) fetchSchedulePage(ctx context.Context) (string, error) {
	if err := c.limiter.Allow(ctx); err != nil {
		return "", err
	}

	var html string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.config.BaseURL+endpointSchedulePage, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "text/html,application/xhtml+xml")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("plan page returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		html = string(body)
		return nil
	})
	return html, err
}

// fetchJSON performs a rate-limited, circuit-protected GET and decodes the
// JSON response into dst.
func (c *Client) fetchJSON(ctx context.Context, path string, dst interface{}) error {
	if err := c.limiter.Allow(ctx); err != nil {
		return err
	}

	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return shared.WrapError("librus", "Parse", shared.ErrInvalidFormat,
				fmt.Sprintf("unexpected payload from %s", path), err)
		}
		return nil
	})
}

// flattenGrid converts the lesson grid into the snapshot's schedule list.
func flattenGrid(grid timetable.Grid) []librus.ScheduleEntry {
	entries := []librus.ScheduleEntry{}
	for day, lessons := range grid {
		for idx, lesson := range lessons {
			if lesson == nil {
				continue
			}
			entries = append(entries, librus.ScheduleEntry{
				Day:      day,
				LessonNo: idx + 1,
				Subject:  lesson.Subject,
			})
		}
	}
	return entries
}
