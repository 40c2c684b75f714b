// Package main is the entry point of the Librus notifier.
//
// The notifier watches Synergia accounts for new grades, messages,
// announcements, attendance entries and timetable changes, and reports them
// to a Telegram chat. It runs either as a long-lived process with an internal
// scheduler, or as a one-shot check driven by an external cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/librus-hub/librus-notify/config"
	"github.com/librus-hub/librus-notify/internal/application"
	"github.com/librus-hub/librus-notify/internal/domain/librus"
	librusclient "github.com/librus-hub/librus-notify/internal/infrastructure/external/librus"
	"github.com/librus-hub/librus-notify/internal/infrastructure/external/telegram"
	"github.com/librus-hub/librus-notify/internal/infrastructure/persistence/file"
	"github.com/librus-hub/librus-notify/internal/infrastructure/persistence/postgres"
	"github.com/librus-hub/librus-notify/internal/infrastructure/persistence/redis"
	"github.com/librus-hub/librus-notify/internal/infrastructure/scheduler"
	"github.com/librus-hub/librus-notify/internal/infrastructure/scheduler/jobs"
	"github.com/librus-hub/librus-notify/internal/infrastructure/service"
	"github.com/librus-hub/librus-notify/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single check and exit")
	scheduleOnly := flag.Bool("schedule", false, "send tomorrow's lesson plan once and exit")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, *once, *scheduleOnly); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, once, scheduleOnly bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Logging.Level),
	})
	log.Info("starting librus notifier",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("timezone", cfg.App.Timezone),
		logger.Count(len(cfg.Accounts)))

	// Snapshot backend: Postgres when DATABASE_URL is set, files otherwise.
	var snapshots librus.SnapshotRepository
	if cfg.Storage.DatabaseURL != "" {
		log.Info("connecting to database")
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()

		repo, err := postgres.NewSnapshotRepository(ctx, conn, log)
		if err != nil {
			return fmt.Errorf("failed to prepare snapshot repository: %w", err)
		}
		snapshots = repo
		log.Info("using postgres snapshot backend")
	} else {
		store, err := file.NewSnapshotStore(cfg.Storage.StateDir, log)
		if err != nil {
			return fmt.Errorf("failed to open state directory: %w", err)
		}
		snapshots = store
		log.Info("using file snapshot backend", logger.String("dir", cfg.Storage.StateDir))
	}

	// Optional Redis session cache. Losing it only costs fresh logins, so a
	// connection failure degrades instead of aborting.
	var sessionCache librusclient.SessionCache
	if cfg.Redis.URL != "" && !cfg.Redis.Disabled {
		cache, err := redis.NewSessionCache(ctx, cfg.Redis.URL, log)
		if err != nil {
			log.Warn("redis unavailable, sessions will not be cached", logger.Err(err))
		} else {
			defer cache.Close()
			sessionCache = cache
			log.Info("redis session cache enabled")
		}
	}

	tgConfig := telegram.DefaultClientConfig(cfg.Telegram.Token)
	tgConfig.Timeout = cfg.Telegram.Timeout
	tgConfig.Logger = log
	tgClient := telegram.NewClient(tgConfig)

	bot, err := tgClient.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram token check failed: %w", err)
	}
	log.Info("telegram bot authorized", logger.String("bot", bot.Username))

	delivery := service.NewDelivery(tgClient, service.DeliveryConfig{
		ChatID:           cfg.Telegram.ChatID,
		MaxChunkLength:   cfg.Delivery.MaxChunkLength,
		MaxRetries:       cfg.Delivery.MaxRetries,
		RetryBase:        cfg.Delivery.RetryBaseDelay,
		ChunkPause:       cfg.Delivery.ChunkPause,
		SilentQuietHours: cfg.Features.IsEnabled(config.FeatureQuietHoursSilent),
		DisableAlerts:    !cfg.Features.IsEnabled(config.FeatureSystemAlerts),
	}, log)

	var filter *librus.GradeAgeFilter
	if cfg.Librus.MaxGradeAgeDays > 0 {
		filter = librus.NewGradeAgeFilter(cfg.Librus.MaxGradeAgeDays, cfg.Logging.DetailedLogging, log)
		log.Info("grade age filter enabled", logger.Int("max_age_days", cfg.Librus.MaxGradeAgeDays))
	}

	factory := func(username, password string) (application.PortalClient, error) {
		clientCfg := librusclient.DefaultClientConfig()
		clientCfg.BaseURL = cfg.Librus.BaseURL
		clientCfg.Timeout = cfg.Librus.RequestTimeout
		clientCfg.DetailPause = cfg.Librus.DetailPause
		clientCfg.RateLimiterConfig = librusclient.RateLimiterConfig{
			RequestsPerSecond: cfg.Librus.RequestsPerSecond,
			BurstSize:         cfg.Librus.BurstSize,
			MinInterval:       cfg.Librus.MinInterval,
		}
		clientCfg.Logger = log
		if sessionCache != nil {
			clientCfg.SessionCache = sessionCache
		}
		return librusclient.NewClient(clientCfg, username, password)
	}

	accounts := make([]application.Account, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		accounts = append(accounts, application.Account{
			Name:     a.Name,
			Username: a.Username,
			Password: a.Password,
		})
	}

	monitor := application.NewMonitor(application.MonitorConfig{
		Accounts:              accounts,
		UpcomingDaysAhead:     cfg.Scheduler.UpcomingDaysAhead,
		DisableUpcomingDigest: !cfg.Features.IsEnabled(config.FeatureUpcomingDigest),
	}, factory, snapshots, filter, delivery, log)

	switch {
	case scheduleOnly:
		monitor.SendTomorrowSchedule(ctx)
		return nil
	case once:
		return runOnce(ctx, monitor)
	default:
		return runScheduler(ctx, cfg, monitor, log)
	}
}

// runOnce performs a single check. Blocking errors exit nonzero so an
// external cron or supervisor can tell broken runs from quiet ones.
func runOnce(ctx context.Context, monitor *application.Monitor) error {
	blocking, err := monitor.CheckForUpdates(ctx)
	if err != nil {
		return err
	}
	if blocking {
		return fmt.Errorf("check finished with blocking errors")
	}
	return nil
}

// runScheduler runs the long-lived mode: periodic checks plus the daily
// afternoon schedule report, until SIGINT or SIGTERM.
func runScheduler(ctx context.Context, cfg *config.Config, monitor *application.Monitor, log *logger.Logger) error {
	sched := scheduler.NewScheduler(log, cfg.App.Location)

	if err := sched.Register(
		jobs.NewCheckUpdatesJob(monitor),
		scheduler.NewIntervalSchedule(cfg.Scheduler.CheckInterval),
	); err != nil {
		return fmt.Errorf("failed to register check job: %w", err)
	}

	if cfg.Features.IsEnabled(config.FeatureDailySchedule) {
		cronExpr := fmt.Sprintf("%d %d * * *", cfg.Scheduler.ScheduleMinute, cfg.Scheduler.ScheduleHour)
		dailyCron, err := scheduler.ParseCronExpression(cronExpr)
		if err != nil {
			return fmt.Errorf("failed to build daily schedule cron: %w", err)
		}
		if err := sched.Register(jobs.NewTomorrowScheduleJob(monitor), dailyCron); err != nil {
			return fmt.Errorf("failed to register schedule job: %w", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// The first check runs right away; the interval schedule covers the rest.
	if _, err := sched.RunNow(ctx, "check_updates"); err != nil {
		log.Error("initial check failed", logger.Err(err))
	}

	log.Info("notifier is running", logger.String("check_interval", cfg.Scheduler.CheckInterval.String()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
	}

	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop", logger.Err(err))
	}
	log.Info("notifier stopped")
	return nil
}
