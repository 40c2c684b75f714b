package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMinimalEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	t.Setenv("ACCOUNT_1_NAME", "Illia")
	t.Setenv("ACCOUNT_1_USERNAME", "illia123")
	t.Setenv("ACCOUNT_1_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "librus-notify", cfg.App.Name)
	assert.Equal(t, "Europe/Warsaw", cfg.App.Timezone)
	require.NotNil(t, cfg.App.Location)

	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, "Illia", cfg.Accounts[0].Name)
	assert.Equal(t, "illia123", cfg.Accounts[0].Username)

	assert.Equal(t, "https://synergia.librus.pl", cfg.Librus.BaseURL)
	assert.Equal(t, 200*time.Millisecond, cfg.Librus.DetailPause)
	assert.Zero(t, cfg.Librus.MaxGradeAgeDays)

	assert.Equal(t, 4000, cfg.Delivery.MaxChunkLength)
	assert.Equal(t, 3, cfg.Delivery.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Delivery.ChunkPause)

	assert.Equal(t, "state", cfg.Storage.StateDir)
	assert.Empty(t, cfg.Storage.DatabaseURL)

	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.CheckInterval)
	assert.Equal(t, 16, cfg.Scheduler.ScheduleHour)
	assert.Equal(t, 0, cfg.Scheduler.ScheduleMinute)
	assert.Equal(t, 2, cfg.Scheduler.UpcomingDaysAhead)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.DetailedLogging)
}

func TestLoadMultipleAccounts(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("ACCOUNT_2_NAME", "Kostia")
	t.Setenv("ACCOUNT_2_USERNAME", "kostia456")
	t.Setenv("ACCOUNT_2_PASSWORD", "secret2")

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, "Kostia", cfg.Accounts[1].Name)
}

func TestLoadAccountNameDefaultsToUsername(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("ACCOUNT_1_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "illia123", cfg.Accounts[0].Name)
}

func TestLoadAccountsStopsAtGap(t *testing.T) {
	setMinimalEnv(t)
	// ACCOUNT_2_* unset, ACCOUNT_3_* set: numbering stops at the gap.
	t.Setenv("ACCOUNT_3_USERNAME", "ghost")
	t.Setenv("ACCOUNT_3_PASSWORD", "ghost")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Accounts, 1)
}

func TestLoadIncompleteAccountFails(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("ACCOUNT_2_NAME", "Kostia")
	t.Setenv("ACCOUNT_2_USERNAME", "kostia456")
	// No password for account 2.

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCOUNT_2_")
}

func TestLoadRequiresTelegramAndAccounts(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN is required")
	assert.Contains(t, err.Error(), "TELEGRAM_CHAT_ID is required")
	assert.Contains(t, err.Error(), "at least one ACCOUNT_n_USERNAME/PASSWORD pair is required")
}

func TestLoadOverrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("LIBRUS_REQUEST_TIMEOUT", "10s")
	t.Setenv("MAX_GRADE_AGE_DAYS", "7")
	t.Setenv("DETAILED_LOGGING", "true")
	t.Setenv("SCHEDULER_CHECK_INTERVAL", "15m")
	t.Setenv("DELIVERY_MAX_CHUNK", "1000")
	t.Setenv("DATABASE_URL", "postgres://notify:pw@localhost:5432/librus")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Librus.RequestTimeout)
	assert.Equal(t, 7, cfg.Librus.MaxGradeAgeDays)
	assert.True(t, cfg.Logging.DetailedLogging)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.CheckInterval)
	assert.Equal(t, 1000, cfg.Delivery.MaxChunkLength)
	assert.Equal(t, "postgres://notify:pw@localhost:5432/librus", cfg.Storage.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadInvalidScheduleHour(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("SCHEDULER_SCHEDULE_HOUR", "24")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCHEDULER_SCHEDULE_HOUR must be 0-23")
}

func TestGetEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	t.Setenv("SOME_BOOL", "maybe")
	t.Setenv("SOME_DURATION", "eleventy")

	assert.Equal(t, 42, getEnvInt("SOME_INT", 42))
	assert.True(t, getEnvBool("SOME_BOOL", true))
	assert.Equal(t, time.Minute, getEnvDuration("SOME_DURATION", time.Minute))
	assert.Equal(t, 1.5, getEnvFloat("SOME_FLOAT_UNSET", 1.5))
}

func TestFeatureFlagDefaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureDailySchedule))
	assert.True(t, ff.IsEnabled(FeatureUpcomingDigest))
	assert.True(t, ff.IsEnabled(FeatureQuietHoursSilent))
	assert.True(t, ff.IsEnabled(FeatureSystemAlerts))
	assert.False(t, ff.IsEnabled("notify.unknown"))
}

func TestFeatureFlagEnvOverride(t *testing.T) {
	t.Setenv("FEATURE_NOTIFY_DAILY_SCHEDULE", "false")
	t.Setenv("FEATURE_NOTIFY_SYSTEM_ALERTS", "garbage")

	ff := LoadFeatureFlags()
	assert.False(t, ff.IsEnabled(FeatureDailySchedule))
	// Unparseable values keep the default.
	assert.True(t, ff.IsEnabled(FeatureSystemAlerts))
}

func TestFeatureFlagSetEnabled(t *testing.T) {
	ff := LoadFeatureFlags()
	ff.SetEnabled(FeatureUpcomingDigest, false)
	assert.False(t, ff.IsEnabled(FeatureUpcomingDigest))

	all := ff.All()
	assert.False(t, all[FeatureUpcomingDigest])
	assert.True(t, all[FeatureDailySchedule])
}
