// Package config loads the notifier's configuration from the environment,
// with .env support for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Accounts  []AccountConfig
	Librus    LibrusConfig
	Telegram  TelegramConfig
	Delivery  DeliveryConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
	Features  *FeatureFlags
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment

	// Timezone drives schedule evaluation and report timestamps
	// (default: Europe/Warsaw, where the portal lives).
	Timezone string
	Location *time.Location

	ShutdownTimeout time.Duration
}

// AccountConfig identifies one monitored Librus account.
type AccountConfig struct {
	Name     string
	Username string
	Password string
}

// LibrusConfig holds portal client settings.
type LibrusConfig struct {
	BaseURL        string
	RequestTimeout time.Duration

	// DetailPause is the polite delay between unread-message body fetches.
	DetailPause time.Duration

	// Rate limiting toward the portal.
	RequestsPerSecond float64
	BurstSize         int
	MinInterval       time.Duration

	// MaxGradeAgeDays suppresses grades older than the window from reports.
	// Zero disables the filter.
	MaxGradeAgeDays int
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	Token   string
	ChatID  string
	Timeout time.Duration
}

// DeliveryConfig holds report delivery tuning.
type DeliveryConfig struct {
	MaxChunkLength int
	MaxRetries     int
	RetryBaseDelay time.Duration
	ChunkPause     time.Duration
}

// StorageConfig selects the snapshot backend. DatabaseURL switches the
// notifier from file snapshots to Postgres.
type StorageConfig struct {
	StateDir    string
	DatabaseURL string
}

// RedisConfig holds the optional session cache settings.
type RedisConfig struct {
	URL      string
	Disabled bool
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	Enabled bool

	// CheckInterval is how often the change check runs.
	CheckInterval time.Duration

	// Daily schedule report time, in the configured timezone.
	ScheduleHour   int // 0-23
	ScheduleMinute int // 0-59

	// UpcomingDaysAhead is the window of the quiz/test digest.
	UpcomingDaysAhead int
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string // debug, info, warn, error

	// DetailedLogging turns on per-grade filter decision logging.
	DetailedLogging bool
}

// Load loads configuration from the environment. A .env file in the working
// directory is read first when present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.App = loadAppConfig()

	var err error
	cfg.Accounts, err = loadAccounts()
	if err != nil {
		return nil, fmt.Errorf("accounts config: %w", err)
	}

	cfg.Librus = loadLibrusConfig()
	cfg.Telegram = loadTelegramConfig()
	cfg.Delivery = loadDeliveryConfig()
	cfg.Storage = loadStorageConfig()
	cfg.Redis = loadRedisConfig()
	cfg.Scheduler = loadSchedulerConfig()
	cfg.Logging = loadLoggingConfig()
	cfg.Features = LoadFeatureFlags()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadAppConfig() AppConfig {
	timezone := getEnv("APP_TIMEZONE", "Europe/Warsaw")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	return AppConfig{
		Name:            getEnv("APP_NAME", "librus-notify"),
		Environment:     Environment(getEnv("APP_ENV", "production")),
		Timezone:        timezone,
		Location:        loc,
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadAccounts reads numbered account groups:
//
//	ACCOUNT_1_NAME=Illia
//	ACCOUNT_1_USERNAME=...
//	ACCOUNT_1_PASSWORD=...
//	ACCOUNT_2_NAME=Kostia
//	...
//
// Numbering starts at 1 and stops at the first gap.
func loadAccounts() ([]AccountConfig, error) {
	var accounts []AccountConfig

	for i := 1; ; i++ {
		prefix := fmt.Sprintf("ACCOUNT_%d_", i)
		name := os.Getenv(prefix + "NAME")
		username := os.Getenv(prefix + "USERNAME")
		password := os.Getenv(prefix + "PASSWORD")

		if name == "" && username == "" && password == "" {
			break
		}
		if username == "" || password == "" {
			return nil, fmt.Errorf("%sUSERNAME and %sPASSWORD are both required", prefix, prefix)
		}
		if name == "" {
			name = username
		}

		accounts = append(accounts, AccountConfig{
			Name:     name,
			Username: username,
			Password: password,
		})
	}

	return accounts, nil
}

func loadLibrusConfig() LibrusConfig {
	return LibrusConfig{
		BaseURL:           getEnv("LIBRUS_BASE_URL", "https://synergia.librus.pl"),
		RequestTimeout:    getEnvDuration("LIBRUS_REQUEST_TIMEOUT", 30*time.Second),
		DetailPause:       getEnvDuration("LIBRUS_DETAIL_PAUSE", 200*time.Millisecond),
		RequestsPerSecond: getEnvFloat("LIBRUS_RATE_LIMIT", 2.0),
		BurstSize:         getEnvInt("LIBRUS_RATE_BURST", 5),
		MinInterval:       getEnvDuration("LIBRUS_MIN_INTERVAL", 200*time.Millisecond),
		MaxGradeAgeDays:   getEnvInt("MAX_GRADE_AGE_DAYS", 0),
	}
}

func loadTelegramConfig() TelegramConfig {
	return TelegramConfig{
		Token:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChatID:  getEnv("TELEGRAM_CHAT_ID", ""),
		Timeout: getEnvDuration("TELEGRAM_TIMEOUT", 30*time.Second),
	}
}

func loadDeliveryConfig() DeliveryConfig {
	return DeliveryConfig{
		MaxChunkLength: getEnvInt("DELIVERY_MAX_CHUNK", 4000),
		MaxRetries:     getEnvInt("DELIVERY_MAX_RETRIES", 3),
		RetryBaseDelay: getEnvDuration("DELIVERY_RETRY_BASE", 1*time.Second),
		ChunkPause:     getEnvDuration("DELIVERY_CHUNK_PAUSE", 500*time.Millisecond),
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		StateDir:    getEnv("STATE_DIR", "state"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      getEnv("REDIS_URL", ""),
		Disabled: getEnvBool("REDIS_DISABLED", false),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           getEnvBool("SCHEDULER_ENABLED", true),
		CheckInterval:     getEnvDuration("SCHEDULER_CHECK_INTERVAL", 30*time.Minute),
		ScheduleHour:      getEnvInt("SCHEDULER_SCHEDULE_HOUR", 16),
		ScheduleMinute:    getEnvInt("SCHEDULER_SCHEDULE_MINUTE", 0),
		UpcomingDaysAhead: getEnvInt("UPCOMING_DAYS_AHEAD", 2),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:           getEnv("LOG_LEVEL", "info"),
		DetailedLogging: getEnvBool("DETAILED_LOGGING", false),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Telegram.Token == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.ChatID == "" {
		errs = append(errs, "TELEGRAM_CHAT_ID is required")
	}
	if len(c.Accounts) == 0 {
		errs = append(errs, "at least one ACCOUNT_n_USERNAME/PASSWORD pair is required")
	}
	if c.Delivery.MaxChunkLength <= 0 {
		errs = append(errs, "DELIVERY_MAX_CHUNK must be positive")
	}
	if c.Scheduler.ScheduleHour < 0 || c.Scheduler.ScheduleHour > 23 {
		errs = append(errs, "SCHEDULER_SCHEDULE_HOUR must be 0-23")
	}
	if c.Scheduler.ScheduleMinute < 0 || c.Scheduler.ScheduleMinute > 59 {
		errs = append(errs, "SCHEDULER_SCHEDULE_MINUTE must be 0-59")
	}
	if c.Librus.MaxGradeAgeDays < 0 {
		errs = append(errs, "MAX_GRADE_AGE_DAYS must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
