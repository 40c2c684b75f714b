package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages runtime feature toggles. Defaults are set in code and
// can be overridden per flag through the environment, which lets a deployment
// turn off the daily schedule report or quiet-hours silencing without a
// rebuild.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	// FeatureDailySchedule controls the 16:00 tomorrow-plan report job.
	FeatureDailySchedule = "notify.daily_schedule"

	// FeatureUpcomingDigest controls the quiz/test digest appended to the
	// daily schedule report.
	FeatureUpcomingDigest = "notify.upcoming_digest"

	// FeatureQuietHoursSilent delivers messages without sound during
	// night hours instead of holding them.
	FeatureQuietHoursSilent = "notify.quiet_hours_silent"

	// FeatureSystemAlerts sends a Telegram alert when a check run hits
	// blocking errors.
	FeatureSystemAlerts = "notify.system_alerts"
)

// LoadFeatureFlags loads feature flags with their defaults, then applies
// environment overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureDailySchedule] = &Feature{
		Name:        FeatureDailySchedule,
		Description: "Send tomorrow's lesson plan every afternoon",
		Enabled:     true,
	}

	ff.features[FeatureUpcomingDigest] = &Feature{
		Name:        FeatureUpcomingDigest,
		Description: "Append the upcoming quizzes and tests digest",
		Enabled:     true,
	}

	ff.features[FeatureQuietHoursSilent] = &Feature{
		Name:        FeatureQuietHoursSilent,
		Description: "Deliver without notification sound at night",
		Enabled:     true,
	}

	ff.features[FeatureSystemAlerts] = &Feature{
		Name:        FeatureSystemAlerts,
		Description: "Alert the chat about blocking errors",
		Enabled:     true,
	}
}

// loadFromEnvironment applies overrides of the form FEATURE_<NAME>=true|false.
// Example: FEATURE_NOTIFY_DAILY_SCHEDULE=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
		}
	}
}

// featureNameToEnvKey converts a feature name to its environment key.
// "notify.daily_schedule" -> "FEATURE_NOTIFY_DAILY_SCHEDULE"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether the named feature is on. Unknown names are off.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	return ok && feature.Enabled
}

// SetEnabled flips a feature at runtime. Used in tests.
func (ff *FeatureFlags) SetEnabled(featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if feature, ok := ff.features[featureName]; ok {
		feature.Enabled = enabled
	}
}

// All returns a copy of the current flag states.
func (ff *FeatureFlags) All() map[string]bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]bool, len(ff.features))
	for name, feature := range ff.features {
		result[name] = feature.Enabled
	}
	return result
}
