package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with gradual rollout.
//
// Рекомендации и уведомления завязаны на мотивацию: каждую категорию
// можно выключить или раскатать на процент студентов, не трогая код.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	studentOverrides map[string]map[string]bool // studentID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100). Students are assigned to buckets
	// by a consistent hash of their ID.
	RolloutPercent int
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	StudentID string
	IsAdmin   bool
}

// Predefined feature flag names.
const (
	// === Recommendation Features ===
	FeatureRecommendAccelerate = "recommend.accelerate" // above-baseline acceleration hints
	FeatureRecommendSchedule   = "recommend.schedule"   // best-hour scheduling hints

	// === Notification Features ===
	FeatureNotifyStreak      = "notify.streak"       // streak milestone entries in the feed
	FeatureNotifyGoalNudge   = "notify.goal_nudge"   // weekly goal progress nudges
	FeatureNotifyTrendAlerts = "notify.trend_alerts" // accuracy trend warnings

	// === Gamification Features ===
	FeatureAchievements = "gamification.achievements" // badge detection on writes

	// === Experimental Features ===
	FeatureCohortComparison = "experimental.cohort_comparison" // cohort percentile views
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		studentOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureRecommendAccelerate] = &Feature{
		Name:           FeatureRecommendAccelerate,
		Description:    "Suggest harder questions in strong subjects",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureRecommendSchedule] = &Feature{
		Name:           FeatureRecommendSchedule,
		Description:    "Suggest the student's most productive hour",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyStreak] = &Feature{
		Name:           FeatureNotifyStreak,
		Description:    "Streak milestone entries in the notification feed",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyGoalNudge] = &Feature{
		Name:           FeatureNotifyGoalNudge,
		Description:    "Weekly goal progress nudges",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyTrendAlerts] = &Feature{
		Name:           FeatureNotifyTrendAlerts,
		Description:    "Accuracy trend warnings",
		Enabled:        true,
		RolloutPercent: 50, // A/B test: может демотивировать
	}

	ff.features[FeatureAchievements] = &Feature{
		Name:           FeatureAchievements,
		Description:    "Detect and award badges on answer submission",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCohortComparison] = &Feature{
		Name:           FeatureCohortComparison,
		Description:    "Cohort percentile comparison views",
		Enabled:        false, // ждёт модель когорт
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_NOTIFY_TREND_ALERTS=100
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "notify.goal_nudge" -> "FEATURE_NOTIFY_GOAL_NUDGE"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check per-student overrides first
	if ctx != nil && ctx.StudentID != "" {
		if overrides, ok := ff.studentOverrides[ctx.StudentID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admins get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	if !feature.Enabled {
		return false
	}

	if feature.RolloutPercent < 100 && ctx != nil && ctx.StudentID != "" {
		return isInRollout(ctx.StudentID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a student is in the rollout percentage.
// Uses consistent hashing so students stay in their bucket.
func isInRollout(studentID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(studentID))
	bucket := int(h.Sum32() % 100)
	return bucket < percent
}

// SetStudentOverride sets a feature override for a specific student.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetStudentOverride(studentID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.studentOverrides[studentID]; !ok {
		ff.studentOverrides[studentID] = make(map[string]bool)
	}
	ff.studentOverrides[studentID][featureName] = enabled
}

// ClearStudentOverrides removes all overrides for a student.
func (ff *FeatureFlags) ClearStudentOverrides(studentID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.studentOverrides, studentID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	ff.mu.Lock()
	defer ff.mu.Unlock()

	if feature, ok := ff.features[featureName]; ok {
		feature.RolloutPercent = percent
		feature.Enabled = percent > 0
	}
}
