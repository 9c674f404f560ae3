package config

import (
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles for the metrics engine.
// Supports gradual rollout, per-user overrides, and time-based activation.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID   string // platform user id
	CourseID string // current course, if any
}

// Predefined feature flag names.
const (
	// === Cache Features ===
	FeatureCacheRedis     = "cache.redis"      // Redis backend for the hot layer
	FeatureCacheSnapshots = "cache.snapshots"  // serve misses from persisted snapshots
	FeatureCacheBatchRead = "cache.batch_read" // combined multi-user data reads

	// === Analytics Features ===
	FeatureAnalyticsEngagement = "analytics.engagement_recording" // event-driven engagement log
	FeatureAnalyticsPlatform   = "analytics.platform_rollup"      // platform-wide rollup endpoint

	// === Certificate Features ===
	FeatureCertificateAuditLog = "certificate.audit_log"   // best-effort audit trail writes
	FeatureCertificateBulk     = "certificate.bulk_checks" // bulk eligibility checks

	// === Scheduler Features ===
	FeatureSchedulerRefresh     = "scheduler.snapshot_refresh" // interval refresh of stale snapshots
	FeatureSchedulerFullRebuild = "scheduler.full_rebuild"     // nightly unconditional rebuild
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	defaults := []*Feature{
		{
			Name:           FeatureCacheRedis,
			Description:    "Use the Redis cache backend when configured",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureCacheSnapshots,
			Description:    "Serve cache misses from persisted course snapshots",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureCacheBatchRead,
			Description:    "Combined multi-user data reads with bounded fan-out",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureAnalyticsEngagement,
			Description:    "Record engagement events from domain events",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureAnalyticsPlatform,
			Description:    "Expose the platform-wide analytics rollup",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureCertificateAuditLog,
			Description:    "Append audit trail entries on certificate writes",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureCertificateBulk,
			Description:    "Bulk certificate eligibility checks",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureSchedulerRefresh,
			Description:    "Interval refresh of stale aggregate snapshots",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureSchedulerFullRebuild,
			Description:    "Nightly unconditional aggregate rebuild",
			Enabled:        true,
			RolloutPercent: 100,
		},
	}

	for _, f := range defaults {
		ff.features[f.Name] = f
	}
}

// loadFromEnvironment applies FEATURE_* environment overrides.
// FEATURE_CACHE_REDIS=false disables cache.redis; a value of the form
// "50%" sets the rollout percentage instead.
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		if strings.HasSuffix(val, "%") {
			var percent int
			if _, err := fmt.Sscanf(val, "%d%%", &percent); err == nil && percent >= 0 && percent <= 100 {
				feature.RolloutPercent = percent
				feature.Enabled = percent > 0
			}
			continue
		}

		switch strings.ToLower(val) {
		case "true", "1", "on", "enabled":
			feature.Enabled = true
			feature.RolloutPercent = 100
		case "false", "0", "off", "disabled":
			feature.Enabled = false
		}
	}
}

// featureNameToEnvKey converts "cache.redis" to "FEATURE_CACHE_REDIS".
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
// A nil context evaluates global state only.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// User overrides take priority
	if ctx != nil && ctx.UserID != "" {
		if overrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	if !feature.Enabled {
		return false
	}

	// Time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Gradual rollout
	if feature.RolloutPercent < 100 {
		if ctx == nil || ctx.UserID == "" {
			return false
		}
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return true
}

// isInRollout deterministically assigns a user to the rollout bucket.
func (ff *FeatureFlags) isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(userID))
	h.Write([]byte(featureName))
	return int(h.Sum32()%100) < percent
}

// SetUserOverride forces a feature on or off for one user.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if ff.userOverrides[userID] == nil {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for one user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	delete(ff.userOverrides, userID)
}

// SetRolloutPercent adjusts a feature's rollout percentage at runtime.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("rollout percent out of range: %d", percent)
	}

	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return fmt.Errorf("unknown feature: %s", featureName)
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0
	return nil
}

// EnableFeature turns a feature fully on.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature turns a feature fully off.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of the current feature set.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for name, feature := range ff.features {
		f := *feature
		result[name] = &f
	}
	return result
}
