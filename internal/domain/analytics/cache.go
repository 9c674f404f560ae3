package analytics

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHE CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// ErrCacheMiss is returned when the requested key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is the short-TTL layer in front of the aggregator. The default
// implementation is an in-process map with lazy expiry; a Redis backend is
// available for multi-replica deployments. Cache failures are advisory:
// read paths degrade to recomputation instead of failing.
type Cache interface {
	// Get deserializes the cached value for key into dest.
	// Returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys from the cache. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Clear drops every entry in the cache namespace.
	Clear(ctx context.Context) error
}

// Default TTL values for cached rollups.
const (
	// TTLCourseAnalytics is the in-memory TTL for course rollups.
	TTLCourseAnalytics = 5 * time.Minute

	// TTLUserProgress is the in-memory TTL for user progress reads.
	TTLUserProgress = 5 * time.Minute

	// TTLUserCertificates is the in-memory TTL for certificate list reads.
	TTLUserCertificates = 5 * time.Minute
)

// Key prefixes for namespacing cache keys by scope.
const (
	PrefixCourse       = "analytics:course:"
	PrefixUser         = "analytics:user:"
	PrefixCertificates = "analytics:certificates:"
	PrefixPlatform     = "analytics:platform"
)

// CourseKey returns the cache key for a course rollup.
func CourseKey(courseID string) string {
	return PrefixCourse + courseID
}

// UserKey returns the cache key for a user progress read.
func UserKey(userID string) string {
	return PrefixUser + userID
}

// CertificatesKey returns the cache key for a user's certificate list.
func CertificatesKey(userID string) string {
	return PrefixCertificates + userID
}

// PlatformKey returns the cache key for the platform rollup.
func PlatformKey() string {
	return PrefixPlatform
}
