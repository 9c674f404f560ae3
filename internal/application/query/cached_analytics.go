package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
	"github.com/learnforge/learnforge-hub/pkg/logger"
	"github.com/learnforge/learnforge-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHED ANALYTICS
// The two-tier optimized read path: a short-TTL cache in front of the
// aggregator, with a persisted snapshot layer under the course rollup.
//
// Read path for a course rollup:
//
//	memory hit                     -> return
//	memory miss, snapshot fresh    -> repopulate memory, return snapshot
//	memory miss, snapshot stale    -> recompute, populate memory ONLY
//
// The read path never writes snapshots; only Rebuild and the scheduled
// refresh job do. Plain writes never invalidate either layer, so reads may
// lag by up to the TTLs. That staleness window is the deliberate trade-off
// of this layer.
// ══════════════════════════════════════════════════════════════════════════════

// storeFilterLimit is the maximum number of values one multi-value store
// filter may carry. Larger batches are chunked.
const storeFilterLimit = 10

// CachedAnalyticsConfig carries the tunable staleness windows.
type CachedAnalyticsConfig struct {
	// CourseTTL is the in-memory TTL for course rollups.
	CourseTTL time.Duration

	// UserTTL is the in-memory TTL for user rollups.
	UserTTL time.Duration

	// CertificatesTTL is the in-memory TTL for certificate lists.
	CertificatesTTL time.Duration

	// SnapshotMaxAge is how old a persisted snapshot may be and still serve
	// a memory miss.
	SnapshotMaxAge time.Duration
}

// DefaultCachedAnalyticsConfig returns the standard staleness windows.
func DefaultCachedAnalyticsConfig() CachedAnalyticsConfig {
	return CachedAnalyticsConfig{
		CourseTTL:       analytics.TTLCourseAnalytics,
		UserTTL:         analytics.TTLUserProgress,
		CertificatesTTL: analytics.TTLUserProgress,
		SnapshotMaxAge:  analytics.SnapshotMaxAge,
	}
}

func (c CachedAnalyticsConfig) withDefaults() CachedAnalyticsConfig {
	d := DefaultCachedAnalyticsConfig()
	if c.CourseTTL <= 0 {
		c.CourseTTL = d.CourseTTL
	}
	if c.UserTTL <= 0 {
		c.UserTTL = d.UserTTL
	}
	if c.CertificatesTTL <= 0 {
		c.CertificatesTTL = d.CertificatesTTL
	}
	if c.SnapshotMaxAge <= 0 {
		c.SnapshotMaxAge = d.SnapshotMaxAge
	}
	return c
}

// CachedAnalytics serves the optimized read operations.
type CachedAnalytics struct {
	cache          analytics.Cache
	snapshots      analytics.SnapshotRepository
	aggregator     *Aggregator
	progressRepo   progress.Repository
	submissionRepo assessment.Repository
	certRepo       certificate.Repository
	clock          shared.Clock
	log            *logger.Logger
	cfg            CachedAnalyticsConfig
}

// NewCachedAnalytics creates a new CachedAnalytics.
func NewCachedAnalytics(
	cache analytics.Cache,
	snapshots analytics.SnapshotRepository,
	aggregator *Aggregator,
	progressRepo progress.Repository,
	submissionRepo assessment.Repository,
	certRepo certificate.Repository,
	clock shared.Clock,
	log *logger.Logger,
	cfg CachedAnalyticsConfig,
) *CachedAnalytics {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &CachedAnalytics{
		cache:          cache,
		snapshots:      snapshots,
		aggregator:     aggregator,
		progressRepo:   progressRepo,
		submissionRepo: submissionRepo,
		certRepo:       certRepo,
		clock:          clock,
		log:            log,
		cfg:            cfg.withDefaults(),
	}
}

// CourseAnalytics serves the course rollup through both staleness layers.
func (c *CachedAnalytics) CourseAnalytics(ctx context.Context, courseID string) (analytics.CourseAnalytics, error) {
	if !shared.CourseID(courseID).IsValid() {
		return analytics.CourseAnalytics{}, fmt.Errorf("cached_course_analytics: %w", shared.ErrInvalidCourseID)
	}

	key := analytics.CourseKey(courseID)
	var cached analytics.CourseAnalytics
	if c.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	snapshot, err := c.snapshots.Get(ctx, shared.CourseID(courseID))
	if err == nil && snapshot.IsFresh(c.clock.Now(), c.cfg.SnapshotMaxAge) {
		c.cacheSet(ctx, key, snapshot.Metrics, c.cfg.CourseTTL)
		return snapshot.Metrics, nil
	}
	if err != nil && !shared.IsNotFound(err) {
		return analytics.CourseAnalytics{}, fmt.Errorf("cached_course_analytics: load snapshot: %w", err)
	}

	// Stale or absent snapshot: recompute. Memory only, no snapshot
	// write-back on the read path.
	rollup, err := c.aggregator.CourseAnalytics(ctx, courseID)
	if err != nil {
		return analytics.CourseAnalytics{}, err
	}
	c.cacheSet(ctx, key, rollup, c.cfg.CourseTTL)
	return rollup, nil
}

// UserProgress serves the per-user rollup through the memory cache.
func (c *CachedAnalytics) UserProgress(ctx context.Context, userID string) (analytics.UserAnalytics, error) {
	if !shared.UserID(userID).IsValid() {
		return analytics.UserAnalytics{}, fmt.Errorf("cached_user_progress: %w", shared.ErrInvalidUserID)
	}

	key := analytics.UserKey(userID)
	var cached analytics.UserAnalytics
	if c.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	rollup, err := c.aggregator.UserAnalytics(ctx, userID)
	if err != nil {
		return analytics.UserAnalytics{}, err
	}
	c.cacheSet(ctx, key, rollup, c.cfg.UserTTL)
	return rollup, nil
}

// Certificates serves a user's certificate list through the memory cache.
func (c *CachedAnalytics) Certificates(ctx context.Context, userID string) ([]*certificate.Certificate, error) {
	if !shared.UserID(userID).IsValid() {
		return nil, fmt.Errorf("cached_certificates: %w", shared.ErrInvalidUserID)
	}

	key := analytics.CertificatesKey(userID)
	var cached []*certificate.Certificate
	if c.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	certs, err := c.certRepo.ListByUser(ctx, shared.UserID(userID))
	if err != nil {
		return nil, fmt.Errorf("cached_certificates: %w", err)
	}
	c.cacheSet(ctx, key, certs, c.cfg.CertificatesTTL)
	return certs, nil
}

// Platform serves the platform rollup through the memory cache.
func (c *CachedAnalytics) Platform(ctx context.Context, topN int) (analytics.PlatformAnalytics, error) {
	key := analytics.PlatformKey()
	var cached analytics.PlatformAnalytics
	if c.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	rollup, err := c.aggregator.PlatformAnalytics(ctx, topN)
	if err != nil {
		return analytics.PlatformAnalytics{}, err
	}
	c.cacheSet(ctx, key, rollup, c.cfg.CourseTTL)
	return rollup, nil
}

// Rebuild recomputes one course rollup and refreshes both staleness layers.
// This and the scheduled refresh job are the only snapshot writers.
func (c *CachedAnalytics) Rebuild(ctx context.Context, courseID string) (analytics.CourseAnalytics, error) {
	if !shared.CourseID(courseID).IsValid() {
		return analytics.CourseAnalytics{}, fmt.Errorf("rebuild_course_analytics: %w", shared.ErrInvalidCourseID)
	}

	key := analytics.CourseKey(courseID)
	if err := c.cache.Delete(ctx, key); err != nil {
		c.warn("cache delete failed", key, err)
	}

	rollup, err := c.aggregator.CourseAnalytics(ctx, courseID)
	if err != nil {
		return analytics.CourseAnalytics{}, err
	}

	snapshot := &analytics.Snapshot{
		CourseID:    shared.CourseID(courseID),
		Metrics:     rollup,
		LastUpdated: c.clock.Now(),
	}
	// The snapshot write is what this operation exists for, so transient
	// store failures are retried before giving up.
	err = retry.DatabaseRetrier().Do(ctx, func(ctx context.Context) error {
		return c.snapshots.Upsert(ctx, snapshot)
	})
	if err != nil {
		return analytics.CourseAnalytics{}, fmt.Errorf("rebuild_course_analytics: store snapshot: %w", err)
	}

	c.cacheSet(ctx, key, rollup, c.cfg.CourseTTL)
	return rollup, nil
}

// ClearAll drops every in-memory entry. Persisted snapshots are untouched.
func (c *CachedAnalytics) ClearAll(ctx context.Context) error {
	if err := c.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear_all_cache: %w", err)
	}
	return nil
}

// UserBatchData bundles one user's raw rows from the batched multi-get.
type UserBatchData struct {
	UserID       string                     `json:"user_id"`
	Progress     []*progress.Record         `json:"progress"`
	Certificates []*certificate.Certificate `json:"certificates"`
	Submissions  []*assessment.Submission   `json:"submissions"`
}

// BatchUserData fetches progress, certificates, and submissions for many
// users. Inputs are chunked to the store's multi-value-filter limit; within
// each chunk the three record sets are fetched concurrently. This path is
// deliberately uncached.
func (c *CachedAnalytics) BatchUserData(ctx context.Context, userIDs []string) (map[string]*UserBatchData, error) {
	ids := dedupStrings(userIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("batch_user_data: %w", shared.ErrValidation)
	}

	out := make(map[string]*UserBatchData, len(ids))
	for _, id := range ids {
		out[id] = &UserBatchData{UserID: id}
	}

	for start := 0; start < len(ids); start += storeFilterLimit {
		end := start + storeFilterLimit
		if end > len(ids) {
			end = len(ids)
		}
		chunk := make([]shared.UserID, 0, end-start)
		for _, id := range ids[start:end] {
			chunk = append(chunk, shared.UserID(id))
		}

		var (
			records     []*progress.Record
			certs       []*certificate.Certificate
			submissions []*assessment.Submission
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			records, err = c.progressRepo.ListByUsers(gctx, chunk)
			return err
		})
		g.Go(func() error {
			var err error
			certs, err = c.certRepo.ListByUsers(gctx, chunk)
			return err
		})
		g.Go(func() error {
			var err error
			submissions, err = c.submissionRepo.ListByUsers(gctx, chunk)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("batch_user_data: %w", err)
		}

		for _, r := range records {
			if d, ok := out[string(r.UserID)]; ok {
				d.Progress = append(d.Progress, r)
			}
		}
		for _, cert := range certs {
			if d, ok := out[string(cert.UserID)]; ok {
				d.Certificates = append(d.Certificates, cert)
			}
		}
		for _, s := range submissions {
			if d, ok := out[string(s.UserID)]; ok {
				d.Submissions = append(d.Submissions, s)
			}
		}
	}

	return out, nil
}

// cacheGet reads key into dest. Cache failures other than a miss are
// advisory: they are logged and treated as a miss.
func (c *CachedAnalytics) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	err := c.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, analytics.ErrCacheMiss) {
		c.warn("cache read failed", key, err)
	}
	return false
}

// cacheSet stores value under key. Failures are advisory.
func (c *CachedAnalytics) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.warn("cache write failed", key, err)
	}
}

func (c *CachedAnalytics) warn(msg, key string, err error) {
	if c.log != nil {
		c.log.Warn(msg, logger.F("key", key), logger.F("error", err.Error()))
	}
}
