// Package jobs contains implementations of scheduled jobs for the metrics
// engine.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/learnforge/learnforge-hub/internal/application/query"
	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
	"github.com/learnforge/learnforge-hub/pkg/timeutil"

	"golang.org/x/sync/errgroup"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH AGGREGATES JOB
// ══════════════════════════════════════════════════════════════════════════════

// RefreshAggregatesJob recomputes persisted course aggregate snapshots.
// Snapshots are never refreshed by the read path, so without this job a
// quiet course would serve ever-staler rollups from its snapshot window.
// Two registrations of the job cover the usual deployment: an interval run
// that refreshes only stale snapshots, and a nightly full rebuild.
type RefreshAggregatesJob struct {
	cachedAnalytics *query.CachedAnalytics
	snapshots       analytics.SnapshotRepository
	clock           shared.Clock
	logger          *slog.Logger

	config RefreshAggregatesConfig

	lastRunStats atomic.Value // *RefreshStats
}

// RefreshAggregatesConfig contains configuration for the refresh job.
type RefreshAggregatesConfig struct {
	// JobName distinguishes multiple registrations of the job.
	JobName string

	// MaxAge is the snapshot age above which a refresh is due.
	// Zero refreshes every snapshot regardless of age.
	MaxAge time.Duration

	// Concurrency bounds how many courses are rebuilt in parallel.
	Concurrency int

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultRefreshAggregatesConfig returns sensible defaults.
func DefaultRefreshAggregatesConfig() RefreshAggregatesConfig {
	return RefreshAggregatesConfig{
		JobName:     "refresh_course_aggregates",
		MaxAge:      analytics.SnapshotMaxAge,
		Concurrency: 4,
		Timeout:     5 * time.Minute,
	}
}

// RefreshStats contains statistics from a refresh run.
type RefreshStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Courses     int
	Refreshed   int
	Skipped     int
	Failed      int
	Errors      []error
}

// NewRefreshAggregatesJob creates a new refresh aggregates job.
func NewRefreshAggregatesJob(
	cachedAnalytics *query.CachedAnalytics,
	snapshots analytics.SnapshotRepository,
	clock shared.Clock,
	logger *slog.Logger,
	config RefreshAggregatesConfig,
) *RefreshAggregatesJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.JobName == "" {
		config.JobName = DefaultRefreshAggregatesConfig().JobName
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultRefreshAggregatesConfig().Concurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRefreshAggregatesConfig().Timeout
	}

	return &RefreshAggregatesJob{
		cachedAnalytics: cachedAnalytics,
		snapshots:       snapshots,
		clock:           clock,
		logger:          logger,
		config:          config,
	}
}

// Name returns the unique name of the job.
func (j *RefreshAggregatesJob) Name() string {
	return j.config.JobName
}

// Description returns a human-readable description of the job.
func (j *RefreshAggregatesJob) Description() string {
	if j.config.MaxAge <= 0 {
		return "Rebuilds every persisted course aggregate snapshot"
	}
	return fmt.Sprintf("Refreshes course aggregate snapshots older than %s", j.config.MaxAge)
}

// Run refreshes due snapshots for all known courses.
func (j *RefreshAggregatesJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	stats := &RefreshStats{StartedAt: j.clock.Now()}
	defer func() {
		stats.CompletedAt = j.clock.Now()
		stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
		j.lastRunStats.Store(stats)
	}()

	courseIDs, err := j.snapshots.ListCourseIDs(ctx)
	if err != nil {
		return fmt.Errorf("list snapshot courses: %w", err)
	}
	stats.Courses = len(courseIDs)

	due := j.filterDue(ctx, courseIDs, stats)
	if len(due) == 0 {
		j.logger.Debug("no snapshots due for refresh", "courses", len(courseIDs))
		return nil
	}

	var refreshed, failed atomic.Int64
	errCh := make(chan error, len(due))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)

	for _, courseID := range due {
		courseID := courseID
		g.Go(func() error {
			if _, err := j.cachedAnalytics.Rebuild(gctx, string(courseID)); err != nil {
				failed.Add(1)
				errCh <- fmt.Errorf("course %s: %w", courseID, err)
				j.logger.Error("snapshot refresh failed",
					"course_id", string(courseID),
					"error", err,
				)
				// One broken course must not stop the sweep.
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	close(errCh)

	stats.Refreshed = int(refreshed.Load())
	stats.Failed = int(failed.Load())
	for err := range errCh {
		stats.Errors = append(stats.Errors, err)
	}

	j.logger.Info("snapshot refresh completed",
		"job", j.config.JobName,
		"courses", stats.Courses,
		"refreshed", stats.Refreshed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)

	if stats.Failed > 0 {
		return fmt.Errorf("refresh completed with %d failure(s)", stats.Failed)
	}
	return nil
}

// LastRunStats returns the statistics of the most recent run, or nil.
func (j *RefreshAggregatesJob) LastRunStats() *RefreshStats {
	stats, _ := j.lastRunStats.Load().(*RefreshStats)
	return stats
}

// filterDue returns the courses whose snapshot is older than MaxAge.
// A snapshot that cannot be read counts as due.
func (j *RefreshAggregatesJob) filterDue(ctx context.Context, courseIDs []shared.CourseID, stats *RefreshStats) []shared.CourseID {
	if j.config.MaxAge <= 0 {
		return courseIDs
	}

	now := j.clock.Now()
	due := make([]shared.CourseID, 0, len(courseIDs))
	for _, courseID := range courseIDs {
		snapshot, err := j.snapshots.Get(ctx, courseID)
		if err == nil && snapshot.IsFresh(now, j.config.MaxAge) {
			stats.Skipped++
			continue
		}
		if err == nil {
			j.logger.Debug("snapshot due for refresh",
				"course_id", string(courseID),
				"last_updated", timeutil.FormatRelative(snapshot.LastUpdated),
			)
		}
		due = append(due, courseID)
	}
	return due
}
