package analytics

import (
	"context"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE SNAPSHOT
// The persisted staleness layer under the in-memory cache. Snapshots are
// refreshed only by explicit rebuilds and the scheduled refresh job, never
// by the read path.
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotMaxAge is the default validity window of a persisted snapshot.
const SnapshotMaxAge = 60 * time.Minute

// Snapshot is a persisted course rollup, keyed by course id in the
// `course_aggregates` record set.
type Snapshot struct {
	CourseID    shared.CourseID `json:"course_id"`
	Metrics     CourseAnalytics `json:"metrics"`
	LastUpdated time.Time       `json:"last_updated"`
}

// Age returns how old the snapshot is at now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.LastUpdated)
}

// IsFresh reports whether the snapshot is still usable at now.
func (s *Snapshot) IsFresh(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = SnapshotMaxAge
	}
	return s.Age(now) < maxAge
}

// SnapshotRepository defines persistence for the `course_aggregates` set.
type SnapshotRepository interface {
	// Get returns the snapshot for a course.
	// Returns shared.ErrSnapshotNotFound when none exists.
	Get(ctx context.Context, courseID shared.CourseID) (*Snapshot, error)

	// Upsert writes the snapshot, merging over any existing one.
	Upsert(ctx context.Context, snapshot *Snapshot) error

	// ListCourseIDs returns the ids of all courses with a snapshot.
	ListCourseIDs(ctx context.Context) ([]shared.CourseID, error)
}
