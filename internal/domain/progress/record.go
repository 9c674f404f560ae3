// Package progress contains the per-(user, course) progress domain model:
// the progress record, the milestone thresholds, and the repository contract.
package progress

import (
	"fmt"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record is the single progress document for one (user, course) pair.
// It is created on the first update, merged by every subsequent update,
// and never deleted.
type Record struct {
	// UserID identifies the learner. Together with CourseID it forms the
	// unique key of the record.
	UserID shared.UserID `json:"user_id"`

	// CourseID identifies the course.
	CourseID shared.CourseID `json:"course_id"`

	// CompletedPercentage is the overall completion in [0, 100].
	CompletedPercentage float64 `json:"completed_percentage"`

	// CompletedModuleIDs is the deduplicated set of finished module ids.
	CompletedModuleIDs []string `json:"completed_module_ids"`

	// MilestonesAchieved holds the crossed thresholds with their timestamps,
	// ordered by threshold. The list is recomputed from the current
	// percentage on every update; see Tracker.Apply.
	MilestonesAchieved []Milestone `json:"milestones_achieved"`

	// Completed is set once the course reaches 100%.
	Completed bool `json:"completed"`

	// CompletedAt is when the course first reached 100% (zero if never).
	CompletedAt time.Time `json:"completed_at,omitempty"`

	// LastUpdatedAt is the time of the most recent update.
	LastUpdatedAt time.Time `json:"last_updated_at"`

	// CreatedAt is when the record was first written.
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the unique (user, course) key in "user/course" form.
func Key(userID shared.UserID, courseID shared.CourseID) string {
	return fmt.Sprintf("%s/%s", userID, courseID)
}

// Key returns the record's unique (user, course) key.
func (r *Record) Key() string {
	return Key(r.UserID, r.CourseID)
}

// Validate checks the record's invariants.
func (r *Record) Validate() error {
	if !r.UserID.IsValid() {
		return shared.ErrInvalidUserID
	}
	if !r.CourseID.IsValid() {
		return shared.ErrInvalidCourseID
	}
	if r.CompletedPercentage < 0 || r.CompletedPercentage > 100 {
		return shared.ErrInvalidPercentage
	}
	return nil
}

// HasModule reports whether the module id is already recorded as completed.
func (r *Record) HasModule(moduleID string) bool {
	for _, id := range r.CompletedModuleIDs {
		if id == moduleID {
			return true
		}
	}
	return false
}

// DedupModuleIDs returns ids with duplicates and blanks removed,
// preserving first-seen order.
func DedupModuleIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
