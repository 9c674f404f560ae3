package progress

import (
	"context"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// The contract the external document store must fulfil for the `progress`
// record set. Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines persistence operations for progress records.
type Repository interface {
	// Get returns the record for the (user, course) pair.
	// Returns shared.ErrProgressNotFound when no record exists.
	Get(ctx context.Context, userID shared.UserID, courseID shared.CourseID) (*Record, error)

	// Upsert writes the record, merging over any existing document for the
	// same (user, course) key. Fields absent from the record are left intact.
	Upsert(ctx context.Context, record *Record) error

	// ListByUser returns all records for a user.
	ListByUser(ctx context.Context, userID shared.UserID) ([]*Record, error)

	// ListByCourse returns all records for a course.
	ListByCourse(ctx context.Context, courseID shared.CourseID) ([]*Record, error)

	// ListByUsers returns records for up to the store's multi-value-filter
	// limit of user ids within one course. Callers chunk larger inputs.
	ListByUsers(ctx context.Context, userIDs []shared.UserID) ([]*Record, error)

	// CountCompletedByCourse returns, per course, how many records are
	// completed. Used by platform rollups.
	CountCompletedByCourse(ctx context.Context) (map[shared.CourseID]int, error)

	// CountByCourse returns, per course, how many records exist. A record's
	// presence counts as an enrollment.
	CountByCourse(ctx context.Context) (map[shared.CourseID]int, error)

	// CountUsers returns how many distinct users have at least one record.
	CountUsers(ctx context.Context) (int, error)
}
