package assessment

import (
	"context"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// Repository defines persistence operations for the `assessment_submissions`
// record set. Implementations live in infrastructure/persistence.
type Repository interface {
	// Create appends a new submission.
	Create(ctx context.Context, submission *Submission) error

	// GetByID returns a submission by id.
	// Returns shared.ErrSubmissionNotFound when no submission exists.
	GetByID(ctx context.Context, id string) (*Submission, error)

	// Update persists a reviewed submission. Only the mutable review fields
	// are written; the original payload is not touched.
	Update(ctx context.Context, submission *Submission) error

	// ListByUserAndCourse returns all submissions for the pair,
	// ordered by SubmittedAt ascending.
	ListByUserAndCourse(ctx context.Context, userID shared.UserID, courseID shared.CourseID) ([]*Submission, error)

	// ListByCourse returns all submissions for a course.
	ListByCourse(ctx context.Context, courseID shared.CourseID) ([]*Submission, error)

	// ListByUser returns all submissions for a user across courses.
	ListByUser(ctx context.Context, userID shared.UserID) ([]*Submission, error)

	// ListByUsers returns submissions for up to the store's
	// multi-value-filter limit of user ids. Callers chunk larger inputs.
	ListByUsers(ctx context.Context, userIDs []shared.UserID) ([]*Submission, error)

	// Count returns the total number of submissions.
	Count(ctx context.Context) (int, error)
}

// ResultRepository persists derived evaluation results for audit.
// Writes through it are best-effort: callers report failures as partial
// failures and never unwind the primary operation.
type ResultRepository interface {
	// Append stores a derived evaluation result.
	Append(ctx context.Context, result *EvaluationRecord) error
}

// EvaluationRecord is a persisted derived evaluation, flattened for the
// `evaluation_results` record set.
type EvaluationRecord struct {
	ID              string    `json:"id"`
	SubmissionID    string    `json:"submission_id"`
	UserID          string    `json:"user_id"`
	CourseID        string    `json:"course_id"`
	Passed          bool      `json:"passed"`
	Status          string    `json:"status"`
	Grade           string    `json:"grade"`
	CompetencyLevel string    `json:"competency_level"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}
