package postgres

import (
	"context"
	"fmt"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionRepository implements assessment.Repository for PostgreSQL.
type SubmissionRepository struct {
	conn *Connection
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(conn *Connection) *SubmissionRepository {
	return &SubmissionRepository{conn: conn}
}

const submissionColumns = `
	id, user_id, course_id, assessment_id, score, total_score, percentage,
	passed, submission_text, submission_url, status, feedback, reviewed_at,
	submitted_at
`

// Create appends a new submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *assessment.Submission) error {
	query := `
		INSERT INTO assessment_submissions (
			id, user_id, course_id, assessment_id, score, total_score,
			percentage, passed, submission_text, submission_url, status,
			feedback, reviewed_at, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		string(s.UserID),
		string(s.CourseID),
		s.AssessmentID,
		s.Score,
		s.TotalScore,
		s.Percentage,
		s.Passed,
		s.SubmissionText,
		s.SubmissionURL,
		s.Status,
		s.Feedback,
		s.ReviewedAt,
		s.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// GetByID returns a submission by id.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*assessment.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM assessment_submissions WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return scanSubmission(row)
}

// Update persists the review fields of a submission. The original payload
// columns are not touched.
func (r *SubmissionRepository) Update(ctx context.Context, s *assessment.Submission) error {
	query := `
		UPDATE assessment_submissions SET
			percentage = $1,
			passed = $2,
			status = $3,
			feedback = $4,
			reviewed_at = $5
		WHERE id = $6
	`

	result, err := r.conn.Exec(ctx, query,
		s.Percentage,
		s.Passed,
		s.Status,
		s.Feedback,
		s.ReviewedAt,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrSubmissionNotFound
	}

	return nil
}

// ListByUserAndCourse returns all submissions for the pair, oldest first.
func (r *SubmissionRepository) ListByUserAndCourse(ctx context.Context, userID shared.UserID, courseID shared.CourseID) ([]*assessment.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM assessment_submissions
		WHERE user_id = $1 AND course_id = $2
		ORDER BY submitted_at
	`
	return r.querySubmissions(ctx, query, string(userID), string(courseID))
}

// ListByCourse returns all submissions for a course.
func (r *SubmissionRepository) ListByCourse(ctx context.Context, courseID shared.CourseID) ([]*assessment.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM assessment_submissions WHERE course_id = $1 ORDER BY submitted_at`
	return r.querySubmissions(ctx, query, string(courseID))
}

// ListByUser returns all submissions for a user across courses.
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID shared.UserID) ([]*assessment.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM assessment_submissions WHERE user_id = $1 ORDER BY submitted_at`
	return r.querySubmissions(ctx, query, string(userID))
}

// ListByUsers returns submissions for the given user ids.
func (r *SubmissionRepository) ListByUsers(ctx context.Context, userIDs []shared.UserID) ([]*assessment.Submission, error) {
	if len(userIDs) == 0 {
		return []*assessment.Submission{}, nil
	}

	query := `SELECT ` + submissionColumns + ` FROM assessment_submissions WHERE user_id = ANY($1) ORDER BY user_id, submitted_at`
	return r.querySubmissions(ctx, query, userIDStrings(userIDs))
}

// Count returns the total number of submissions.
func (r *SubmissionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM assessment_submissions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

func (r *SubmissionRepository) querySubmissions(ctx context.Context, query string, args ...interface{}) ([]*assessment.Submission, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]*assessment.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}

	return submissions, rows.Err()
}

func scanSubmission(row pgx.Row) (*assessment.Submission, error) {
	var (
		s                assessment.Submission
		userID, courseID string
	)

	err := row.Scan(
		&s.ID,
		&userID,
		&courseID,
		&s.AssessmentID,
		&s.Score,
		&s.TotalScore,
		&s.Percentage,
		&s.Passed,
		&s.SubmissionText,
		&s.SubmissionURL,
		&s.Status,
		&s.Feedback,
		&s.ReviewedAt,
		&s.SubmittedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}

	s.UserID = shared.UserID(userID)
	s.CourseID = shared.CourseID(courseID)
	return &s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION RESULT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EvaluationResultRepository implements assessment.ResultRepository for
// PostgreSQL. The evaluation_results table is append-only.
type EvaluationResultRepository struct {
	conn *Connection
}

// NewEvaluationResultRepository creates a new EvaluationResultRepository.
func NewEvaluationResultRepository(conn *Connection) *EvaluationResultRepository {
	return &EvaluationResultRepository{conn: conn}
}

// Append stores a derived evaluation result.
func (r *EvaluationResultRepository) Append(ctx context.Context, result *assessment.EvaluationRecord) error {
	query := `
		INSERT INTO evaluation_results (
			id, submission_id, user_id, course_id, passed, status, grade,
			competency_level, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		result.ID,
		result.SubmissionID,
		result.UserID,
		result.CourseID,
		result.Passed,
		result.Status,
		result.Grade,
		result.CompetencyLevel,
		result.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append evaluation result: %w", err)
	}

	return nil
}
