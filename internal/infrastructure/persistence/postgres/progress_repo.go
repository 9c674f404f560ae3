package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// nullableTime maps a zero time to SQL NULL on write.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// timeValue maps SQL NULL back to the zero time on read.
func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.Repository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

const progressColumns = `
	user_id, course_id, completed_percentage, completed_module_ids,
	milestones_achieved, completed, completed_at, last_updated_at, created_at
`

// Get returns the record for the (user, course) pair.
func (r *ProgressRepository) Get(ctx context.Context, userID shared.UserID, courseID shared.CourseID) (*progress.Record, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE user_id = $1 AND course_id = $2`

	row := r.conn.QueryRow(ctx, query, string(userID), string(courseID))
	return scanProgress(row)
}

// Upsert writes the record, merging over any existing document for the same
// (user, course) key. The original created_at survives updates.
func (r *ProgressRepository) Upsert(ctx context.Context, record *progress.Record) error {
	query := `
		INSERT INTO progress (
			user_id, course_id, completed_percentage, completed_module_ids,
			milestones_achieved, completed, completed_at, last_updated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			completed_percentage = EXCLUDED.completed_percentage,
			completed_module_ids = EXCLUDED.completed_module_ids,
			milestones_achieved = EXCLUDED.milestones_achieved,
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at,
			last_updated_at = EXCLUDED.last_updated_at
	`

	milestonesJSON, err := json.Marshal(record.MilestonesAchieved)
	if err != nil {
		return fmt.Errorf("failed to marshal milestones: %w", err)
	}

	moduleIDs := record.CompletedModuleIDs
	if moduleIDs == nil {
		moduleIDs = []string{}
	}

	_, err = r.conn.Exec(ctx, query,
		string(record.UserID),
		string(record.CourseID),
		record.CompletedPercentage,
		moduleIDs,
		milestonesJSON,
		record.Completed,
		nullableTime(record.CompletedAt),
		record.LastUpdatedAt,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress record: %w", err)
	}

	return nil
}

// ListByUser returns all records for a user.
func (r *ProgressRepository) ListByUser(ctx context.Context, userID shared.UserID) ([]*progress.Record, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE user_id = $1 ORDER BY course_id`
	return r.queryProgress(ctx, query, string(userID))
}

// ListByCourse returns all records for a course.
func (r *ProgressRepository) ListByCourse(ctx context.Context, courseID shared.CourseID) ([]*progress.Record, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE course_id = $1 ORDER BY user_id`
	return r.queryProgress(ctx, query, string(courseID))
}

// ListByUsers returns records for the given user ids.
func (r *ProgressRepository) ListByUsers(ctx context.Context, userIDs []shared.UserID) ([]*progress.Record, error) {
	if len(userIDs) == 0 {
		return []*progress.Record{}, nil
	}

	query := `SELECT ` + progressColumns + ` FROM progress WHERE user_id = ANY($1) ORDER BY user_id, course_id`
	return r.queryProgress(ctx, query, userIDStrings(userIDs))
}

// CountCompletedByCourse returns, per course, how many records are completed.
func (r *ProgressRepository) CountCompletedByCourse(ctx context.Context) (map[shared.CourseID]int, error) {
	query := `SELECT course_id, COUNT(*) FROM progress WHERE completed GROUP BY course_id`
	return r.countByCourse(ctx, query)
}

// CountByCourse returns, per course, how many records exist.
func (r *ProgressRepository) CountByCourse(ctx context.Context) (map[shared.CourseID]int, error) {
	query := `SELECT course_id, COUNT(*) FROM progress GROUP BY course_id`
	return r.countByCourse(ctx, query)
}

// CountUsers returns how many distinct users have at least one record.
func (r *ProgressRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(DISTINCT user_id) FROM progress`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ProgressRepository) queryProgress(ctx context.Context, query string, args ...interface{}) ([]*progress.Record, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress records: %w", err)
	}
	defer rows.Close()

	records := make([]*progress.Record, 0)
	for rows.Next() {
		record, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (r *ProgressRepository) countByCourse(ctx context.Context, query string) (map[shared.CourseID]int, error) {
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count progress by course: %w", err)
	}
	defer rows.Close()

	counts := make(map[shared.CourseID]int)
	for rows.Next() {
		var courseID string
		var count int
		if err := rows.Scan(&courseID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan course count: %w", err)
		}
		counts[shared.CourseID(courseID)] = count
	}

	return counts, rows.Err()
}

func scanProgress(row pgx.Row) (*progress.Record, error) {
	var (
		record           progress.Record
		userID, courseID string
		milestonesJSON   []byte
		completedAt      *time.Time
	)

	err := row.Scan(
		&userID,
		&courseID,
		&record.CompletedPercentage,
		&record.CompletedModuleIDs,
		&milestonesJSON,
		&record.Completed,
		&completedAt,
		&record.LastUpdatedAt,
		&record.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to scan progress record: %w", err)
	}

	record.UserID = shared.UserID(userID)
	record.CourseID = shared.CourseID(courseID)
	record.CompletedAt = timeValue(completedAt)

	if err := json.Unmarshal(milestonesJSON, &record.MilestonesAchieved); err != nil {
		return nil, fmt.Errorf("failed to unmarshal milestones: %w", err)
	}

	return &record, nil
}

func userIDStrings(ids []shared.UserID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
