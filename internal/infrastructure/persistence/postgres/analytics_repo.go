package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGAGEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EngagementRepository implements analytics.EngagementRepository for
// PostgreSQL. The engagement_events table is append-only.
type EngagementRepository struct {
	conn *Connection
}

// NewEngagementRepository creates a new EngagementRepository.
func NewEngagementRepository(conn *Connection) *EngagementRepository {
	return &EngagementRepository{conn: conn}
}

// Append adds an event.
func (r *EngagementRepository) Append(ctx context.Context, event *analytics.EngagementEvent) error {
	query := `
		INSERT INTO engagement_events (
			id, user_id, course_id, type, occurred_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal event metadata: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		event.ID,
		string(event.UserID),
		string(event.CourseID),
		event.Type,
		event.OccurredAt,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append engagement event: %w", err)
	}

	return nil
}

// ListByUser returns all events for a user, oldest first.
func (r *EngagementRepository) ListByUser(ctx context.Context, userID shared.UserID) ([]*analytics.EngagementEvent, error) {
	query := `
		SELECT id, user_id, course_id, type, occurred_at, metadata
		FROM engagement_events
		WHERE user_id = $1
		ORDER BY occurred_at
	`

	rows, err := r.conn.Query(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query engagement events: %w", err)
	}
	defer rows.Close()

	events := make([]*analytics.EngagementEvent, 0)
	for rows.Next() {
		var (
			event         analytics.EngagementEvent
			uid, courseID string
			metadataJSON  []byte
		)
		err := rows.Scan(
			&event.ID,
			&uid,
			&courseID,
			&event.Type,
			&event.OccurredAt,
			&metadataJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan engagement event: %w", err)
		}
		event.UserID = shared.UserID(uid)
		event.CourseID = shared.CourseID(courseID)
		if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}

// CountByUser returns the number of events for a user.
func (r *EngagementRepository) CountByUser(ctx context.Context, userID shared.UserID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM engagement_events WHERE user_id = $1`, string(userID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count engagement events: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotRepository implements analytics.SnapshotRepository for PostgreSQL.
// One course_aggregates row per course; rebuilds overwrite in place.
type SnapshotRepository struct {
	conn *Connection
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(conn *Connection) *SnapshotRepository {
	return &SnapshotRepository{conn: conn}
}

// Get returns the snapshot for a course.
func (r *SnapshotRepository) Get(ctx context.Context, courseID shared.CourseID) (*analytics.Snapshot, error) {
	query := `SELECT course_id, metrics, last_updated FROM course_aggregates WHERE course_id = $1`

	var (
		snapshot    analytics.Snapshot
		cid         string
		metricsJSON []byte
		lastUpdated time.Time
	)
	err := r.conn.QueryRow(ctx, query, string(courseID)).Scan(&cid, &metricsJSON, &lastUpdated)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snapshot.CourseID = shared.CourseID(cid)
	snapshot.LastUpdated = lastUpdated
	if err := json.Unmarshal(metricsJSON, &snapshot.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot metrics: %w", err)
	}

	return &snapshot, nil
}

// Upsert writes the snapshot, merging over any existing one.
func (r *SnapshotRepository) Upsert(ctx context.Context, snapshot *analytics.Snapshot) error {
	query := `
		INSERT INTO course_aggregates (course_id, metrics, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (course_id) DO UPDATE SET
			metrics = EXCLUDED.metrics,
			last_updated = EXCLUDED.last_updated
	`

	metricsJSON, err := json.Marshal(snapshot.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot metrics: %w", err)
	}

	_, err = r.conn.Exec(ctx, query, string(snapshot.CourseID), metricsJSON, snapshot.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

// ListCourseIDs returns the ids of all courses with a snapshot.
func (r *SnapshotRepository) ListCourseIDs(ctx context.Context) ([]shared.CourseID, error) {
	rows, err := r.conn.Query(ctx, `SELECT course_id FROM course_aggregates ORDER BY course_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot course ids: %w", err)
	}
	defer rows.Close()

	ids := make([]shared.CourseID, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan course id: %w", err)
		}
		ids = append(ids, shared.CourseID(id))
	}

	return ids, rows.Err()
}
