package analytics

import (
	"context"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// Engagement event types recorded by the engine.
const (
	EngagementProgressUpdate   = "progress_update"
	EngagementMilestoneReached = "milestone_reached"
	EngagementSubmission       = "submission_evaluated"
	EngagementCertificate      = "certificate_generated"
)

// EngagementEvent is one append-only entry of the `engagement_events` record
// set. The set doubles as the durable milestone history: the stored milestone
// list on a progress record follows the current percentage and can shrink on
// regression, while these entries never do.
type EngagementEvent struct {
	ID         string            `json:"id"`
	UserID     shared.UserID     `json:"user_id"`
	CourseID   shared.CourseID   `json:"course_id"`
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// EngagementRepository defines persistence for engagement events.
// Appends are best-effort secondary writes.
type EngagementRepository interface {
	// Append adds an event.
	Append(ctx context.Context, event *EngagementEvent) error

	// ListByUser returns all events for a user, oldest first.
	ListByUser(ctx context.Context, userID shared.UserID) ([]*EngagementEvent, error)

	// CountByUser returns the number of events for a user.
	CountByUser(ctx context.Context, userID shared.UserID) (int, error)
}
