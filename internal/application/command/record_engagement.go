package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ENGAGEMENT COMMAND
// Appends one event to the append-only engagement log. The log is the durable
// activity history behind user analytics; unlike the milestone list on the
// progress record it never loses entries on regression.
// ══════════════════════════════════════════════════════════════════════════════

// RecordEngagementCommand contains one engagement event to append.
type RecordEngagementCommand struct {
	// UserID identifies the learner.
	UserID string

	// CourseID identifies the course (may be empty for platform-level events).
	CourseID string

	// Type is one of the analytics.Engagement* constants.
	Type string

	// Metadata carries small string-valued details of the event.
	Metadata map[string]string
}

// Validate validates the command.
func (c RecordEngagementCommand) Validate() error {
	if !shared.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if c.Type == "" {
		return shared.ErrValidation
	}
	return nil
}

// RecordEngagementHandler handles the RecordEngagementCommand.
type RecordEngagementHandler struct {
	engagementRepo analytics.EngagementRepository
	clock          shared.Clock
}

// NewRecordEngagementHandler creates a new RecordEngagementHandler.
func NewRecordEngagementHandler(engagementRepo analytics.EngagementRepository, clock shared.Clock) *RecordEngagementHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &RecordEngagementHandler{engagementRepo: engagementRepo, clock: clock}
}

// Handle executes the record engagement command.
func (h *RecordEngagementHandler) Handle(ctx context.Context, cmd RecordEngagementCommand) (*analytics.EngagementEvent, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_engagement: %w", err)
	}

	event := &analytics.EngagementEvent{
		ID:         uuid.NewString(),
		UserID:     shared.UserID(cmd.UserID),
		CourseID:   shared.CourseID(cmd.CourseID),
		Type:       cmd.Type,
		OccurredAt: h.clock.Now(),
		Metadata:   cmd.Metadata,
	}

	if err := h.engagementRepo.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("record_engagement: append event: %w", err)
	}

	return event, nil
}
