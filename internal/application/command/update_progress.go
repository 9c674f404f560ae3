// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system.
// Side effects beyond the primary write are best-effort and are reported
// per effect instead of failing the command.
package command

import (
	"context"
	"fmt"

	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROGRESS COMMAND
// Applies one progress update to the single (user, course) record, recomputes
// the milestone list, and reports newly crossed milestones.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProgressCommand contains the data for one progress update.
type UpdateProgressCommand struct {
	// UserID identifies the learner.
	UserID string

	// CourseID identifies the course.
	CourseID string

	// Percentage is the new overall completion in [0, 100].
	Percentage float64

	// CompletedModuleIDs are module ids finished in this update. They are
	// merged into the record's deduplicated set.
	CompletedModuleIDs []string

	// Completed marks the course done regardless of percentage.
	Completed bool
}

// Validate validates the command.
func (c UpdateProgressCommand) Validate() error {
	if !shared.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if !shared.CourseID(c.CourseID).IsValid() {
		return shared.ErrInvalidCourseID
	}
	if c.Percentage < 0 || c.Percentage > 100 {
		return shared.ErrInvalidPercentage
	}
	return nil
}

// UpdateProgressResult contains the result of a progress update.
type UpdateProgressResult struct {
	// Record is the record after the update.
	Record *progress.Record

	// NewMilestones are the thresholds crossed by this update, ascending.
	NewMilestones []progress.Milestone

	// CompletedNow is true when this update made the course complete.
	CompletedNow bool
}

// UpdateProgressHandler handles the UpdateProgressCommand.
type UpdateProgressHandler struct {
	progressRepo progress.Repository
	tracker      progress.Tracker
	publisher    shared.EventPublisher
	clock        shared.Clock
	locks        *keyedMutex
}

// NewUpdateProgressHandler creates a new UpdateProgressHandler.
func NewUpdateProgressHandler(
	progressRepo progress.Repository,
	publisher shared.EventPublisher,
	clock shared.Clock,
) *UpdateProgressHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &UpdateProgressHandler{
		progressRepo: progressRepo,
		publisher:    publisher,
		clock:        clock,
		locks:        newKeyedMutex(),
	}
}

// Handle executes the update progress command.
//
// Concurrent updates to the same (user, course) pair are serialized with a
// per-key lock so the read-modify-write cycle stays atomic within this
// process. Updates to different pairs proceed in parallel.
func (h *UpdateProgressHandler) Handle(ctx context.Context, cmd UpdateProgressCommand) (*UpdateProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_progress: %w", err)
	}

	userID := shared.UserID(cmd.UserID)
	courseID := shared.CourseID(cmd.CourseID)

	key := progress.Key(userID, courseID)
	unlock := h.locks.lock(key)
	defer unlock()

	existing, err := h.progressRepo.Get(ctx, userID, courseID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("update_progress: load record: %w", err)
	}

	now := h.clock.Now()
	wasCompleted := existing != nil && existing.Completed
	previousPct := 0.0
	if existing != nil {
		previousPct = existing.CompletedPercentage
	}

	updated, newMilestones := h.tracker.Apply(existing, userID, courseID, progress.Update{
		Percentage:         cmd.Percentage,
		CompletedModuleIDs: cmd.CompletedModuleIDs,
		Completed:          cmd.Completed,
	}, now)

	if err := h.progressRepo.Upsert(ctx, updated); err != nil {
		return nil, fmt.Errorf("update_progress: save record: %w", err)
	}

	h.publisher.Publish(progress.NewUpdatedEvent(userID, courseID, previousPct, updated.CompletedPercentage, now))
	for _, m := range newMilestones {
		h.publisher.Publish(progress.NewMilestoneReachedEvent(userID, courseID, m.Threshold, now))
	}
	completedNow := updated.Completed && !wasCompleted
	if completedNow {
		h.publisher.Publish(progress.NewCourseCompletedEvent(userID, courseID, now))
	}

	return &UpdateProgressResult{
		Record:        updated,
		NewMilestones: newMilestones,
		CompletedNow:  completedNow,
	}, nil
}
