package command

import (
	"context"
	"fmt"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW SUBMISSION COMMAND
// Patches the mutable trainer-review fields of a submission. Everything else
// on the submission stays immutable after creation.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewSubmissionCommand contains the trainer's review of one submission.
type ReviewSubmissionCommand struct {
	// SubmissionID is the submission being reviewed.
	SubmissionID string

	// Score is the awarded raw score.
	Score float64

	// Percentage is the awarded percentage in [0, 100].
	Percentage float64

	// Passed is the trainer's pass verdict.
	Passed bool

	// Feedback is free-form trainer feedback.
	Feedback string
}

// Validate validates the command.
func (c ReviewSubmissionCommand) Validate() error {
	if c.SubmissionID == "" {
		return shared.ErrInvalidID
	}
	if c.Percentage < 0 || c.Percentage > 100 {
		return shared.ErrInvalidScore
	}
	return nil
}

// ReviewSubmissionHandler handles the ReviewSubmissionCommand.
type ReviewSubmissionHandler struct {
	submissionRepo assessment.Repository
	publisher      shared.EventPublisher
	clock          shared.Clock
}

// NewReviewSubmissionHandler creates a new ReviewSubmissionHandler.
func NewReviewSubmissionHandler(
	submissionRepo assessment.Repository,
	publisher shared.EventPublisher,
	clock shared.Clock,
) *ReviewSubmissionHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &ReviewSubmissionHandler{
		submissionRepo: submissionRepo,
		publisher:      publisher,
		clock:          clock,
	}
}

// Handle executes the review submission command.
func (h *ReviewSubmissionHandler) Handle(ctx context.Context, cmd ReviewSubmissionCommand) (*assessment.Submission, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("review_submission: %w", err)
	}

	submission, err := h.submissionRepo.GetByID(ctx, cmd.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("review_submission: load submission: %w", err)
	}

	now := h.clock.Now()
	submission.ApplyReview(assessment.Review{
		Score:      cmd.Score,
		Percentage: cmd.Percentage,
		Passed:     cmd.Passed,
		Feedback:   cmd.Feedback,
	}, now)

	if err := h.submissionRepo.Update(ctx, submission); err != nil {
		return nil, fmt.Errorf("review_submission: save review: %w", err)
	}

	h.publisher.Publish(shared.NewBaseEvent(shared.EventSubmissionReviewed, submission.ID, now))

	return submission, nil
}
