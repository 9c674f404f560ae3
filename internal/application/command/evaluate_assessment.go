package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/evaluation"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
	"github.com/learnforge/learnforge-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE ASSESSMENT COMMAND
// Derives pass/fail, letter grade, and competency level for one submission.
// The derived result is appended to the audit store best-effort; a failed
// append degrades to a partial-failure flag on the result, never an error.
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateAssessmentCommand identifies the submission to evaluate.
type EvaluateAssessmentCommand struct {
	// SubmissionID is the submission to evaluate.
	SubmissionID string

	// PassingScore overrides the default passing threshold when positive.
	PassingScore float64
}

// Validate validates the command.
func (c EvaluateAssessmentCommand) Validate() error {
	if c.SubmissionID == "" {
		return shared.ErrInvalidID
	}
	if c.PassingScore < 0 || c.PassingScore > 100 {
		return shared.ErrInvalidScore
	}
	return nil
}

// EvaluateAssessmentResult contains the derived evaluation.
type EvaluateAssessmentResult struct {
	// Evaluation is the full derived result.
	Evaluation evaluation.Result

	// AuditRecorded is false when the best-effort audit append failed.
	AuditRecorded bool
}

// EvaluateAssessmentHandler handles the EvaluateAssessmentCommand.
type EvaluateAssessmentHandler struct {
	submissionRepo assessment.Repository
	resultRepo     assessment.ResultRepository
	publisher      shared.EventPublisher
	clock          shared.Clock
	log            *logger.Logger
}

// NewEvaluateAssessmentHandler creates a new EvaluateAssessmentHandler.
// resultRepo may be nil when audit persistence is not wired.
func NewEvaluateAssessmentHandler(
	submissionRepo assessment.Repository,
	resultRepo assessment.ResultRepository,
	publisher shared.EventPublisher,
	clock shared.Clock,
	log *logger.Logger,
) *EvaluateAssessmentHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &EvaluateAssessmentHandler{
		submissionRepo: submissionRepo,
		resultRepo:     resultRepo,
		publisher:      publisher,
		clock:          clock,
		log:            log,
	}
}

// Handle executes the evaluate assessment command.
func (h *EvaluateAssessmentHandler) Handle(ctx context.Context, cmd EvaluateAssessmentCommand) (*EvaluateAssessmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate_assessment: %w", err)
	}

	submission, err := h.submissionRepo.GetByID(ctx, cmd.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("evaluate_assessment: load submission: %w", err)
	}

	passingScore := cmd.PassingScore
	if passingScore == 0 {
		passingScore = evaluation.DefaultPassingScore
	}

	now := h.clock.Now()
	result := evaluation.Result{
		SubmissionID:     submission.ID,
		UserID:           string(submission.UserID),
		CourseID:         string(submission.CourseID),
		PassFail:         evaluation.PassFail(submission.Percentage, passingScore),
		PerformanceGrade: evaluation.Grade(submission.Percentage),
		Competency:       evaluation.Competency(submission.Percentage),
		EvaluatedAt:      now,
	}

	out := &EvaluateAssessmentResult{Evaluation: result, AuditRecorded: true}
	if h.resultRepo != nil {
		record := &assessment.EvaluationRecord{
			ID:              uuid.NewString(),
			SubmissionID:    result.SubmissionID,
			UserID:          result.UserID,
			CourseID:        result.CourseID,
			Passed:          result.PassFail.Passed,
			Status:          result.PassFail.Status,
			Grade:           result.PerformanceGrade.Grade,
			CompetencyLevel: result.Competency.Level,
			EvaluatedAt:     now,
		}
		if err := h.resultRepo.Append(ctx, record); err != nil {
			out.AuditRecorded = false
			if h.log != nil {
				h.log.Warn("evaluation audit append failed",
					logger.F("submission_id", submission.ID),
					logger.F("error", err.Error()),
				)
			}
		}
	}

	h.publisher.Publish(assessment.NewSubmissionEvaluatedEvent(
		submission.ID,
		submission.UserID,
		submission.CourseID,
		result.PassFail.Passed,
		result.PerformanceGrade.Grade,
		now,
	))

	return out, nil
}
