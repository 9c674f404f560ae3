package query

import (
	"context"
	"fmt"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK ELIGIBILITY QUERY
// Runs the certificate eligibility gate for one (user, course) pair.
// Ineligibility is a structured result, not an error.
// ══════════════════════════════════════════════════════════════════════════════

// CheckEligibilityQuery identifies the pair to check.
type CheckEligibilityQuery struct {
	UserID   string
	CourseID string
}

// Validate validates the query.
func (q CheckEligibilityQuery) Validate() error {
	if !shared.UserID(q.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if !shared.CourseID(q.CourseID).IsValid() {
		return shared.ErrInvalidCourseID
	}
	return nil
}

// CheckEligibilityHandler handles the CheckEligibilityQuery.
type CheckEligibilityHandler struct {
	progressRepo   progress.Repository
	submissionRepo assessment.Repository
	clock          shared.Clock
}

// NewCheckEligibilityHandler creates a new CheckEligibilityHandler.
func NewCheckEligibilityHandler(
	progressRepo progress.Repository,
	submissionRepo assessment.Repository,
	clock shared.Clock,
) *CheckEligibilityHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &CheckEligibilityHandler{
		progressRepo:   progressRepo,
		submissionRepo: submissionRepo,
		clock:          clock,
	}
}

// Handle runs the gate. Only store failures surface as errors; every
// business outcome, including "no progress record", comes back as a result.
func (h *CheckEligibilityHandler) Handle(ctx context.Context, q CheckEligibilityQuery) (certificate.Eligibility, error) {
	if err := q.Validate(); err != nil {
		return certificate.Eligibility{}, fmt.Errorf("check_eligibility: %w", err)
	}

	userID := shared.UserID(q.UserID)
	courseID := shared.CourseID(q.CourseID)

	record, err := h.progressRepo.Get(ctx, userID, courseID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return certificate.Eligibility{}, fmt.Errorf("check_eligibility: load record: %w", err)
		}
		record = nil
	}

	var submissions []*assessment.Submission
	if record != nil && record.CompletedPercentage >= 100 {
		submissions, err = h.submissionRepo.ListByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			return certificate.Eligibility{}, fmt.Errorf("check_eligibility: load submissions: %w", err)
		}
	}

	return certificate.EvaluateEligibility(userID, courseID, record, submissions, h.clock.Now()), nil
}
