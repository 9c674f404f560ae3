package query

import (
	"context"
	"fmt"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/evaluation"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER PERFORMANCE QUERY
// Derives the weighted knowledge/consistency/participation score from a
// user's submission history in one course.
// ══════════════════════════════════════════════════════════════════════════════

// UserPerformanceQuery identifies the (user, course) pair to evaluate.
type UserPerformanceQuery struct {
	UserID   string
	CourseID string
}

// Validate validates the query.
func (q UserPerformanceQuery) Validate() error {
	if !shared.UserID(q.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if !shared.CourseID(q.CourseID).IsValid() {
		return shared.ErrInvalidCourseID
	}
	return nil
}

// UserPerformanceHandler handles the UserPerformanceQuery.
type UserPerformanceHandler struct {
	submissionRepo assessment.Repository
}

// NewUserPerformanceHandler creates a new UserPerformanceHandler.
func NewUserPerformanceHandler(submissionRepo assessment.Repository) *UserPerformanceHandler {
	return &UserPerformanceHandler{submissionRepo: submissionRepo}
}

// Handle evaluates the user's performance over their submission history.
// A user without submissions surfaces the scoring model's "no data" error.
func (h *UserPerformanceHandler) Handle(ctx context.Context, q UserPerformanceQuery) (evaluation.UserPerformanceResult, error) {
	if err := q.Validate(); err != nil {
		return evaluation.UserPerformanceResult{}, fmt.Errorf("user_performance: %w", err)
	}

	submissions, err := h.submissionRepo.ListByUserAndCourse(ctx, shared.UserID(q.UserID), shared.CourseID(q.CourseID))
	if err != nil {
		return evaluation.UserPerformanceResult{}, fmt.Errorf("user_performance: load submissions: %w", err)
	}

	samples := make([]evaluation.SubmissionSample, 0, len(submissions))
	for _, s := range submissions {
		samples = append(samples, evaluation.SubmissionSample{
			Percentage:  s.Percentage,
			SubmittedAt: s.SubmittedAt,
		})
	}

	result, err := evaluation.EvaluateUserPerformance(q.UserID, q.CourseID, samples)
	if err != nil {
		return evaluation.UserPerformanceResult{}, fmt.Errorf("user_performance: %w", err)
	}
	return result, nil
}
