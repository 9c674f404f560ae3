package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

func TestEvaluateAssessment(t *testing.T) {
	submissionRepo := newFakeSubmissionRepo()
	resultRepo := &fakeResultRepo{}
	publisher := &capturingPublisher{}
	require.NoError(t, submissionRepo.Create(context.Background(), &assessment.Submission{
		ID: "sub-1", UserID: "user-1", CourseID: "course-1",
		Score: 46, TotalScore: 50, Percentage: 92,
	}))

	handler := NewEvaluateAssessmentHandler(submissionRepo, resultRepo, publisher, shared.NewFixedClock(testNow), nil)

	result, err := handler.Handle(context.Background(), EvaluateAssessmentCommand{SubmissionID: "sub-1"})
	require.NoError(t, err)

	assert.True(t, result.Evaluation.PassFail.Passed)
	assert.Equal(t, "PASSED", result.Evaluation.PassFail.Status)
	assert.Equal(t, "A", result.Evaluation.PerformanceGrade.Grade)
	assert.Equal(t, "ADVANCED", result.Evaluation.Competency.Level)
	assert.Equal(t, testNow, result.Evaluation.EvaluatedAt)
	assert.True(t, result.AuditRecorded)

	require.Len(t, resultRepo.records, 1)
	assert.Equal(t, "A", resultRepo.records[0].Grade)
	assert.Len(t, publisher.byType(shared.EventSubmissionEvaluated), 1)
}

func TestEvaluateAssessment_CustomPassingScore(t *testing.T) {
	submissionRepo := newFakeSubmissionRepo()
	require.NoError(t, submissionRepo.Create(context.Background(), &assessment.Submission{
		ID: "sub-1", UserID: "user-1", CourseID: "course-1", Percentage: 60,
	}))

	handler := NewEvaluateAssessmentHandler(submissionRepo, nil, nil, shared.NewFixedClock(testNow), nil)

	result, err := handler.Handle(context.Background(), EvaluateAssessmentCommand{
		SubmissionID: "sub-1",
		PassingScore: 70,
	})
	require.NoError(t, err)
	assert.False(t, result.Evaluation.PassFail.Passed)
	assert.Equal(t, "FAILED", result.Evaluation.PassFail.Status)
}

func TestEvaluateAssessment_AuditFailureDegrades(t *testing.T) {
	submissionRepo := newFakeSubmissionRepo()
	resultRepo := &fakeResultRepo{fail: true}
	require.NoError(t, submissionRepo.Create(context.Background(), &assessment.Submission{
		ID: "sub-1", UserID: "user-1", CourseID: "course-1", Percentage: 75,
	}))

	handler := NewEvaluateAssessmentHandler(submissionRepo, resultRepo, nil, shared.NewFixedClock(testNow), nil)

	result, err := handler.Handle(context.Background(), EvaluateAssessmentCommand{SubmissionID: "sub-1"})
	require.NoError(t, err)
	assert.False(t, result.AuditRecorded)
	assert.True(t, result.Evaluation.PassFail.Passed)
}

func TestEvaluateAssessment_UnknownSubmission(t *testing.T) {
	handler := NewEvaluateAssessmentHandler(newFakeSubmissionRepo(), nil, nil, shared.NewFixedClock(testNow), nil)

	_, err := handler.Handle(context.Background(), EvaluateAssessmentCommand{SubmissionID: "missing"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestReviewSubmission(t *testing.T) {
	submissionRepo := newFakeSubmissionRepo()
	require.NoError(t, submissionRepo.Create(context.Background(), &assessment.Submission{
		ID: "sub-1", UserID: "user-1", CourseID: "course-1",
		SubmissionText: "my essay", Status: assessment.StatusSubmitted,
	}))

	handler := NewReviewSubmissionHandler(submissionRepo, nil, shared.NewFixedClock(testNow))

	reviewed, err := handler.Handle(context.Background(), ReviewSubmissionCommand{
		SubmissionID: "sub-1",
		Score:        18,
		Percentage:   90,
		Passed:       true,
		Feedback:     "well argued",
	})
	require.NoError(t, err)

	assert.Equal(t, assessment.StatusReviewed, reviewed.Status)
	assert.Equal(t, float64(90), reviewed.Percentage)
	assert.True(t, reviewed.Passed)
	assert.Equal(t, "well argued", reviewed.Feedback)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, testNow, *reviewed.ReviewedAt)
	// Original payload untouched.
	assert.Equal(t, "my essay", reviewed.SubmissionText)

	stored, err := submissionRepo.GetByID(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, assessment.StatusReviewed, stored.Status)
}

func TestRecordEngagement(t *testing.T) {
	repo := &fakeEngagementRepo{}
	handler := NewRecordEngagementHandler(repo, shared.NewFixedClock(testNow))

	event, err := handler.Handle(context.Background(), RecordEngagementCommand{
		UserID:   "user-1",
		CourseID: "course-1",
		Type:     "progress_update",
		Metadata: map[string]string{"percentage": "50"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, testNow, event.OccurredAt)
	require.Len(t, repo.events, 1)

	_, err = handler.Handle(context.Background(), RecordEngagementCommand{UserID: "", Type: "x"})
	assert.Error(t, err)
}
