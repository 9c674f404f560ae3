package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

func TestUserPerformance(t *testing.T) {
	submissionRepo := newFakeSubmissionRepo()
	submissionRepo.put(&assessment.Submission{
		ID: "s1", UserID: "user-1", CourseID: "course-1",
		Percentage: 80, SubmittedAt: testNow.Add(-48 * time.Hour),
	})
	submissionRepo.put(&assessment.Submission{
		ID: "s2", UserID: "user-1", CourseID: "course-1",
		Percentage: 90, SubmittedAt: testNow,
	})

	handler := NewUserPerformanceHandler(submissionRepo)

	result, err := handler.Handle(context.Background(), UserPerformanceQuery{UserID: "user-1", CourseID: "course-1"})
	require.NoError(t, err)

	assert.Equal(t, 85, result.Knowledge)
	assert.Equal(t, 95, result.Consistency)
	assert.Equal(t, 30, result.Participation)
}

func TestUserPerformance_NoSubmissions(t *testing.T) {
	handler := NewUserPerformanceHandler(newFakeSubmissionRepo())

	_, err := handler.Handle(context.Background(), UserPerformanceQuery{UserID: "user-1", CourseID: "course-1"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetProgress(t *testing.T) {
	progressRepo := newFakeProgressRepo()
	progressRepo.put(&progress.Record{UserID: "user-1", CourseID: "course-1", CompletedPercentage: 75})

	handler := NewGetProgressHandler(progressRepo)

	record, err := handler.Handle(context.Background(), GetProgressQuery{UserID: "user-1", CourseID: "course-1"})
	require.NoError(t, err)
	assert.Equal(t, float64(75), record.CompletedPercentage)

	_, err = handler.Handle(context.Background(), GetProgressQuery{UserID: "user-1", CourseID: "missing"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
