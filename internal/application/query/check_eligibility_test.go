package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newEligibilityHandler(progressRepo *fakeProgressRepo, submissionRepo *fakeSubmissionRepo) *CheckEligibilityHandler {
	return NewCheckEligibilityHandler(progressRepo, submissionRepo, shared.NewFixedClock(testNow))
}

func TestCheckEligibility_GateOrder(t *testing.T) {
	progressRepo := newFakeProgressRepo()
	submissionRepo := newFakeSubmissionRepo()
	handler := newEligibilityHandler(progressRepo, submissionRepo)
	ctx := context.Background()

	// Gate 1: no record at all.
	e, err := handler.Handle(ctx, CheckEligibilityQuery{UserID: "user-1", CourseID: "course-1"})
	require.NoError(t, err)
	assert.False(t, e.Eligible)
	assert.Equal(t, "no progress record", e.Reason)

	// Gate 2: incomplete course.
	progressRepo.put(&progress.Record{UserID: "user-1", CourseID: "course-1", CompletedPercentage: 40})
	e, err = handler.Handle(ctx, CheckEligibilityQuery{UserID: "user-1", CourseID: "course-1"})
	require.NoError(t, err)
	assert.False(t, e.Eligible)
	assert.Contains(t, e.Reason, "40% complete")

	// Gate 3: complete but no submissions.
	progressRepo.put(&progress.Record{UserID: "user-1", CourseID: "course-1", CompletedPercentage: 100, LastUpdatedAt: testNow})
	e, err = handler.Handle(ctx, CheckEligibilityQuery{UserID: "user-1", CourseID: "course-1"})
	require.NoError(t, err)
	assert.False(t, e.Eligible)
	assert.Equal(t, "no submissions", e.Reason)

	// Gate 4: a failed submission blocks.
	submissionRepo.put(&assessment.Submission{ID: "s1", UserID: "user-1", CourseID: "course-1", Percentage: 30, Passed: false})
	e, err = handler.Handle(ctx, CheckEligibilityQuery{UserID: "user-1", CourseID: "course-1"})
	require.NoError(t, err)
	assert.False(t, e.Eligible)
	assert.Equal(t, 1, e.FailedCount)

	// All gates pass.
	submissionRepo.put(&assessment.Submission{ID: "s1", UserID: "user-1", CourseID: "course-1", Percentage: 90, Passed: true})
	submissionRepo.put(&assessment.Submission{ID: "s2", UserID: "user-1", CourseID: "course-1", Percentage: 80, Passed: true})
	e, err = handler.Handle(ctx, CheckEligibilityQuery{UserID: "user-1", CourseID: "course-1"})
	require.NoError(t, err)
	assert.True(t, e.Eligible)
	assert.Equal(t, 85, e.FinalScore)
	assert.Equal(t, 2, e.AssessmentsPassed)
	assert.Equal(t, testNow, e.CompletionDate)
}

func TestCheckEligibility_InvalidInput(t *testing.T) {
	handler := newEligibilityHandler(newFakeProgressRepo(), newFakeSubmissionRepo())

	_, err := handler.Handle(context.Background(), CheckEligibilityQuery{UserID: "", CourseID: "c"})
	assert.Error(t, err)
	_, err = handler.Handle(context.Background(), CheckEligibilityQuery{UserID: "u", CourseID: ""})
	assert.Error(t, err)
}

func TestBulkCheckEligibility(t *testing.T) {
	progressRepo := newFakeProgressRepo()
	submissionRepo := newFakeSubmissionRepo()
	handler := NewBulkCheckEligibilityHandler(newEligibilityHandler(progressRepo, submissionRepo))

	// 12 users: evens fully eligible, odds stuck at 50%.
	userIDs := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		userID := fmt.Sprintf("user-%02d", i)
		userIDs = append(userIDs, userID)
		pct := 50.0
		if i%2 == 0 {
			pct = 100
			submissionRepo.put(&assessment.Submission{
				ID: "sub-" + userID, UserID: shared.UserID(userID), CourseID: "course-1",
				Percentage: 80, Passed: true,
			})
		}
		progressRepo.put(&progress.Record{
			UserID: shared.UserID(userID), CourseID: "course-1",
			CompletedPercentage: pct, LastUpdatedAt: testNow,
		})
	}

	result, err := handler.Handle(context.Background(), BulkCheckEligibilityQuery{
		CourseID: "course-1",
		UserIDs:  userIDs,
	})
	require.NoError(t, err)

	assert.Len(t, result.Eligible, 6)
	assert.Len(t, result.Ineligible, 6)

	// Every input appears exactly once across the two partitions.
	seen := make(map[string]int)
	for _, e := range result.Eligible {
		seen[string(e.UserID)]++
	}
	for _, e := range result.Ineligible {
		seen[string(e.UserID)]++
	}
	require.Len(t, seen, 12)
	for userID, n := range seen {
		assert.Equal(t, 1, n, "user %s", userID)
	}
}

func TestBulkCheckEligibility_DedupsInput(t *testing.T) {
	progressRepo := newFakeProgressRepo()
	handler := NewBulkCheckEligibilityHandler(newEligibilityHandler(progressRepo, newFakeSubmissionRepo()))

	result, err := handler.Handle(context.Background(), BulkCheckEligibilityQuery{
		CourseID: "course-1",
		UserIDs:  []string{"user-1", "user-1", "user-2", ""},
	})
	require.NoError(t, err)
	assert.Len(t, result.Ineligible, 2)
	assert.Empty(t, result.Eligible)
}

func TestBulkCheckEligibility_StoreFailureIsNotIneligible(t *testing.T) {
	progressRepo := newFakeProgressRepo()
	submissionRepo := newFakeSubmissionRepo()
	handler := NewBulkCheckEligibilityHandler(newEligibilityHandler(progressRepo, submissionRepo))

	progressRepo.put(&progress.Record{
		UserID: "user-1", CourseID: "course-1",
		CompletedPercentage: 50, LastUpdatedAt: testNow,
	})
	progressRepo.failGet("user-2", shared.ErrUpstreamStore)

	result, err := handler.Handle(context.Background(), BulkCheckEligibilityQuery{
		CourseID: "course-1",
		UserIDs:  []string{"user-1", "user-2"},
	})
	require.NoError(t, err)

	// user-1 is a business outcome; user-2 is an unknown, not an ineligible.
	assert.Len(t, result.Ineligible, 1)
	assert.Equal(t, "user-1", string(result.Ineligible[0].UserID))
	require.Len(t, result.Errored, 1)
	assert.Equal(t, "user-2", result.Errored[0].UserID)
	assert.Contains(t, result.Errored[0].Error, shared.ErrUpstreamStore.Error())
	assert.Empty(t, result.Eligible)
}

func TestBulkCheckEligibility_EmptyInput(t *testing.T) {
	handler := NewBulkCheckEligibilityHandler(newEligibilityHandler(newFakeProgressRepo(), newFakeSubmissionRepo()))

	_, err := handler.Handle(context.Background(), BulkCheckEligibilityQuery{CourseID: "course-1"})
	assert.Error(t, err)
}
