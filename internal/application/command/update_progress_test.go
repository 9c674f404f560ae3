package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestUpdateProgress_FirstUpdate(t *testing.T) {
	repo := newFakeProgressRepo()
	publisher := &capturingPublisher{}
	handler := NewUpdateProgressHandler(repo, publisher, shared.NewFixedClock(testNow))

	result, err := handler.Handle(context.Background(), UpdateProgressCommand{
		UserID:             "user-1",
		CourseID:           "course-1",
		Percentage:         50,
		CompletedModuleIDs: []string{"m1", "m2"},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(50), result.Record.CompletedPercentage)
	assert.Len(t, result.NewMilestones, 2) // 25, 50; the 0 threshold is never newly crossed
	assert.False(t, result.CompletedNow)

	stored, err := repo.Get(context.Background(), "user-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, stored.CompletedModuleIDs)

	assert.Len(t, publisher.byType(shared.EventProgressUpdated), 1)
	assert.Len(t, publisher.byType(shared.EventMilestoneReached), 2)
	assert.Empty(t, publisher.byType(shared.EventCourseCompleted))
}

func TestUpdateProgress_CompletionPublishedOnce(t *testing.T) {
	repo := newFakeProgressRepo()
	publisher := &capturingPublisher{}
	handler := NewUpdateProgressHandler(repo, publisher, shared.NewFixedClock(testNow))

	_, err := handler.Handle(context.Background(), UpdateProgressCommand{
		UserID: "user-1", CourseID: "course-1", Percentage: 100,
	})
	require.NoError(t, err)
	second, err := handler.Handle(context.Background(), UpdateProgressCommand{
		UserID: "user-1", CourseID: "course-1", Percentage: 100,
	})
	require.NoError(t, err)

	assert.False(t, second.CompletedNow)
	assert.Len(t, publisher.byType(shared.EventCourseCompleted), 1)
}

func TestUpdateProgress_RegressionDropsMilestones(t *testing.T) {
	repo := newFakeProgressRepo()
	handler := NewUpdateProgressHandler(repo, nil, shared.NewFixedClock(testNow))

	_, err := handler.Handle(context.Background(), UpdateProgressCommand{
		UserID: "user-1", CourseID: "course-1", Percentage: 80,
	})
	require.NoError(t, err)

	result, err := handler.Handle(context.Background(), UpdateProgressCommand{
		UserID: "user-1", CourseID: "course-1", Percentage: 20,
	})
	require.NoError(t, err)

	assert.Empty(t, result.NewMilestones)
	thresholds := make([]int, 0, len(result.Record.MilestonesAchieved))
	for _, m := range result.Record.MilestonesAchieved {
		thresholds = append(thresholds, m.Threshold)
	}
	assert.Equal(t, []int{0}, thresholds)
}

func TestUpdateProgress_RejectsInvalidInput(t *testing.T) {
	handler := NewUpdateProgressHandler(newFakeProgressRepo(), nil, shared.NewFixedClock(testNow))

	_, err := handler.Handle(context.Background(), UpdateProgressCommand{
		UserID: "", CourseID: "course-1", Percentage: 50,
	})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), UpdateProgressCommand{
		UserID: "user-1", CourseID: "course-1", Percentage: 101,
	})
	assert.Error(t, err)
}

// Concurrent updates to the same pair must serialize: the stored module set
// ends up as the union of all updates, never a lost write.
func TestUpdateProgress_ConcurrentSamePair(t *testing.T) {
	repo := newFakeProgressRepo()
	handler := NewUpdateProgressHandler(repo, nil, shared.NewFixedClock(testNow))

	moduleIDs := []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8"}
	var wg sync.WaitGroup
	for _, id := range moduleIDs {
		wg.Add(1)
		go func(moduleID string) {
			defer wg.Done()
			_, err := handler.Handle(context.Background(), UpdateProgressCommand{
				UserID:             "user-1",
				CourseID:           "course-1",
				Percentage:         50,
				CompletedModuleIDs: []string{moduleID},
			})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	stored, err := repo.Get(context.Background(), "user-1", "course-1")
	require.NoError(t, err)
	assert.Len(t, stored.CompletedModuleIDs, len(moduleIDs))
}

func TestUpdateProgress_PreservesMilestoneTimestamps(t *testing.T) {
	repo := newFakeProgressRepo()
	clock := shared.NewFixedClock(testNow)
	handler := NewUpdateProgressHandler(repo, nil, clock)

	_, err := handler.Handle(context.Background(), UpdateProgressCommand{
		UserID: "user-1", CourseID: "course-1", Percentage: 50,
	})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	result, err := handler.Handle(context.Background(), UpdateProgressCommand{
		UserID: "user-1", CourseID: "course-1", Percentage: 75,
	})
	require.NoError(t, err)

	byThreshold := make(map[int]progress.Milestone)
	for _, m := range result.Record.MilestonesAchieved {
		byThreshold[m.Threshold] = m
	}
	assert.Equal(t, testNow, byThreshold[50].AchievedAt)
	assert.Equal(t, testNow.Add(time.Hour), byThreshold[75].AchievedAt)
}
