package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

var aggNow = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func record(userID string, pct float64, completed bool) *progress.Record {
	return &progress.Record{
		UserID:              shared.UserID(userID),
		CourseID:            "course-1",
		CompletedPercentage: pct,
		Completed:           completed,
		LastUpdatedAt:       aggNow,
	}
}

func submission(userID string, pct float64, passed bool) *assessment.Submission {
	return &assessment.Submission{
		ID:          "sub-" + userID,
		UserID:      shared.UserID(userID),
		CourseID:    "course-1",
		Percentage:  pct,
		Passed:      passed,
		SubmittedAt: aggNow,
	}
}

func TestAggregateCourse(t *testing.T) {
	records := []*progress.Record{
		record("u1", 100, true),
		record("u2", 50, false),
		record("u3", 30, false),
	}
	submissions := []*assessment.Submission{
		submission("u1", 95, true),
		submission("u1", 80, true),
		submission("u2", 40, false),
		submission("u3", 60, true),
	}

	a := AggregateCourse("course-1", records, submissions, aggNow)

	assert.Equal(t, 3, a.EnrollmentCount)
	assert.Equal(t, 60, a.AverageCompletion) // (100+50+30)/3
	assert.Equal(t, 1, a.CompletedCount)
	assert.Equal(t, 33, a.CompletionRate) // round(1/3*100)

	assert.Equal(t, 4, a.SubmissionsCount)
	assert.Equal(t, 3, a.PassedCount)
	assert.Equal(t, 75, a.PassRate)
	assert.Equal(t, 69, a.AverageScore) // round(275/4 = 68.75)
	assert.Equal(t, 70, a.MedianScore)  // (60+80)/2

	assert.Equal(t, ScoreDistribution{Excellent: 1, Good: 1, Average: 1, Poor: 1}, a.Distribution)
}

func TestAggregateCourse_Empty(t *testing.T) {
	a := AggregateCourse("course-1", nil, nil, aggNow)

	assert.Equal(t, 0, a.EnrollmentCount)
	assert.Equal(t, 0, a.AverageCompletion)
	assert.Equal(t, 0, a.CompletionRate)
	assert.Equal(t, 0, a.PassRate)
	assert.Equal(t, 0, a.MedianScore)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, float64(0), median(nil))
	assert.Equal(t, float64(5), median([]float64{5}))
	assert.Equal(t, float64(50), median([]float64{10, 50, 90}))
	assert.Equal(t, float64(45), median([]float64{90, 40, 10, 50}))
}

func TestDistribute_Boundaries(t *testing.T) {
	d := Distribute([]float64{90, 89.9, 75, 74.9, 50, 49.9, 0})
	assert.Equal(t, ScoreDistribution{Excellent: 1, Good: 2, Average: 2, Poor: 2}, d)
}

func TestAggregateUser(t *testing.T) {
	records := []*progress.Record{
		{UserID: "u1", CourseID: "course-b", CompletedPercentage: 100, Completed: true,
			MilestonesAchieved: progress.MilestonesFor(100, aggNow), LastUpdatedAt: aggNow},
		{UserID: "u1", CourseID: "course-a", CompletedPercentage: 40,
			MilestonesAchieved: progress.MilestonesFor(40, aggNow), LastUpdatedAt: aggNow},
	}
	submissions := []*assessment.Submission{
		submission("u1", 90, true),
		submission("u1", 70, true),
	}
	events := []*EngagementEvent{
		{UserID: "u1", Type: EngagementProgressUpdate, OccurredAt: aggNow.Add(-4 * 24 * time.Hour)},
		{UserID: "u1", Type: EngagementMilestoneReached, OccurredAt: aggNow.Add(-2 * 24 * time.Hour)},
	}

	a := AggregateUser("u1", records, submissions, events, aggNow)

	assert.Equal(t, 2, a.CoursesEnrolled)
	assert.Equal(t, 1, a.CoursesCompleted)
	// sorted by course id
	assert.Equal(t, "course-a", a.Courses[0].CourseID)
	assert.Equal(t, "course-b", a.Courses[1].CourseID)
	assert.Equal(t, 5, a.Courses[1].MilestonesAchieved)

	assert.Equal(t, 2, a.SubmissionsCount)
	assert.Equal(t, 80, a.AverageScore)
	assert.Equal(t, 90, a.BestScore)

	assert.Equal(t, 2, a.EngagementEvents)
	assert.InDelta(t, 0.5, a.EventsPerDay, 1e-9) // 2 events over 4 days
	assert.Equal(t, 2, a.ActiveDays)
}

func TestAggregateUser_FreshAccountEventsPerDay(t *testing.T) {
	events := []*EngagementEvent{
		{UserID: "u1", OccurredAt: aggNow.Add(-time.Hour)},
		{UserID: "u1", OccurredAt: aggNow.Add(-2 * time.Hour)},
	}

	a := AggregateUser("u1", nil, nil, events, aggNow)
	// floor of one day prevents division blow-up
	assert.InDelta(t, 2, a.EventsPerDay, 1e-9)
	assert.Equal(t, 1, a.ActiveDays)
}

func TestAggregatePlatform(t *testing.T) {
	completed := map[shared.CourseID]int{
		"course-a": 5,
		"course-b": 9,
		"course-c": 2,
	}
	enrollments := map[shared.CourseID]int{
		"course-a": 10,
		"course-b": 10,
		"course-c": 12,
	}

	a := AggregatePlatform(20, 100, 14, completed, enrollments, 2, aggNow)

	assert.Equal(t, 20, a.TotalLearners)
	assert.Equal(t, 3, a.TotalCourses)
	assert.Equal(t, 100, a.TotalSubmissions)
	assert.Equal(t, 14, a.TotalCertificates)
	assert.Equal(t, 50, a.OverallCompletionRate) // 16/32

	assert.Len(t, a.TopCompletedCourses, 2)
	assert.Equal(t, "course-b", a.TopCompletedCourses[0].CourseID)
	assert.Equal(t, "course-a", a.TopCompletedCourses[1].CourseID)
}

func TestAggregatePlatform_Empty(t *testing.T) {
	a := AggregatePlatform(0, 0, 0, nil, nil, 0, aggNow)
	assert.Equal(t, 0, a.OverallCompletionRate)
	assert.Empty(t, a.TopCompletedCourses)
}

func TestSnapshotFreshness(t *testing.T) {
	s := &Snapshot{CourseID: "course-1", LastUpdated: aggNow.Add(-30 * time.Minute)}

	assert.True(t, s.IsFresh(aggNow, SnapshotMaxAge))
	assert.False(t, s.IsFresh(aggNow.Add(31*time.Minute), SnapshotMaxAge))
	assert.Equal(t, 30*time.Minute, s.Age(aggNow))
}
