package analytics

import (
	"sort"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
	"github.com/learnforge/learnforge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION MATH
// Pure computations over raw record collections. Every percentage output is
// rounded half-up; every rate degrades to 0 on a zero denominator.
// ══════════════════════════════════════════════════════════════════════════════

// AggregateCourse computes the per-course rollup from the course's raw
// progress records and submissions.
func AggregateCourse(courseID string, records []*progress.Record, submissions []*assessment.Submission, now time.Time) CourseAnalytics {
	a := CourseAnalytics{
		CourseID:   courseID,
		ComputedAt: now,
	}

	a.EnrollmentCount = len(records)
	var completionSum float64
	for _, r := range records {
		completionSum += r.CompletedPercentage
		if r.Completed {
			a.CompletedCount++
		}
	}
	if len(records) > 0 {
		a.AverageCompletion = shared.RoundHalfUp(completionSum / float64(len(records)))
	}
	a.CompletionRate = shared.SafeRate(a.CompletedCount, a.EnrollmentCount)

	a.SubmissionsCount = len(submissions)
	percentages := make([]float64, 0, len(submissions))
	for _, s := range submissions {
		percentages = append(percentages, s.Percentage)
		if s.Passed {
			a.PassedCount++
		}
	}
	a.PassRate = shared.SafeRate(a.PassedCount, a.SubmissionsCount)
	if len(percentages) > 0 {
		a.AverageScore = shared.RoundHalfUp(shared.Mean(percentages))
	}
	a.MedianScore = shared.RoundHalfUp(median(percentages))
	a.Distribution = Distribute(percentages)

	return a
}

// Distribute buckets percentages into the score distribution bands.
func Distribute(percentages []float64) ScoreDistribution {
	var d ScoreDistribution
	for _, p := range percentages {
		switch {
		case p >= 90:
			d.Excellent++
		case p >= 75:
			d.Good++
		case p >= 50:
			d.Average++
		default:
			d.Poor++
		}
	}
	return d
}

// median returns the sorted-midpoint median: the middle value for odd
// lengths, the mean of the two middle values for even lengths, 0 for empty.
func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// AggregateUser computes the per-user rollup from the user's raw records
// across courses.
func AggregateUser(userID string, records []*progress.Record, submissions []*assessment.Submission, events []*EngagementEvent, now time.Time) UserAnalytics {
	a := UserAnalytics{
		UserID:     userID,
		ComputedAt: now,
	}

	a.CoursesEnrolled = len(records)
	a.Courses = make([]CourseProgressSummary, 0, len(records))
	for _, r := range records {
		if r.Completed {
			a.CoursesCompleted++
		}
		a.Courses = append(a.Courses, CourseProgressSummary{
			CourseID:            r.CourseID.String(),
			CompletedPercentage: r.CompletedPercentage,
			Completed:           r.Completed,
			MilestonesAchieved:  len(r.MilestonesAchieved),
			LastUpdatedAt:       r.LastUpdatedAt,
		})
	}
	sort.Slice(a.Courses, func(i, j int) bool {
		return a.Courses[i].CourseID < a.Courses[j].CourseID
	})

	a.SubmissionsCount = len(submissions)
	percentages := make([]float64, 0, len(submissions))
	var best float64
	for _, s := range submissions {
		percentages = append(percentages, s.Percentage)
		if s.Passed {
			a.PassedCount++
		}
		if s.Percentage > best {
			best = s.Percentage
		}
	}
	if len(percentages) > 0 {
		a.AverageScore = shared.RoundHalfUp(shared.Mean(percentages))
		a.BestScore = shared.RoundHalfUp(best)
	}

	a.EngagementEvents = len(events)
	a.EventsPerDay = eventsPerDay(events, now)
	a.ActiveDays = activeDays(events)

	return a
}

// eventsPerDay is the event count divided by the whole days between the
// earliest event and now, with a one-day floor so a fresh account is not
// divided by zero.
func eventsPerDay(events []*EngagementEvent, now time.Time) float64 {
	if len(events) == 0 {
		return 0
	}
	earliest := events[0].OccurredAt
	for _, e := range events[1:] {
		if e.OccurredAt.Before(earliest) {
			earliest = e.OccurredAt
		}
	}
	days := timeutil.DaysBetween(earliest, now)
	if days < 1 {
		days = 1
	}
	return float64(len(events)) / float64(days)
}

// activeDays counts the distinct UTC days carrying at least one event.
func activeDays(events []*EngagementEvent) int {
	days := make(map[string]struct{}, len(events))
	for _, e := range events {
		days[timeutil.FormatDate(e.OccurredAt)] = struct{}{}
	}
	return len(days)
}

// AggregatePlatform computes the platform-wide rollup.
//
// completedByCourse is the per-course completed-record count; totals come
// from the corresponding record sets. topN limits the top-completed list
// (values < 1 default to 5).
func AggregatePlatform(
	totalLearners, totalSubmissions, totalCertificates int,
	completedByCourse map[shared.CourseID]int,
	enrollmentsByCourse map[shared.CourseID]int,
	topN int,
	now time.Time,
) PlatformAnalytics {
	if topN < 1 {
		topN = 5
	}

	a := PlatformAnalytics{
		TotalLearners:     totalLearners,
		TotalCourses:      len(enrollmentsByCourse),
		TotalSubmissions:  totalSubmissions,
		TotalCertificates: totalCertificates,
		ComputedAt:        now,
	}

	var totalEnrollments, totalCompleted int
	for _, n := range enrollmentsByCourse {
		totalEnrollments += n
	}
	top := make([]TopCourse, 0, len(completedByCourse))
	for courseID, n := range completedByCourse {
		totalCompleted += n
		top = append(top, TopCourse{CourseID: courseID.String(), CompletedCount: n})
	}
	a.OverallCompletionRate = shared.SafeRate(totalCompleted, totalEnrollments)

	sort.Slice(top, func(i, j int) bool {
		if top[i].CompletedCount != top[j].CompletedCount {
			return top[i].CompletedCount > top[j].CompletedCount
		}
		return top[i].CourseID < top[j].CourseID
	})
	if len(top) > topN {
		top = top[:topN]
	}
	a.TopCompletedCourses = top

	return a
}
