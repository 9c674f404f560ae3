// Package analytics contains the derived rollup types, the aggregation math
// that produces them from raw record collections, the persisted snapshot
// model, and the cache contract for optimized read paths.
package analytics

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLLUP TYPES
// ══════════════════════════════════════════════════════════════════════════════

// ScoreDistribution buckets submission percentages into quality bands.
type ScoreDistribution struct {
	// Excellent counts percentages >= 90.
	Excellent int `json:"excellent"`

	// Good counts percentages in [75, 90).
	Good int `json:"good"`

	// Average counts percentages in [50, 75).
	Average int `json:"average"`

	// Poor counts percentages < 50.
	Poor int `json:"poor"`
}

// CourseAnalytics is the per-course rollup.
type CourseAnalytics struct {
	CourseID string `json:"course_id"`

	// Enrollment and completion, from progress records.
	EnrollmentCount   int `json:"enrollment_count"`
	AverageCompletion int `json:"average_completion"`
	CompletedCount    int `json:"completed_count"`
	CompletionRate    int `json:"completion_rate"`

	// Assessment outcomes, from submissions.
	SubmissionsCount int               `json:"submissions_count"`
	PassedCount      int               `json:"passed_count"`
	PassRate         int               `json:"pass_rate"`
	AverageScore     int               `json:"average_score"`
	MedianScore      int               `json:"median_score"`
	Distribution     ScoreDistribution `json:"distribution"`

	ComputedAt time.Time `json:"computed_at"`
}

// CourseProgressSummary is one course's slice of a user rollup.
type CourseProgressSummary struct {
	CourseID            string    `json:"course_id"`
	CompletedPercentage float64   `json:"completed_percentage"`
	Completed           bool      `json:"completed"`
	MilestonesAchieved  int       `json:"milestones_achieved"`
	LastUpdatedAt       time.Time `json:"last_updated_at"`
}

// UserAnalytics is the per-user rollup across courses.
type UserAnalytics struct {
	UserID string `json:"user_id"`

	// Progress, from progress records.
	CoursesEnrolled  int                     `json:"courses_enrolled"`
	CoursesCompleted int                     `json:"courses_completed"`
	Courses          []CourseProgressSummary `json:"courses"`

	// Assessments, from submissions.
	SubmissionsCount int `json:"submissions_count"`
	PassedCount      int `json:"passed_count"`
	AverageScore     int `json:"average_score"`
	BestScore        int `json:"best_score"`

	// Engagement, from engagement events.
	EngagementEvents int     `json:"engagement_events"`
	EventsPerDay     float64 `json:"events_per_day"`
	ActiveDays       int     `json:"active_days"`

	ComputedAt time.Time `json:"computed_at"`
}

// TopCourse is one entry of the platform rollup's top-completed list.
type TopCourse struct {
	CourseID       string `json:"course_id"`
	CompletedCount int    `json:"completed_count"`
}

// PlatformAnalytics is the platform-wide rollup.
type PlatformAnalytics struct {
	TotalLearners         int         `json:"total_learners"`
	TotalCourses          int         `json:"total_courses"`
	TotalSubmissions      int         `json:"total_submissions"`
	TotalCertificates     int         `json:"total_certificates"`
	OverallCompletionRate int         `json:"overall_completion_rate"`
	TopCompletedCourses   []TopCourse `json:"top_completed_courses"`
	ComputedAt            time.Time   `json:"computed_at"`
}
