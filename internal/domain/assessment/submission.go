// Package assessment contains the assessment submission domain model and its
// repository contract. Submissions are immutable once created except for the
// trainer review fields, which may be patched later.
package assessment

import (
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// Submission statuses.
const (
	StatusSubmitted = "SUBMITTED"
	StatusReviewed  = "REVIEWED"
)

// Submission is one assessment attempt by a user in a course.
// A submission is either score-based (quiz-like, Score/TotalScore set) or
// assignment-like (SubmissionText/SubmissionURL set, scored at review time).
type Submission struct {
	ID           string          `json:"id"`
	UserID       shared.UserID   `json:"user_id"`
	CourseID     shared.CourseID `json:"course_id"`
	AssessmentID string          `json:"assessment_id"`

	// Scoring. Percentage is Score/TotalScore*100 for quiz-like submissions
	// and is set by the trainer review for assignment-like ones.
	Score      float64 `json:"score"`
	TotalScore float64 `json:"total_score"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`

	// Assignment-like payload.
	SubmissionText string `json:"submission_text,omitempty"`
	SubmissionURL  string `json:"submission_url,omitempty"`

	// Trainer review fields: the only mutable part of a submission.
	Status     string     `json:"status"`
	Feedback   string     `json:"feedback,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// Validate checks the submission's invariants.
func (s *Submission) Validate() error {
	if s.ID == "" {
		return shared.ErrInvalidID
	}
	if !s.UserID.IsValid() {
		return shared.ErrInvalidUserID
	}
	if !s.CourseID.IsValid() {
		return shared.ErrInvalidCourseID
	}
	if s.Percentage < 0 || s.Percentage > 100 {
		return shared.ErrInvalidScore
	}
	return nil
}

// Review is a trainer's patch of a submission's mutable fields.
type Review struct {
	Score      float64
	Percentage float64
	Passed     bool
	Feedback   string
}

// ApplyReview patches the mutable review fields. The submission's identity
// and original payload stay untouched.
func (s *Submission) ApplyReview(r Review, at time.Time) {
	s.Score = r.Score
	s.Percentage = r.Percentage
	s.Passed = r.Passed
	s.Feedback = r.Feedback
	s.Status = StatusReviewed
	s.ReviewedAt = &at
}
