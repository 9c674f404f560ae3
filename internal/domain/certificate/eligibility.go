package certificate

import (
	"fmt"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY GATE
// ══════════════════════════════════════════════════════════════════════════════

// Eligibility is the structured outcome of a certificate eligibility check.
// An ineligible result is a normal business outcome, never an error: it
// always carries a human-readable reason and the supporting numbers.
type Eligibility struct {
	UserID   shared.UserID   `json:"user_id"`
	CourseID shared.CourseID `json:"course_id"`

	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`

	// Supporting data, populated as far as the gate got.
	CourseCompletion  float64   `json:"course_completion"`
	FinalScore        int       `json:"final_score"`
	AssessmentsPassed int       `json:"assessments_passed"`
	FailedCount       int       `json:"failed_count"`
	CompletionDate    time.Time `json:"completion_date,omitempty"`

	CheckedAt time.Time `json:"checked_at"`
}

// EvaluateEligibility runs the sequential certificate gate over the loaded
// records. The gates short-circuit in order:
//
//  1. no progress record
//  2. course not 100% complete
//  3. no assessment submissions
//  4. any failed submission
//
// When all gates pass, the final score is the rounded mean of submission
// percentages and the completion date is the progress record's last update.
// record may be nil (gate 1); the caller maps a store not-found to nil.
func EvaluateEligibility(userID shared.UserID, courseID shared.CourseID, record *progress.Record, submissions []*assessment.Submission, now time.Time) Eligibility {
	e := Eligibility{
		UserID:    userID,
		CourseID:  courseID,
		CheckedAt: now,
	}

	if record == nil {
		e.Reason = "no progress record"
		return e
	}
	e.CourseCompletion = record.CompletedPercentage

	if record.CompletedPercentage < 100 {
		e.Reason = fmt.Sprintf("course is only %.0f%% complete", record.CompletedPercentage)
		return e
	}

	if len(submissions) == 0 {
		e.Reason = "no submissions"
		return e
	}

	percentages := make([]float64, 0, len(submissions))
	for _, s := range submissions {
		percentages = append(percentages, s.Percentage)
		if !s.Passed {
			e.FailedCount++
		}
	}
	if e.FailedCount > 0 {
		e.Reason = fmt.Sprintf("%d assessment(s) not passed", e.FailedCount)
		return e
	}

	e.Eligible = true
	e.FinalScore = shared.RoundHalfUp(shared.Mean(percentages))
	e.AssessmentsPassed = len(submissions)
	e.CompletionDate = record.LastUpdatedAt
	return e
}

// GeneratedBy identifies this engine in certificate metadata.
const GeneratedBy = "learnforge-metrics-engine"

// MetadataVersion is the certificate layout version stamped into metadata.
const MetadataVersion = "1.0"

// New builds an ACTIVE certificate from a passing eligibility result.
// ValidUntil is exactly the issue date plus the validity period.
func New(id string, e Eligibility, courseName, userName string, now time.Time) *Certificate {
	return &Certificate{
		ID:                id,
		UserID:            e.UserID,
		CourseID:          e.CourseID,
		CourseName:        courseName,
		UserName:          userName,
		CompletionDate:    e.CompletionDate,
		IssuedDate:        now,
		Status:            StatusActive,
		CourseCompletion:  e.CourseCompletion,
		FinalScore:        e.FinalScore,
		AssessmentsPassed: e.AssessmentsPassed,
		ValidUntil:        now.Add(ValidityPeriod),
		Metadata: Metadata{
			GeneratedBy:          GeneratedBy,
			Version:              MetadataVersion,
			CourseCompletionDate: e.CompletionDate,
		},
	}
}
