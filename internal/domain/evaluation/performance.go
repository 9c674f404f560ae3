package evaluation

import (
	"sort"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// Weights of the three user-performance criteria.
const (
	knowledgeWeight     = 0.5
	consistencyWeight   = 0.3
	participationWeight = 0.2
)

// frequentSubmissionGap is the mean inter-submission gap under which the
// participation score earns its frequency bonus.
const frequentSubmissionGap = 7 * 24 * time.Hour

// SubmissionSample is the slice of an assessment submission the performance
// evaluation needs. Keeping it local avoids coupling the pure engine to the
// assessment record set.
type SubmissionSample struct {
	Percentage  float64
	SubmittedAt time.Time
}

// UserPerformanceResult is the outcome of a whole-course performance evaluation.
type UserPerformanceResult struct {
	UserID           string              `json:"user_id"`
	CourseID         string              `json:"course_id"`
	SubmissionsCount int                 `json:"submissions_count"`
	Knowledge        int                 `json:"knowledge"`
	Consistency      int                 `json:"consistency"`
	Participation    int                 `json:"participation"`
	Evaluation       MultiCriteriaResult `json:"evaluation"`
}

// EvaluateUserPerformance builds the three-criteria performance profile for a
// user's submissions in one course:
//
//	knowledge     = round(mean(percentage))                weight 0.5
//	consistency   = max(0, 100 − populationStdDev(pct))    weight 0.3
//	participation = min(count×10, 100) + frequency bonus   weight 0.2
//
// The frequency bonus is 10 when the mean gap between consecutive
// submissions is under seven days. Returns shared.ErrNoSubmissions when
// submissions is empty.
func EvaluateUserPerformance(userID, courseID string, submissions []SubmissionSample) (UserPerformanceResult, error) {
	if len(submissions) == 0 {
		return UserPerformanceResult{}, shared.WrapError("evaluation", "EvaluateUserPerformance",
			shared.ErrNotFound, "no data", shared.ErrNoSubmissions)
	}

	percentages := make([]float64, len(submissions))
	for i, s := range submissions {
		percentages[i] = s.Percentage
	}

	knowledge := shared.RoundHalfUp(shared.Mean(percentages))

	consistency := shared.RoundHalfUp(100 - shared.PopulationStdDev(percentages))
	if consistency < 0 {
		consistency = 0
	}

	participation := len(submissions) * 10
	if participation > 100 {
		participation = 100
	}
	if submitsFrequently(submissions) {
		participation += 10
	}

	result := MultiCriteria(map[string]Criterion{
		"knowledge":     {Score: float64(knowledge), Weight: knowledgeWeight},
		"consistency":   {Score: float64(consistency), Weight: consistencyWeight},
		"participation": {Score: float64(participation), Weight: participationWeight},
	})

	return UserPerformanceResult{
		UserID:           userID,
		CourseID:         courseID,
		SubmissionsCount: len(submissions),
		Knowledge:        knowledge,
		Consistency:      consistency,
		Participation:    participation,
		Evaluation:       result,
	}, nil
}

// submitsFrequently reports whether the mean gap between consecutive
// submissions (in chronological order) is under frequentSubmissionGap.
// A single submission has no gaps and earns no bonus.
func submitsFrequently(submissions []SubmissionSample) bool {
	if len(submissions) < 2 {
		return false
	}

	times := make([]time.Time, len(submissions))
	for i, s := range submissions {
		times[i] = s.SubmittedAt
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var total time.Duration
	for i := 1; i < len(times); i++ {
		total += times[i].Sub(times[i-1])
	}
	mean := total / time.Duration(len(times)-1)
	return mean < frequentSubmissionGap
}

// Result is a derived evaluation of one submission, optionally persisted for
// audit. It is never a source of truth.
type Result struct {
	SubmissionID     string           `json:"submission_id"`
	UserID           string           `json:"user_id"`
	CourseID         string           `json:"course_id"`
	PassFail         PassFailResult   `json:"pass_fail"`
	PerformanceGrade GradeResult      `json:"performance_grade"`
	Competency       CompetencyResult `json:"competency"`
	EvaluatedAt      time.Time        `json:"evaluated_at"`
}
