// Package evaluation implements the scoring and grading engine.
// Every function here is pure: no I/O, no clock, no store access.
// Results are derived data only and are never a source of truth.
package evaluation

import (
	"sort"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PASS / FAIL
// ══════════════════════════════════════════════════════════════════════════════

// DefaultPassingScore is the passing threshold used when the caller does not
// supply one.
const DefaultPassingScore = 50.0

// PassFailResult is the outcome of a pass/fail evaluation.
type PassFailResult struct {
	Passed           bool    `json:"passed"`
	Status           string  `json:"status"`
	Score            float64 `json:"score"`
	PassingScore     float64 `json:"passing_score"`
	PerformanceLevel string  `json:"performance_level"`
}

// PassFail evaluates a score against a passing threshold.
// A score equal to the passing score passes.
func PassFail(score, passingScore float64) PassFailResult {
	passed := score >= passingScore
	status := "FAILED"
	if passed {
		status = "PASSED"
	}
	return PassFailResult{
		Passed:           passed,
		Status:           status,
		Score:            score,
		PassingScore:     passingScore,
		PerformanceLevel: Competency(score).Level,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LETTER GRADES
// ══════════════════════════════════════════════════════════════════════════════

// GradeBucket is one band of the letter-grade scale.
type GradeBucket struct {
	Letter      string
	MinScore    float64
	Description string
}

// gradeScale is evaluated highest-first; the first bucket whose lower bound
// the score reaches wins. The F bucket's 0 lower bound is the catch-all,
// so every score maps to some grade by construction.
var gradeScale = []GradeBucket{
	{Letter: "A", MinScore: 90, Description: "Excellent"},
	{Letter: "B", MinScore: 80, Description: "Good"},
	{Letter: "C", MinScore: 70, Description: "Satisfactory"},
	{Letter: "D", MinScore: 60, Description: "Needs Improvement"},
	{Letter: "F", MinScore: 0, Description: "Fail"},
}

// GradeResult is the outcome of a letter-grade evaluation.
type GradeResult struct {
	Grade       string  `json:"grade"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// Grade maps a score onto the letter-grade scale. Bucket lower bounds are
// inclusive: Grade(90) is A, Grade(89) is B.
func Grade(score float64) GradeResult {
	for _, b := range gradeScale {
		if score >= b.MinScore {
			return GradeResult{Grade: b.Letter, Score: score, Description: b.Description}
		}
	}
	// Negative scores fall through to F as well.
	last := gradeScale[len(gradeScale)-1]
	return GradeResult{Grade: last.Letter, Score: score, Description: last.Description}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPETENCY LEVELS
// ══════════════════════════════════════════════════════════════════════════════

// CompetencyResult is a named competency band with a fixed recommendation.
type CompetencyResult struct {
	Level          string  `json:"level"`
	Score          float64 `json:"score"`
	Recommendation string  `json:"recommendation"`
}

type competencyBucket struct {
	level          string
	minScore       float64
	recommendation string
}

var competencyScale = []competencyBucket{
	{"EXPERT", 95, "Outstanding mastery. Consider mentoring other learners."},
	{"ADVANCED", 85, "Strong command of the material. Take on advanced challenges."},
	{"PROFICIENT", 70, "Solid understanding. Practice edge cases to advance."},
	{"DEVELOPING", 40, "Foundations are forming. Review core modules and retry assessments."},
	{"BEGINNER", 0, "Just getting started. Work through the course material step by step."},
}

// Competency maps a score onto the competency scale, highest band first.
func Competency(score float64) CompetencyResult {
	for _, b := range competencyScale {
		if score >= b.minScore {
			return CompetencyResult{Level: b.level, Score: score, Recommendation: b.recommendation}
		}
	}
	last := competencyScale[len(competencyScale)-1]
	return CompetencyResult{Level: last.level, Score: score, Recommendation: last.recommendation}
}

// ══════════════════════════════════════════════════════════════════════════════
// TIME EFFICIENCY
// ══════════════════════════════════════════════════════════════════════════════

// TimeEfficiencyResult is the outcome of a time-adjusted evaluation.
type TimeEfficiencyResult struct {
	Efficiency    float64 `json:"efficiency"`
	Bonus         float64 `json:"bonus"`
	RawScore      float64 `json:"raw_score"`
	AdjustedScore float64 `json:"adjusted_score"`
	Rating        string  `json:"rating"`
}

// TimeEfficiency awards a bonus for finishing faster than expected.
// efficiency = expectedTime/timeTaken*100; the adjusted score is capped at 100.
// Returns shared.ErrInvalidInput when timeTaken is not positive.
func TimeEfficiency(score float64, timeTaken, expectedTime time.Duration) (TimeEfficiencyResult, error) {
	if timeTaken <= 0 {
		return TimeEfficiencyResult{}, shared.NewDomainError("evaluation", "TimeEfficiency",
			shared.ErrInvalidInput, "time taken must be positive")
	}

	efficiency := expectedTime.Seconds() / timeTaken.Seconds() * 100

	var bonus float64
	switch {
	case efficiency > 150:
		bonus = 5
	case efficiency > 120:
		bonus = 3
	}

	adjusted := score + bonus
	if adjusted > 100 {
		adjusted = 100
	}

	var rating string
	switch {
	case efficiency > 150:
		rating = "excellent"
	case efficiency > 120:
		rating = "good"
	case efficiency > 100:
		rating = "average"
	default:
		rating = "needs-improvement"
	}

	return TimeEfficiencyResult{
		Efficiency:    efficiency,
		Bonus:         bonus,
		RawScore:      score,
		AdjustedScore: adjusted,
		Rating:        rating,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MULTI-CRITERIA EVALUATION
// ══════════════════════════════════════════════════════════════════════════════

// Criterion is one named sub-score with its weight.
type Criterion struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// CriterionBreakdown is one criterion's contribution to the weighted score.
type CriterionBreakdown struct {
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// MultiCriteriaResult is the outcome of a weighted multi-criteria evaluation.
type MultiCriteriaResult struct {
	WeightedScore float64              `json:"weighted_score"`
	Grade         GradeResult          `json:"grade"`
	Breakdown     []CriterionBreakdown `json:"breakdown"`
}

// MultiCriteria combines named sub-scores into one weighted score and grade.
// weightedScore = Σ(score×weight)/Σ(weight). An empty criteria map yields a
// weighted score of 0. The breakdown is sorted by criterion name so output
// is deterministic.
func MultiCriteria(criteria map[string]Criterion) MultiCriteriaResult {
	names := make([]string, 0, len(criteria))
	for name := range criteria {
		names = append(names, name)
	}
	sort.Strings(names)

	var weightedSum, weightTotal float64
	breakdown := make([]CriterionBreakdown, 0, len(criteria))
	for _, name := range names {
		c := criteria[name]
		contribution := c.Score * c.Weight
		weightedSum += contribution
		weightTotal += c.Weight
		breakdown = append(breakdown, CriterionBreakdown{
			Name:         name,
			Score:        c.Score,
			Weight:       c.Weight,
			Contribution: contribution,
		})
	}

	var weightedScore float64
	if weightTotal > 0 {
		weightedScore = weightedSum / weightTotal
	}

	return MultiCriteriaResult{
		WeightedScore: weightedScore,
		Grade:         Grade(weightedScore),
		Breakdown:     breakdown,
	}
}
