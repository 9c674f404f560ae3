// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"math"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID identifies a learner across all record sets.
type UserID string

// IsValid checks that the user ID is non-empty after trimming.
func (u UserID) IsValid() bool {
	return strings.TrimSpace(string(u)) != ""
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// NewUserID creates a UserID with validation.
func NewUserID(id string) (UserID, error) {
	u := UserID(strings.TrimSpace(id))
	if !u.IsValid() {
		return "", ErrInvalidUserID
	}
	return u, nil
}

// CourseID identifies a course across all record sets.
type CourseID string

// IsValid checks that the course ID is non-empty after trimming.
func (c CourseID) IsValid() bool {
	return strings.TrimSpace(string(c)) != ""
}

// String returns the string representation.
func (c CourseID) String() string {
	return string(c)
}

// NewCourseID creates a CourseID with validation.
func NewCourseID(id string) (CourseID, error) {
	c := CourseID(strings.TrimSpace(id))
	if !c.IsValid() {
		return "", ErrInvalidCourseID
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Percentage Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Percentage is a completion or score percentage in [0, 100].
type Percentage float64

// IsValid checks the percentage is within [0, 100].
func (p Percentage) IsValid() bool {
	return p >= 0 && p <= 100
}

// Float64 returns the underlying float64 value.
func (p Percentage) Float64() float64 {
	return float64(p)
}

// Rounded returns the percentage rounded half-up to the nearest integer.
func (p Percentage) Rounded() int {
	return RoundHalfUp(float64(p))
}

// NewPercentage creates a Percentage with range validation.
func NewPercentage(v float64) (Percentage, error) {
	p := Percentage(v)
	if !p.IsValid() {
		return 0, ErrInvalidPercentage
	}
	return p, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Numeric helpers shared by scoring and analytics
// ═══════════════════════════════════════════════════════════════════════════

// RoundHalfUp rounds v half-up to the nearest integer, the convention used
// by every derived percentage in the engine.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Mean returns the arithmetic mean of vs, or 0 for an empty slice.
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// PopulationStdDev returns the population standard deviation of vs,
// or 0 for fewer than two values.
func PopulationStdDev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	mean := Mean(vs)
	var sumSq float64
	for _, v := range vs {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(vs)))
}

// SafeRate returns numerator/denominator*100 rounded half-up,
// or 0 when the denominator is 0.
func SafeRate(numerator, denominator int) int {
	if denominator == 0 {
		return 0
	}
	return RoundHalfUp(float64(numerator) / float64(denominator) * 100)
}
