package progress

import (
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONES
// ══════════════════════════════════════════════════════════════════════════════

// Thresholds are the completion percentages that count as milestones.
var Thresholds = []int{0, 25, 50, 75, 100}

// Milestone is one crossed completion threshold with its achievement time.
type Milestone struct {
	// Threshold is the completion percentage band (0, 25, 50, 75 or 100).
	Threshold int `json:"threshold"`

	// AchievedAt is when the threshold was first computed as crossed.
	AchievedAt time.Time `json:"achieved_at"`
}

// MilestonesFor returns the thresholds crossed at percentage p, each stamped
// with at. A threshold counts as crossed when it is less than or equal to p,
// so MilestonesFor(0) already contains the 0 milestone.
func MilestonesFor(p float64, at time.Time) []Milestone {
	milestones := make([]Milestone, 0, len(Thresholds))
	for _, t := range Thresholds {
		if float64(t) <= p {
			milestones = append(milestones, Milestone{Threshold: t, AchievedAt: at})
		}
	}
	return milestones
}

// NewlyCrossed returns the milestones present at curr but not at prev,
// compared by threshold value only.
func NewlyCrossed(prev, curr []Milestone) []Milestone {
	seen := make(map[int]struct{}, len(prev))
	for _, m := range prev {
		seen[m.Threshold] = struct{}{}
	}

	newMilestones := make([]Milestone, 0)
	for _, m := range curr {
		if _, ok := seen[m.Threshold]; !ok {
			newMilestones = append(newMilestones, m)
		}
	}
	return newMilestones
}

// Tracker applies a progress update to an existing record (nil for a first
// update) and reports the newly crossed milestones.
type Tracker struct{}

// NewTracker creates a Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update is the input of one progress update.
type Update struct {
	Percentage         float64
	CompletedModuleIDs []string
	Completed          bool
}

// Apply merges the update into existing (which may be nil) and returns the
// record to persist plus the newly crossed milestones.
//
// The milestone list is recomputed from the current percentage, not
// accumulated: if the percentage regresses, previously stored thresholds
// drop out of the list. Callers that need a durable achievement history
// record the newly crossed milestones in the append-only engagement log.
// Previously achieved timestamps are preserved for thresholds that remain
// crossed; only genuinely new milestones are stamped with now.
func (t *Tracker) Apply(existing *Record, userID shared.UserID, courseID shared.CourseID, u Update, now time.Time) (*Record, []Milestone) {
	var previousPercentage float64
	var previousMilestones []Milestone
	record := &Record{
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: now,
	}
	if existing != nil {
		previousPercentage = existing.CompletedPercentage
		previousMilestones = existing.MilestonesAchieved
		*record = *existing
	}

	current := MilestonesFor(u.Percentage, now)
	newMilestones := NewlyCrossed(MilestonesFor(previousPercentage, now), current)

	// Keep original achievement timestamps where the threshold was already
	// in the stored list.
	achievedAt := make(map[int]time.Time, len(previousMilestones))
	for _, m := range previousMilestones {
		achievedAt[m.Threshold] = m.AchievedAt
	}
	for i := range current {
		if ts, ok := achievedAt[current[i].Threshold]; ok {
			current[i].AchievedAt = ts
		}
	}

	record.CompletedPercentage = u.Percentage
	merged := make([]string, 0, len(record.CompletedModuleIDs)+len(u.CompletedModuleIDs))
	merged = append(merged, record.CompletedModuleIDs...)
	merged = append(merged, u.CompletedModuleIDs...)
	record.CompletedModuleIDs = DedupModuleIDs(merged)
	record.MilestonesAchieved = current
	record.LastUpdatedAt = now

	completed := u.Completed || u.Percentage == 100
	if completed && !record.Completed {
		record.CompletedAt = now
	}
	record.Completed = completed

	return record, newMilestones
}
