package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BULK CHECK ELIGIBILITY QUERY
// Fans the eligibility gate out over many users of one course with bounded
// concurrency. A per-user store failure does not fail the batch; the user
// lands in the errored list so callers can tell "ineligible" from "unknown".
// ══════════════════════════════════════════════════════════════════════════════

// bulkEligibilityConcurrency bounds how many gates run at once.
const bulkEligibilityConcurrency = 10

// BulkCheckEligibilityQuery identifies the course and its candidate users.
type BulkCheckEligibilityQuery struct {
	CourseID string
	UserIDs  []string
}

// Validate validates the query.
func (q BulkCheckEligibilityQuery) Validate() error {
	if !shared.CourseID(q.CourseID).IsValid() {
		return shared.ErrInvalidCourseID
	}
	if len(q.UserIDs) == 0 {
		return shared.ErrValidation
	}
	return nil
}

// EligibilityCheckFailure marks a user whose gate could not run because the
// store failed. It is a distinct outcome from ineligibility.
type EligibilityCheckFailure struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// BulkEligibilityResult partitions the checked users. Every distinct input
// user id appears in exactly one of the three lists, in input order.
type BulkEligibilityResult struct {
	CourseID   string                    `json:"course_id"`
	Eligible   []certificate.Eligibility `json:"eligible"`
	Ineligible []certificate.Eligibility `json:"ineligible"`
	Errored    []EligibilityCheckFailure `json:"errored,omitempty"`
}

// BulkCheckEligibilityHandler handles the BulkCheckEligibilityQuery.
type BulkCheckEligibilityHandler struct {
	checker *CheckEligibilityHandler
}

// NewBulkCheckEligibilityHandler creates a new BulkCheckEligibilityHandler.
func NewBulkCheckEligibilityHandler(checker *CheckEligibilityHandler) *BulkCheckEligibilityHandler {
	return &BulkCheckEligibilityHandler{checker: checker}
}

// Handle runs the gate for every distinct user id with at most
// bulkEligibilityConcurrency gates in flight.
func (h *BulkCheckEligibilityHandler) Handle(ctx context.Context, q BulkCheckEligibilityQuery) (*BulkEligibilityResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("bulk_check_eligibility: %w", err)
	}

	userIDs := dedupStrings(q.UserIDs)
	results := make([]certificate.Eligibility, len(userIDs))
	checkErrs := make([]error, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkEligibilityConcurrency)
	for i, userID := range userIDs {
		i, userID := i, userID
		g.Go(func() error {
			e, err := h.checker.Handle(gctx, CheckEligibilityQuery{UserID: userID, CourseID: q.CourseID})
			if err != nil {
				// Record the failure, keep the batch going.
				checkErrs[i] = err
				return nil
			}
			results[i] = e
			return nil
		})
	}
	// Workers never return errors; Wait only propagates context cancellation.
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bulk_check_eligibility: %w", err)
	}

	out := &BulkEligibilityResult{CourseID: q.CourseID}
	for i, e := range results {
		switch {
		case checkErrs[i] != nil:
			out.Errored = append(out.Errored, EligibilityCheckFailure{
				UserID: userIDs[i],
				Error:  checkErrs[i].Error(),
			})
		case e.Eligible:
			out.Eligible = append(out.Eligible, e)
		default:
			out.Ineligible = append(out.Ineligible, e)
		}
	}
	return out, nil
}

// dedupStrings drops duplicates and blanks, preserving first-seen order.
func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
