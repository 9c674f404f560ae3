// Package query contains read operations (CQRS - Queries).
// Queries never mutate state; the cached read paths may repopulate the
// in-memory aggregate cache but never write through to the stores.
package query

import (
	"context"
	"fmt"

	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery identifies one (user, course) progress record.
type GetProgressQuery struct {
	UserID   string
	CourseID string
}

// Validate validates the query.
func (q GetProgressQuery) Validate() error {
	if !shared.UserID(q.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if !shared.CourseID(q.CourseID).IsValid() {
		return shared.ErrInvalidCourseID
	}
	return nil
}

// GetProgressHandler handles the GetProgressQuery.
type GetProgressHandler struct {
	progressRepo progress.Repository
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(progressRepo progress.Repository) *GetProgressHandler {
	return &GetProgressHandler{progressRepo: progressRepo}
}

// Handle returns the progress record for the pair.
// Returns shared.ErrProgressNotFound when no record exists.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*progress.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_progress: %w", err)
	}
	record, err := h.progressRepo.Get(ctx, shared.UserID(q.UserID), shared.CourseID(q.CourseID))
	if err != nil {
		return nil, fmt.Errorf("get_progress: %w", err)
	}
	return record, nil
}
