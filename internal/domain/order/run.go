package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunSource identifies where a reconciliation pass got its payloads from.
type RunSource string

const (
	// RunSourceUpload is a pass over payloads posted by a client
	RunSourceUpload RunSource = "UPLOAD"
	// RunSourceSync is a pass over payloads pulled from the storefront API
	RunSourceSync RunSource = "SYNC"
	// RunSourceFile is a pass over payload files read by the CLI
	RunSourceFile RunSource = "FILE"
)

// ReconciliationRun records one reconciliation pass and its data-quality counters.
type ReconciliationRun struct {
	ID         uuid.UUID
	SessionID  uuid.UUID
	Source     RunSource
	RangeStart *time.Time
	RangeEnd   *time.Time
	Stats      ReconcileStats
	Duration   time.Duration
	CreatedAt  time.Time
}

// NewReconciliationRun creates a run record for the given session.
func NewReconciliationRun(sessionID uuid.UUID, source RunSource, r *DateRange, stats ReconcileStats, duration time.Duration) *ReconciliationRun {
	run := &ReconciliationRun{
		ID:        uuid.New(),
		SessionID: sessionID,
		Source:    source,
		Stats:     stats,
		Duration:  duration,
		CreatedAt: time.Now(),
	}
	if r != nil {
		start, end := r.Start, r.End
		run.RangeStart = &start
		run.RangeEnd = &end
	}
	return run
}

// RunRepository persists reconciliation runs.
type RunRepository interface {
	Save(ctx context.Context, run *ReconciliationRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*ReconciliationRun, error)
	// FindRecent returns up to limit runs, newest first.
	FindRecent(ctx context.Context, limit int) ([]ReconciliationRun, error)
}
