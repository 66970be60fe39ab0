package persistence

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/janytree/orderdesk/internal/domain/order"
)

// DefaultInMemoryRunCapacity is how many runs the in-memory repository keeps
const DefaultInMemoryRunCapacity = 500

// InMemoryRunRepository keeps the most recent runs in memory.
// It is used when no database is configured; history is lost on restart.
type InMemoryRunRepository struct {
	mu       sync.RWMutex
	runs     []order.ReconciliationRun // oldest first
	capacity int
}

// NewInMemoryRunRepository creates a repository holding at most capacity runs
func NewInMemoryRunRepository(capacity int) *InMemoryRunRepository {
	if capacity <= 0 {
		capacity = DefaultInMemoryRunCapacity
	}
	return &InMemoryRunRepository{capacity: capacity}
}

// Save appends a run, evicting the oldest one when full
func (r *InMemoryRunRepository) Save(_ context.Context, run *order.ReconciliationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	if over := len(r.runs) - r.capacity; over > 0 {
		r.runs = slices.Delete(r.runs, 0, over)
	}
	return nil
}

// FindByID finds a run by ID
func (r *InMemoryRunRepository) FindByID(_ context.Context, id uuid.UUID) (*order.ReconciliationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.runs {
		if r.runs[i].ID == id {
			run := r.runs[i]
			return &run, nil
		}
	}
	return nil, order.ErrRunNotFound
}

// FindRecent returns up to limit runs, newest first
func (r *InMemoryRunRepository) FindRecent(_ context.Context, limit int) ([]order.ReconciliationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]order.ReconciliationRun, 0, n)
	for i := len(r.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.runs[i])
	}
	return out, nil
}

var _ order.RunRepository = (*InMemoryRunRepository)(nil)
