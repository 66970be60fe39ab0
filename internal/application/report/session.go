package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/janytree/orderdesk/internal/domain/order"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown or has expired.
	ErrSessionNotFound = errors.New("report: session not found")
	// ErrNoOrderSource is returned by Sync when no storefront client is configured.
	ErrNoOrderSource = errors.New("report: no order source configured")
	// ErrNoObjectStorage is returned by PublishInvoices when object storage is disabled.
	ErrNoObjectStorage = errors.New("report: object storage not configured")
)

// Session is the snapshot of one reconciliation pass. Lines are built once and
// every read (lines, invoices, report) works on the same snapshot.
type Session struct {
	ID        uuid.UUID            `json:"id"`
	Source    order.RunSource      `json:"source"`
	Range     *order.DateRange     `json:"range,omitempty"`
	Lines     []order.OrderLine    `json:"lines"`
	Stats     order.ReconcileStats `json:"stats"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionStore keeps session snapshots for a limited time.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Save stores the session for ttl. A non-positive ttl keeps it until deleted.
	Save(ctx context.Context, session *Session, ttl time.Duration) error
	// Get returns ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
