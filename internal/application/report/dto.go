package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/janytree/orderdesk/internal/domain/order"
	domainreport "github.com/janytree/orderdesk/internal/domain/report"
)

// ReconcileRequest carries already-fetched raw payloads.
type ReconcileRequest struct {
	Orders []order.RawRecord
	// Items is the separate item surface; nil when items are embedded in orders.
	Items  []order.RawRecord
	Range  *order.DateRange
	Source order.RunSource
	// RangeApplied marks payloads the source already selected by Range, possibly
	// on a different timestamp field. Range is then recorded but not re-applied.
	RangeApplied bool
}

// SyncRequest asks the service to pull payloads from the storefront.
type SyncRequest struct {
	Range order.DateRange
}

// SessionSummary describes a stored session.
type SessionSummary struct {
	SessionID uuid.UUID                 `json:"session_id"`
	Source    order.RunSource           `json:"source"`
	Range     *order.DateRange          `json:"range,omitempty"`
	Stats     order.ReconcileStats      `json:"stats"`
	Summary   domainreport.SalesSummary `json:"summary"`
	CreatedAt time.Time                 `json:"created_at"`
	ExpiresAt time.Time                 `json:"expires_at"`
}

// NewSessionSummary summarizes a session.
func NewSessionSummary(s *Session) *SessionSummary {
	return &SessionSummary{
		SessionID: s.ID,
		Source:    s.Source,
		Range:     s.Range,
		Stats:     s.Stats,
		Summary:   domainreport.Summarize(s.Lines),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

// ExportResult is a rendered invoice document.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
	Invoices    int
}

// PublishResult points at an uploaded invoice document.
type PublishResult struct {
	StorageKey  string    `json:"storage_key"`
	Filename    string    `json:"filename"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	Invoices    int       `json:"invoices"`
}

// RunResponse is one reconciliation run in the history listing.
type RunResponse struct {
	ID         uuid.UUID            `json:"id"`
	SessionID  uuid.UUID            `json:"session_id"`
	Source     order.RunSource      `json:"source"`
	RangeStart *time.Time           `json:"range_start,omitempty"`
	RangeEnd   *time.Time           `json:"range_end,omitempty"`
	Stats      order.ReconcileStats `json:"stats"`
	DurationMs int64                `json:"duration_ms"`
	CreatedAt  time.Time            `json:"created_at"`
}

// ToRunResponse converts a domain run to its response.
func ToRunResponse(r *order.ReconciliationRun) RunResponse {
	return RunResponse{
		ID:         r.ID,
		SessionID:  r.SessionID,
		Source:     r.Source,
		RangeStart: r.RangeStart,
		RangeEnd:   r.RangeEnd,
		Stats:      r.Stats,
		DurationMs: r.Duration.Milliseconds(),
		CreatedAt:  r.CreatedAt,
	}
}
