package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/janytree/orderdesk/internal/domain/order"
)

// ReconciliationRunModel is the persistence model for order.ReconciliationRun.
// Stats are stored as flat counter columns so they can be queried directly.
type ReconciliationRunModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SessionID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Source     string     `gorm:"type:varchar(16);not null"`
	RangeStart *time.Time `gorm:""`
	RangeEnd   *time.Time `gorm:""`
	DurationMs int64      `gorm:"not null;default:0"`
	CreatedAt  time.Time  `gorm:"not null;index"`

	Orders           int `gorm:"not null;default:0"`
	Items            int `gorm:"not null;default:0"`
	Lines            int `gorm:"not null;default:0"`
	JoinedItems      int `gorm:"not null;default:0"`
	OrphanItems      int `gorm:"not null;default:0"`
	EmbeddedOrders   int `gorm:"not null;default:0"`
	ItemlessOrders   int `gorm:"not null;default:0"`
	ExcludedOrders   int `gorm:"not null;default:0"`
	ExcludedItems    int `gorm:"not null;default:0"`
	DuplicateOrders  int `gorm:"not null;default:0"`
	MalformedRecords int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ReconciliationRunModel) TableName() string {
	return "reconciliation_runs"
}

// ToDomain converts the persistence model to a domain ReconciliationRun.
func (m *ReconciliationRunModel) ToDomain() *order.ReconciliationRun {
	return &order.ReconciliationRun{
		ID:         m.ID,
		SessionID:  m.SessionID,
		Source:     order.RunSource(m.Source),
		RangeStart: m.RangeStart,
		RangeEnd:   m.RangeEnd,
		Duration:   time.Duration(m.DurationMs) * time.Millisecond,
		CreatedAt:  m.CreatedAt,
		Stats: order.ReconcileStats{
			Orders:           m.Orders,
			Items:            m.Items,
			Lines:            m.Lines,
			JoinedItems:      m.JoinedItems,
			OrphanItems:      m.OrphanItems,
			EmbeddedOrders:   m.EmbeddedOrders,
			ItemlessOrders:   m.ItemlessOrders,
			ExcludedOrders:   m.ExcludedOrders,
			ExcludedItems:    m.ExcludedItems,
			DuplicateOrders:  m.DuplicateOrders,
			MalformedRecords: m.MalformedRecords,
		},
	}
}

// ReconciliationRunModelFromDomain converts a domain ReconciliationRun to its persistence model.
func ReconciliationRunModelFromDomain(r *order.ReconciliationRun) *ReconciliationRunModel {
	s := r.Stats
	return &ReconciliationRunModel{
		ID:               r.ID,
		SessionID:        r.SessionID,
		Source:           string(r.Source),
		RangeStart:       r.RangeStart,
		RangeEnd:         r.RangeEnd,
		DurationMs:       r.Duration.Milliseconds(),
		CreatedAt:        r.CreatedAt,
		Orders:           s.Orders,
		Items:            s.Items,
		Lines:            s.Lines,
		JoinedItems:      s.JoinedItems,
		OrphanItems:      s.OrphanItems,
		EmbeddedOrders:   s.EmbeddedOrders,
		ItemlessOrders:   s.ItemlessOrders,
		ExcludedOrders:   s.ExcludedOrders,
		ExcludedItems:    s.ExcludedItems,
		DuplicateOrders:  s.DuplicateOrders,
		MalformedRecords: s.MalformedRecords,
	}
}

// All returns every model managed by AutoMigrate.
func All() []any {
	return []any{&ReconciliationRunModel{}}
}
