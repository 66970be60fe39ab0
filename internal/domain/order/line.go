package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Placeholder fills absent text fields.
	Placeholder = "-"
	// NoItemProductName marks the single line emitted for an order without items.
	NoItemProductName = "(no item data)"
	// UnknownDate is rendered for lines without a parseable timestamp.
	UnknownDate = "unknown"
	// DateLayout is the day granularity used for filtering and daily reports.
	DateLayout = "2006-01-02"
)

// LineSource records which reconciliation path produced a line.
type LineSource string

const (
	// LineSourceEmbedded is an item found inside the order payload
	LineSourceEmbedded LineSource = "embedded"
	// LineSourceJoined is an item from the separate item surface matched to an order
	LineSourceJoined LineSource = "joined"
	// LineSourceOrphan is an item whose order id matched no order
	LineSourceOrphan LineSource = "orphan"
	// LineSourceItemless is the sentinel line of an order without items
	LineSourceItemless LineSource = "itemless"
)

// OrderLine is the canonical representation of one purchased product line.
// It is a value object; nothing in this package mutates a line after building it.
type OrderLine struct {
	OrderID        string          `json:"order_id"`
	OrderedAt      time.Time       `json:"ordered_at"`
	Status         Status          `json:"status"`
	ProductName    string          `json:"product_name"`
	OptionLabel    string          `json:"option_label"`
	Quantity       int64           `json:"quantity"`
	LineAmount     decimal.Decimal `json:"line_amount"`
	BuyerName      string          `json:"buyer_name"`
	BuyerPhone     string          `json:"buyer_phone"`
	RecipientName  string          `json:"recipient_name"`
	RecipientPhone string          `json:"recipient_phone"`
	PostalCode     string          `json:"postal_code"`
	StreetAddress  string          `json:"street_address"`
	DeliveryNote   string          `json:"delivery_note"`
	Source         LineSource      `json:"source"`
}

// HasTimestamp reports whether the order timestamp was resolved.
func (l OrderLine) HasTimestamp() bool {
	return !l.OrderedAt.IsZero()
}

// OrderDate renders the order day in the timestamp's own location, or UnknownDate.
func (l OrderLine) OrderDate() string {
	if l.OrderedAt.IsZero() {
		return UnknownDate
	}
	return l.OrderedAt.Format(DateLayout)
}

// IsItemless reports whether l is the sentinel line of an order without items.
func (l OrderLine) IsItemless() bool {
	return l.Source == LineSourceItemless
}
