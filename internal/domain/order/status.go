package order

import "strings"

// Status is the canonical order lifecycle label.
// Raw codes missing from the lookup table are kept verbatim as a Status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusPreparing Status = "PREPARING"
	StatusShipping  Status = "SHIPPING"
	StatusDelivered Status = "DELIVERED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusReturned  Status = "RETURNED"
	StatusExchanged Status = "EXCHANGED"
	StatusRefunded  Status = "REFUNDED"
	// StatusUnspecified is used when the payload carries no status at all.
	StatusUnspecified Status = Placeholder
)

// rawStatusTable maps storefront status codes to canonical labels.
// Keys are upper-cased before lookup.
var rawStatusTable = map[string]Status{
	"PAY_WAIT":              StatusPending,
	"WAITING_PAYMENT":       StatusPending,
	"PENDING":               StatusPending,
	"PAYMENT":               StatusPaid,
	"PAY_COMPLETE":          StatusPaid,
	"PAYMENT_COMPLETE":      StatusPaid,
	"PAYMENT_COMPLETED":     StatusPaid,
	"PAID":                  StatusPaid,
	"STANDBY":               StatusPreparing,
	"PREPARE":               StatusPreparing,
	"PRODUCT_PREPARATION":   StatusPreparing,
	"SHIPPING_READY":        StatusPreparing,
	"DELIVERING":            StatusShipping,
	"SHIPPING":              StatusShipping,
	"IN_DELIVERY":           StatusShipping,
	"DELIVERY_COMPLETE":     StatusDelivered,
	"DELIVERED":             StatusDelivered,
	"COMPLETE":              StatusDelivered,
	"PURCHASE_CONFIRMATION": StatusConfirmed,
	"PURCHASE_CONFIRMED":    StatusConfirmed,
	"CONFIRMED":             StatusConfirmed,
	"CANCEL":                StatusCancelled,
	"CANCELLED":             StatusCancelled,
	"CANCEL_COMPLETE":       StatusCancelled,
	"RETURN":                StatusReturned,
	"RETURNED":              StatusReturned,
	"RETURN_COMPLETE":       StatusReturned,
	"EXCHANGE":              StatusExchanged,
	"EXCHANGED":             StatusExchanged,
	"EXCHANGE_COMPLETE":     StatusExchanged,
	"REFUND":                StatusRefunded,
	"REFUND_COMPLETE":       StatusRefunded,
}

// CanonicalStatus maps a raw storefront status code to its canonical label.
// Unknown codes pass through unchanged; it never fails.
func CanonicalStatus(raw string) Status {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == Placeholder {
		return StatusUnspecified
	}
	if s, ok := rawStatusTable[strings.ToUpper(trimmed)]; ok {
		return s
	}
	return Status(trimmed)
}

// IsKnown reports whether s is one of the canonical labels.
func (s Status) IsKnown() bool {
	switch s {
	case StatusPending, StatusPaid, StatusPreparing, StatusShipping, StatusDelivered,
		StatusConfirmed, StatusCancelled, StatusReturned, StatusExchanged, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}
