package order

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// UnitSeparator joins unit labels in an invoice description.
const UnitSeparator = " // "

// InvoiceRecord is one consolidated shipping unit per order id.
type InvoiceRecord struct {
	OrderID        string          `json:"order_id"`
	OrderDate      string          `json:"order_date"`
	Status         Status          `json:"status"`
	BuyerName      string          `json:"buyer_name"`
	RecipientName  string          `json:"recipient_name"`
	StreetAddress  string          `json:"street_address"`
	RecipientPhone string          `json:"recipient_phone"`
	PostalCode     string          `json:"postal_code"`
	DeliveryNote   string          `json:"delivery_note"`
	Description    string          `json:"description"`
	TotalUnits     int             `json:"total_units"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// UnitLabel renders the label of one purchased unit, e.g. "[Cream] 50ml".
func UnitLabel(product, option string) string {
	return fmt.Sprintf("[%s] %s", product, option)
}

type invoiceGroup struct {
	first  OrderLine
	labels []string
	amount decimal.Decimal
}

// BuildInvoices groups lines accepted by filter into one InvoiceRecord per order id.
// Every line contributes max(quantity, 1) unit labels, at most MaxLineQuantity; labels are sorted
// byte-wise and joined with UnitSeparator. Representative fields come from the
// first line of each group and groups keep first-encounter order, so the same
// input always yields the same records.
func BuildInvoices(lines []OrderLine, filter LineFilter) []InvoiceRecord {
	groups := make(map[string]*invoiceGroup)
	var order []string
	for _, line := range lines {
		if filter != nil && !filter(line) {
			continue
		}
		g, ok := groups[line.OrderID]
		if !ok {
			g = &invoiceGroup{first: line, amount: decimal.Zero}
			groups[line.OrderID] = g
			order = append(order, line.OrderID)
		}
		units := min(max(line.Quantity, 1), MaxLineQuantity)
		label := UnitLabel(line.ProductName, line.OptionLabel)
		for range units {
			g.labels = append(g.labels, label)
		}
		g.amount = g.amount.Add(line.LineAmount)
	}

	invoices := make([]InvoiceRecord, 0, len(order))
	for _, id := range order {
		g := groups[id]
		slices.Sort(g.labels)
		f := g.first
		invoices = append(invoices, InvoiceRecord{
			OrderID:        f.OrderID,
			OrderDate:      f.OrderDate(),
			Status:         f.Status,
			BuyerName:      f.BuyerName,
			RecipientName:  f.RecipientName,
			StreetAddress:  f.StreetAddress,
			RecipientPhone: f.RecipientPhone,
			PostalCode:     f.PostalCode,
			DeliveryNote:   f.DeliveryNote,
			Description:    strings.Join(g.labels, UnitSeparator),
			TotalUnits:     len(g.labels),
			TotalAmount:    g.amount,
		})
	}
	return invoices
}
