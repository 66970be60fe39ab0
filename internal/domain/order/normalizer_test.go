package order

import (
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLocation = time.FixedZone("KST", 9*60*60)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(DefaultSchema(), testLocation)
}

// legacyOrder has the field layout of the older orders endpoint.
func legacyOrder() RawRecord {
	return RawRecord{
		"order_no":   "2024030112345",
		"order_date": float64(1709251200), // 2024-03-01 09:00 KST
		"status":     "PAY_COMPLETE",
		"orderer":    map[string]any{"name": "Kim", "call": "010-1111-2222"},
		"shipping": map[string]any{
			"name":           "Lee",
			"call":           "010-3333-4444",
			"address":        "Seoul Gangnam-gu",
			"address_detail": "101-1001",
			"zipcode":        "06000",
			"memo":           "leave at door",
		},
		"items": []any{
			map[string]any{"prod_name": "Cream", "options_str": "50ml", "ea": float64(2), "price_total": float64(50000)},
		},
	}
}

// currentOrder has the field layout of the newer orders endpoint.
func currentOrder() RawRecord {
	return RawRecord{
		"order_no":       "2024030112345",
		"payment_date":   float64(1709251200),
		"order_status":   "PAYMENT_COMPLETED",
		"pay_price":      float64(50000),
		"billing_person": map[string]any{"name": "Kim", "tel": "010-1111-2222"},
		"shipping_address": map[string]any{
			"name":           "Lee",
			"tel":            "010-3333-4444",
			"address":        "Seoul Gangnam-gu",
			"address_detail": "101-1001",
			"postcode":       "06000",
			"memo":           "leave at door",
		},
		"items": []any{
			map[string]any{"product_name": "Cream", "option_name": "50ml", "amount": float64(2), "price": float64(25000)},
		},
	}
}

func collect(n *Normalizer, order RawRecord) []OrderLine {
	return slices.Collect(n.Lines(order, n.EmbeddedItems(order)))
}

// ---------------------------------------------------------------------------
// Normalizer Tests
// ---------------------------------------------------------------------------

func TestNormalizer_SchemaVersionsAgree(t *testing.T) {
	n := newTestNormalizer()

	legacy := collect(n, legacyOrder())
	current := collect(n, currentOrder())
	require.Len(t, legacy, 1)
	require.Len(t, current, 1)

	for _, line := range []OrderLine{legacy[0], current[0]} {
		assert.Equal(t, "2024030112345", line.OrderID)
		assert.Equal(t, "2024-03-01", line.OrderDate())
		assert.Equal(t, StatusPaid, line.Status)
		assert.Equal(t, "Cream", line.ProductName)
		assert.Equal(t, "50ml", line.OptionLabel)
		assert.Equal(t, int64(2), line.Quantity)
		assert.True(t, decimal.NewFromInt(50000).Equal(line.LineAmount))
		assert.Equal(t, "Kim", line.BuyerName)
		assert.Equal(t, "010-1111-2222", line.BuyerPhone)
		assert.Equal(t, "Lee", line.RecipientName)
		assert.Equal(t, "010-3333-4444", line.RecipientPhone)
		assert.Equal(t, "06000", line.PostalCode)
		assert.Equal(t, "Seoul Gangnam-gu 101-1001", line.StreetAddress)
		assert.Equal(t, "leave at door", line.DeliveryNote)
		assert.Equal(t, LineSourceEmbedded, line.Source)
	}
}

func TestNormalizer_NoItemsYieldsSentinel(t *testing.T) {
	n := newTestNormalizer()
	order := currentOrder()

	tests := []struct {
		name  string
		items []RawRecord
	}{
		{"nil items", nil},
		{"empty items", []RawRecord{}},
		{"only malformed items", []RawRecord{nil, nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := slices.Collect(n.Lines(order, tt.items))
			require.Len(t, lines, 1)
			assert.Equal(t, NoItemProductName, lines[0].ProductName)
			assert.Equal(t, int64(1), lines[0].Quantity)
			assert.Equal(t, LineSourceItemless, lines[0].Source)
			assert.True(t, lines[0].IsItemless())
			assert.True(t, decimal.NewFromInt(50000).Equal(lines[0].LineAmount))
			assert.Equal(t, "Lee", lines[0].RecipientName)
		})
	}
}

func TestNormalizer_Quantity(t *testing.T) {
	tests := []struct {
		name     string
		item     RawRecord
		expected int64
	}{
		{"missing defaults to one", RawRecord{"prod_name": "A"}, 1},
		{"explicit zero stays zero", RawRecord{"ea": float64(0)}, 0},
		{"numeric string", RawRecord{"ea": "3"}, 3},
		{"malformed defaults to one", RawRecord{"ea": "three"}, 1},
		{"negative clamps to zero", RawRecord{"ea": float64(-2)}, 0},
		{"fraction truncates", RawRecord{"quantity": 2.7}, 2},
		{"above cap clamps", RawRecord{"ea": "30000000"}, MaxLineQuantity},
		{"cap itself is kept", RawRecord{"ea": float64(MaxLineQuantity)}, MaxLineQuantity},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := slices.Collect(n.Lines(RawRecord{"order_no": "A"}, []RawRecord{tt.item}))
			require.Len(t, lines, 1)
			assert.Equal(t, tt.expected, lines[0].Quantity)
		})
	}
}

func TestNormalizer_LineAmount(t *testing.T) {
	tests := []struct {
		name     string
		item     RawRecord
		expected decimal.Decimal
	}{
		{"line total wins", RawRecord{"price_total": float64(9000), "price": float64(1000), "ea": float64(3)}, decimal.NewFromInt(9000)},
		{"unit price times quantity", RawRecord{"price": float64(1500), "ea": float64(3)}, decimal.NewFromInt(4500)},
		{"missing defaults to zero", RawRecord{"ea": float64(3)}, decimal.Zero},
		{"malformed defaults to zero", RawRecord{"price_total": "free"}, decimal.Zero},
		{"negative clamps to zero", RawRecord{"price_total": float64(-100)}, decimal.Zero},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := slices.Collect(n.Lines(RawRecord{"order_no": "A"}, []RawRecord{tt.item}))
			require.Len(t, lines, 1)
			assert.True(t, tt.expected.Equal(lines[0].LineAmount), "got %s", lines[0].LineAmount)
		})
	}
}

func TestNormalizer_ClampedQuantityPricesClampedUnits(t *testing.T) {
	n := newTestNormalizer()
	lines := slices.Collect(n.Lines(RawRecord{"order_no": "A"}, []RawRecord{
		{"prod_name": "Soap", "ea": "10000000000", "price": float64(10)},
	}))
	require.Len(t, lines, 1)
	assert.Equal(t, int64(MaxLineQuantity), lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(10*MaxLineQuantity).Equal(lines[0].LineAmount))
}

func TestNormalizer_LinesAtKeepsIdlessOrdersApart(t *testing.T) {
	n := newTestNormalizer()
	orders := []RawRecord{{"status": "PAY_COMPLETE"}, {"status": "CANCEL"}}

	var lines []OrderLine
	for i, o := range orders {
		lines = slices.AppendSeq(lines, n.LinesAt(i, o, []RawRecord{{"prod_name": "Soap"}}))
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "unassigned-order-0", lines[0].OrderID)
	assert.Equal(t, "unassigned-order-1", lines[1].OrderID)
	assert.Len(t, BuildInvoices(lines, nil), 2)
}

func TestNormalizer_MalformedItemDoesNotAbortSiblings(t *testing.T) {
	n := newTestNormalizer()
	items := []RawRecord{
		{"prod_name": "A", "ea": "x", "price_total": "?"},
		nil,
		{"prod_name": "B", "ea": float64(2)},
	}

	lines := slices.Collect(n.Lines(RawRecord{"order_no": "1"}, items))
	require.Len(t, lines, 2)
	assert.Equal(t, "A", lines[0].ProductName)
	assert.Equal(t, int64(1), lines[0].Quantity)
	assert.True(t, lines[0].LineAmount.IsZero())
	assert.Equal(t, "B", lines[1].ProductName)
	assert.Equal(t, int64(2), lines[1].Quantity)
}

func TestNormalizer_Defaults(t *testing.T) {
	n := newTestNormalizer()
	lines := slices.Collect(n.Lines(RawRecord{}, []RawRecord{{}}))
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, "unassigned-order-0", line.OrderID)
	assert.False(t, line.HasTimestamp())
	assert.Equal(t, UnknownDate, line.OrderDate())
	assert.Equal(t, StatusUnspecified, line.Status)
	assert.Equal(t, Placeholder, line.ProductName)
	assert.Equal(t, "", line.OptionLabel)
	assert.Equal(t, Placeholder, line.BuyerName)
	assert.Equal(t, Placeholder, line.BuyerPhone)
	assert.Equal(t, Placeholder, line.RecipientName)
	assert.Equal(t, Placeholder, line.RecipientPhone)
	assert.Equal(t, Placeholder, line.PostalCode)
	assert.Equal(t, Placeholder, line.StreetAddress)
	assert.Equal(t, Placeholder, line.DeliveryNote)
}

func TestNormalizer_LinesIsLazy(t *testing.T) {
	n := newTestNormalizer()
	items := []RawRecord{{"prod_name": "A"}, {"prod_name": "B"}, {"prod_name": "C"}}

	var seen []string
	for line := range n.Lines(RawRecord{"order_no": "1"}, items) {
		seen = append(seen, line.ProductName)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"A", "B"}, seen)
}

func TestNormalizer_EmbeddedItemsNotAList(t *testing.T) {
	n := newTestNormalizer()
	order := RawRecord{"order_no": "1", "items": map[string]any{"prod_name": "A"}}

	assert.Nil(t, n.EmbeddedItems(order))
	lines := collect(n, order)
	require.Len(t, lines, 1)
	assert.Equal(t, NoItemProductName, lines[0].ProductName)
}
