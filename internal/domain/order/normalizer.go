package order

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the quantity of a single line. Invoices expand one unit
// label per unit, so an absurd quantity would otherwise grow without bound.
const MaxLineQuantity = 9999

const (
	surfaceOrders = "order"
	surfaceItems  = "item"
)

// SyntheticOrderID builds the deterministic id given to a record whose payload
// carries no order id, so that it is neither dropped nor merged with others.
func SyntheticOrderID(surface string, index int) string {
	return fmt.Sprintf("unassigned-%s-%d", surface, index)
}

// OrderMeta is the order-level part of a line, resolved once per order.
type OrderMeta struct {
	OrderID        string
	OrderedAt      time.Time
	Status         Status
	Amount         decimal.Decimal
	BuyerName      string
	BuyerPhone     string
	RecipientName  string
	RecipientPhone string
	PostalCode     string
	StreetAddress  string
	DeliveryNote   string
}

// Normalizer converts raw storefront records into OrderLines using a Schema.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	schema Schema
	loc    *time.Location
}

// NewNormalizer creates a normalizer. Naive timestamps are read in loc (UTC when nil).
func NewNormalizer(schema Schema, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{schema: schema, loc: loc}
}

// Schema returns the candidate keys in use.
func (n *Normalizer) Schema() Schema {
	return n.schema
}

// Location returns the location used for naive timestamps and day boundaries.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Meta resolves the order-level fields of a raw order.
// OrderID is empty when the payload carries none.
func (n *Normalizer) Meta(order RawRecord) OrderMeta {
	s := n.schema
	orderedAt, _ := ResolveTime(order, s.OrderedAt, n.loc)
	amount, _ := ResolveDecimal(order, s.OrderAmount)
	return OrderMeta{
		OrderID:        ResolveString(order, s.OrderID, ""),
		OrderedAt:      orderedAt,
		Status:         CanonicalStatus(ResolveString(order, s.Status, "")),
		Amount:         nonNegative(amount),
		BuyerName:      ResolveString(order, s.BuyerName, Placeholder),
		BuyerPhone:     ResolveString(order, s.BuyerPhone, Placeholder),
		RecipientName:  ResolveString(order, s.RecipientName, Placeholder),
		RecipientPhone: ResolveString(order, s.RecipientPhone, Placeholder),
		PostalCode:     ResolveString(order, s.PostalCode, Placeholder),
		StreetAddress:  n.streetAddress(order),
		DeliveryNote:   ResolveString(order, s.DeliveryNote, Placeholder),
	}
}

// EmbeddedItems returns the items nested in a raw order, if any.
func (n *Normalizer) EmbeddedItems(order RawRecord) []RawRecord {
	items, err := AsRecords(Resolve(order, n.schema.Items, nil))
	if err != nil {
		return nil
	}
	return items
}

// Lines normalizes one raw order and its items into a lazy sequence of lines.
// Items that are not objects are skipped. When no usable item remains, exactly
// one sentinel line with quantity 1 is produced. An order without an id is
// treated as the first of its batch; use LinesAt when normalizing several.
func (n *Normalizer) Lines(order RawRecord, items []RawRecord) iter.Seq[OrderLine] {
	return n.LinesAt(0, order, items)
}

// LinesAt is Lines for the order at position index of a batch. The index only
// feeds the synthetic id of an order without one, matching Reconcile.
func (n *Normalizer) LinesAt(index int, order RawRecord, items []RawRecord) iter.Seq[OrderLine] {
	meta := n.Meta(order)
	if meta.OrderID == "" {
		meta.OrderID = SyntheticOrderID(surfaceOrders, index)
	}
	return n.lines(meta, items, LineSourceEmbedded)
}

func (n *Normalizer) lines(meta OrderMeta, items []RawRecord, src LineSource) iter.Seq[OrderLine] {
	return func(yield func(OrderLine) bool) {
		if usableItems(items) == 0 {
			yield(n.itemlessLine(meta))
			return
		}
		for _, item := range items {
			if item == nil {
				continue
			}
			if !yield(n.itemLine(meta, item, src)) {
				return
			}
		}
	}
}

func (n *Normalizer) itemLine(meta OrderMeta, item RawRecord, src LineSource) OrderLine {
	s := n.schema
	qty := n.quantity(item)
	return OrderLine{
		OrderID:        meta.OrderID,
		OrderedAt:      meta.OrderedAt,
		Status:         meta.Status,
		ProductName:    ResolveString(item, s.ItemProductName, Placeholder),
		OptionLabel:    ResolveString(item, s.ItemOption, ""),
		Quantity:       qty,
		LineAmount:     n.lineAmount(item, qty),
		BuyerName:      meta.BuyerName,
		BuyerPhone:     meta.BuyerPhone,
		RecipientName:  meta.RecipientName,
		RecipientPhone: meta.RecipientPhone,
		PostalCode:     meta.PostalCode,
		StreetAddress:  meta.StreetAddress,
		DeliveryNote:   meta.DeliveryNote,
		Source:         src,
	}
}

func (n *Normalizer) itemlessLine(meta OrderMeta) OrderLine {
	return OrderLine{
		OrderID:        meta.OrderID,
		OrderedAt:      meta.OrderedAt,
		Status:         meta.Status,
		ProductName:    NoItemProductName,
		Quantity:       1,
		LineAmount:     meta.Amount,
		BuyerName:      meta.BuyerName,
		BuyerPhone:     meta.BuyerPhone,
		RecipientName:  meta.RecipientName,
		RecipientPhone: meta.RecipientPhone,
		PostalCode:     meta.PostalCode,
		StreetAddress:  meta.StreetAddress,
		DeliveryNote:   meta.DeliveryNote,
		Source:         LineSourceItemless,
	}
}

// orphanMeta builds order metadata from an item's own fields.
// Buyer and shipping fields stay at the placeholder.
func (n *Normalizer) orphanMeta(item RawRecord, index int) OrderMeta {
	s := n.schema
	orderedAt, _ := ResolveTime(item, s.ItemOrderedAt, n.loc)
	id := ResolveString(item, s.ItemOrderID, "")
	if id == "" {
		id = SyntheticOrderID(surfaceItems, index)
	}
	return OrderMeta{
		OrderID:        id,
		OrderedAt:      orderedAt,
		Status:         CanonicalStatus(ResolveString(item, s.Status, "")),
		Amount:         decimal.Zero,
		BuyerName:      Placeholder,
		BuyerPhone:     Placeholder,
		RecipientName:  Placeholder,
		RecipientPhone: Placeholder,
		PostalCode:     Placeholder,
		StreetAddress:  Placeholder,
		DeliveryNote:   Placeholder,
	}
}

// quantity defaults to 1 when no quantity field exists and when it is malformed.
// An explicit zero stays zero; negatives clamp to zero and values above
// MaxLineQuantity clamp to it.
func (n *Normalizer) quantity(item RawRecord) int64 {
	return min(n.rawQuantity(item), MaxLineQuantity)
}

// quantityClamped reports whether the item's quantity exceeds MaxLineQuantity.
func (n *Normalizer) quantityClamped(item RawRecord) bool {
	return n.rawQuantity(item) > MaxLineQuantity
}

func (n *Normalizer) rawQuantity(item RawRecord) int64 {
	qty, present := ResolveInt(item, n.schema.ItemQuantity, 1)
	if !present {
		return 1
	}
	if qty < 0 {
		return 0
	}
	return qty
}

// lineAmount prefers an explicit line total and falls back to unit price times quantity.
func (n *Normalizer) lineAmount(item RawRecord, qty int64) decimal.Decimal {
	if total, ok := ResolveDecimal(item, n.schema.ItemLineAmount); ok {
		return nonNegative(total)
	}
	if unit, ok := ResolveDecimal(item, n.schema.ItemUnitPrice); ok {
		return nonNegative(unit.Mul(decimal.NewFromInt(qty)))
	}
	return decimal.Zero
}

func (n *Normalizer) streetAddress(order RawRecord) string {
	base := ResolveString(order, n.schema.Address, "")
	detail := ResolveString(order, n.schema.AddressDetail, "")
	joined := strings.TrimSpace(base + " " + detail)
	if joined == "" {
		return Placeholder
	}
	return joined
}

func usableItems(items []RawRecord) int {
	count := 0
	for _, item := range items {
		if item != nil {
			count++
		}
	}
	return count
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
