package order

import (
	"fmt"
	"time"
)

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange validates start <= end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{Start: start, End: end}, nil
}

// DayRange builds the range covering whole calendar days startDay..endDay
// (YYYY-MM-DD) in loc. The end day is included up to its last nanosecond.
func DayRange(startDay, endDay string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(DateLayout, startDay, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start %q", ErrInvalidDateRange, startDay)
	}
	end, err := time.ParseInLocation(DateLayout, endDay, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end %q", ErrInvalidDateRange, endDay)
	}
	return NewDateRange(start, end.AddDate(0, 0, 1).Add(-time.Nanosecond))
}

// Contains reports whether t lies within the range, both ends included.
// The zero time is never contained.
func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// ReconcileOptions configures one reconciliation pass.
type ReconcileOptions struct {
	// Range restricts orders to those whose timestamp is inside it. Nil keeps everything.
	Range *DateRange
}

// ReconcileStats counts what happened during a pass. JoinMisses are data-quality
// signals, not failures.
type ReconcileStats struct {
	Orders           int `json:"orders"`
	Items            int `json:"items"`
	Lines            int `json:"lines"`
	JoinedItems      int `json:"joined_items"`
	OrphanItems      int `json:"orphan_items"`
	EmbeddedOrders   int `json:"embedded_orders"`
	ItemlessOrders   int `json:"itemless_orders"`
	ExcludedOrders   int `json:"excluded_orders"`
	ExcludedItems    int `json:"excluded_items"`
	DuplicateOrders  int `json:"duplicate_orders"`
	MalformedRecords int `json:"malformed_records"`
	// ClampedQuantities counts items whose quantity was cut to MaxLineQuantity.
	ClampedQuantities int `json:"clamped_quantities"`
}

// JoinMisses is the number of items without an order plus orders without items.
func (s ReconcileStats) JoinMisses() int {
	return s.OrphanItems + s.ItemlessOrders
}

// ReconcileResult is the output of one reconciliation pass.
type ReconcileResult struct {
	Lines []OrderLine
	Stats ReconcileStats
}

type orderEntry struct {
	meta     OrderMeta
	raw      RawRecord
	excluded bool
}

// Reconcile joins order metadata with items from a separate item surface by
// order id and falls back to embedded items or a sentinel line for orders the
// item surface does not cover.
//
// Output order is the input order of orders, each followed by its lines, then
// the orphan items in item order. An order covered by the item surface never
// also yields embedded or sentinel lines.
func (n *Normalizer) Reconcile(orders, items []RawRecord, opts ReconcileOptions) ReconcileResult {
	stats := ReconcileStats{Orders: len(orders), Items: len(items)}

	entries := make(map[string]*orderEntry, len(orders))
	ids := make([]string, 0, len(orders))
	for i, raw := range orders {
		if raw == nil {
			stats.MalformedRecords++
			continue
		}
		meta := n.Meta(raw)
		if meta.OrderID == "" {
			meta.OrderID = SyntheticOrderID(surfaceOrders, i)
		}
		if _, dup := entries[meta.OrderID]; dup {
			stats.DuplicateOrders++
			continue
		}
		e := &orderEntry{meta: meta, raw: raw}
		if opts.Range != nil && !opts.Range.Contains(meta.OrderedAt) {
			e.excluded = true
			stats.ExcludedOrders++
		}
		entries[meta.OrderID] = e
		ids = append(ids, meta.OrderID)
	}

	joined := make(map[string][]OrderLine)
	var orphans []OrderLine
	for j, item := range items {
		if item == nil {
			stats.MalformedRecords++
			continue
		}
		id := ResolveString(item, n.schema.ItemOrderID, "")
		if e, ok := entries[id]; ok && id != "" {
			if e.excluded {
				stats.ExcludedItems++
				continue
			}
			stats.countClamped(n, item)
			joined[id] = append(joined[id], n.itemLine(e.meta, item, LineSourceJoined))
			stats.JoinedItems++
			continue
		}
		meta := n.orphanMeta(item, j)
		if opts.Range != nil && !meta.OrderedAt.IsZero() && !opts.Range.Contains(meta.OrderedAt) {
			stats.ExcludedItems++
			continue
		}
		stats.countClamped(n, item)
		orphans = append(orphans, n.itemLine(meta, item, LineSourceOrphan))
		stats.OrphanItems++
	}

	lines := make([]OrderLine, 0, stats.JoinedItems+len(orphans)+len(ids))
	for _, id := range ids {
		e := entries[id]
		if e.excluded {
			continue
		}
		if covered, ok := joined[id]; ok {
			lines = append(lines, covered...)
			continue
		}
		embedded := n.EmbeddedItems(e.raw)
		usable := usableItems(embedded)
		stats.MalformedRecords += len(embedded) - usable
		for _, item := range embedded {
			if item != nil {
				stats.countClamped(n, item)
			}
		}
		if usable > 0 {
			stats.EmbeddedOrders++
		} else {
			stats.ItemlessOrders++
		}
		for line := range n.lines(e.meta, embedded, LineSourceEmbedded) {
			lines = append(lines, line)
		}
	}
	lines = append(lines, orphans...)
	stats.Lines = len(lines)

	return ReconcileResult{Lines: lines, Stats: stats}
}

func (s *ReconcileStats) countClamped(n *Normalizer, item RawRecord) {
	if n.quantityClamped(item) {
		s.ClampedQuantities++
	}
}
