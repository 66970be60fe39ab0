// Package order contains the order reconciliation bounded context.
// It turns raw storefront payloads, whose field names drift between API versions,
// into canonical per-line records and derives shipping invoices from them.
//
// Key concepts:
//   - RawRecord: an undecoded storefront order or item object
//   - Schema: the candidate key history for every logical field
//   - OrderLine: one canonical purchased line (value object)
//   - Reconcile: joins order metadata and item data from separate API surfaces
//   - InvoiceRecord: one consolidated shipping unit per order
//
// Everything in this package is a pure function over in-memory data.
// Network access, persistence and logging live in the outer layers.
package order
