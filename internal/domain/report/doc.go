// Package report derives sales aggregates from canonical order lines.
// All functions are read-only reductions and tolerate an empty line set.
package report
