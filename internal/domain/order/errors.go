package order

import "errors"

var (
	ErrInvalidPayload     = errors.New("order: payload is not a list of records")
	ErrInvalidDateRange   = errors.New("order: date range start is after end")
	ErrUnknownSchemaField = errors.New("order: unknown schema field")
	ErrRunNotFound        = errors.New("order: reconciliation run not found")
)
