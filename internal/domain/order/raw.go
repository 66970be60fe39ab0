package order

import (
	"fmt"
)

// RawRecord is one undecoded storefront object, either an order or an item.
// Values are whatever the JSON decoder produced: strings, float64 or json.Number,
// bool, nested RawRecord, []any or nil.
type RawRecord = map[string]any

// AsRecords validates that v is a sequence of records and returns it as []RawRecord.
// Elements that are not objects are kept as nil so positions line up with the input;
// the normalizer skips them. Anything other than a slice is a caller contract violation.
func AsRecords(v any) ([]RawRecord, error) {
	switch t := v.(type) {
	case nil:
		return []RawRecord{}, nil
	case []RawRecord:
		return t, nil
	case []any:
		out := make([]RawRecord, len(t))
		for i, elem := range t {
			if rec, ok := elem.(map[string]any); ok {
				out[i] = rec
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidPayload, v)
	}
}
