package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Resolve returns the value of the first candidate key that is present with a
// non-nil value, or def when none is. A candidate may be a dotted path such as
// "shipping.address"; a literal key containing dots takes precedence over the
// nested walk. Non-mapping input always yields def.
func Resolve(record any, candidates []string, def any) any {
	m, ok := asMap(record)
	if !ok {
		return def
	}
	for _, key := range candidates {
		if v, ok := lookup(m, key); ok {
			return v
		}
	}
	return def
}

// ResolveString resolves the first candidate that renders to a non-blank string.
// Blank values fall through to the next candidate, so an empty legacy field does
// not shadow a populated current one.
func ResolveString(record any, candidates []string, def string) string {
	m, ok := asMap(record)
	if !ok {
		return def
	}
	for _, key := range candidates {
		v, ok := lookup(m, key)
		if !ok {
			continue
		}
		if s, ok := toString(v); ok && s != "" {
			return s
		}
	}
	return def
}

// ResolveInt resolves the first candidate that is present. The second return
// value reports whether any candidate was present at all, so callers can tell a
// missing field from a malformed one. Malformed values yield malformed.
func ResolveInt(record any, candidates []string, malformed int64) (int64, bool) {
	m, ok := asMap(record)
	if !ok {
		return malformed, false
	}
	for _, key := range candidates {
		v, ok := lookup(m, key)
		if !ok {
			continue
		}
		if n, ok := toInt(v); ok {
			return n, true
		}
		return malformed, true
	}
	return malformed, false
}

// ResolveDecimal resolves the first candidate that parses as a number.
// Present but unparseable candidates are skipped.
func ResolveDecimal(record any, candidates []string) (decimal.Decimal, bool) {
	m, ok := asMap(record)
	if !ok {
		return decimal.Zero, false
	}
	for _, key := range candidates {
		v, ok := lookup(m, key)
		if !ok {
			continue
		}
		if d, ok := toDecimal(v); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

// ResolveTime resolves the first candidate that parses as a timestamp.
// Naive layouts are interpreted in loc.
func ResolveTime(record any, candidates []string, loc *time.Location) (time.Time, bool) {
	m, ok := asMap(record)
	if !ok {
		return time.Time{}, false
	}
	for _, key := range candidates {
		v, ok := lookup(m, key)
		if !ok {
			continue
		}
		if t, ok := toTime(v, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

func lookup(m map[string]any, path string) (any, bool) {
	if v, ok := m[path]; ok && v != nil {
		return v, true
	}
	if !strings.Contains(path, ".") {
		return nil, false
	}
	var cur any = m
	for _, seg := range strings.Split(path, ".") {
		node, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = node[seg]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}
