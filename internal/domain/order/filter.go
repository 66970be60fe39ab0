package order

import "strings"

// LineFilter selects lines. A nil LineFilter accepts every line.
type LineFilter func(OrderLine) bool

// KeywordFilter matches lines whose product name, option label or status
// contains keyword, ignoring case. An empty keyword matches everything.
func KeywordFilter(keyword string) LineFilter {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil
	}
	return func(l OrderLine) bool {
		return strings.Contains(strings.ToLower(l.ProductName), kw) ||
			strings.Contains(strings.ToLower(l.OptionLabel), kw) ||
			strings.Contains(strings.ToLower(string(l.Status)), kw)
	}
}

// StatusFilter matches lines in any of the given statuses. No statuses matches everything.
func StatusFilter(statuses ...Status) LineFilter {
	if len(statuses) == 0 {
		return nil
	}
	set := make(map[Status]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return func(l OrderLine) bool {
		_, ok := set[l.Status]
		return ok
	}
}

// AllOf combines filters with logical AND. Nil filters are ignored.
func AllOf(filters ...LineFilter) LineFilter {
	var active []LineFilter
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(l OrderLine) bool {
		for _, f := range active {
			if !f(l) {
				return false
			}
		}
		return true
	}
}

// Apply returns the lines accepted by f, in order.
func (f LineFilter) Apply(lines []OrderLine) []OrderLine {
	if f == nil {
		return lines
	}
	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		if f(l) {
			out = append(out, l)
		}
	}
	return out
}
