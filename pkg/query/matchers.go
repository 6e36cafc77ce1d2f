package query

import (
	"math"
	"strconv"
	"strings"
)

// Exact matches a field equal to Value. Strings are compared after trimming
// surrounding whitespace and, when FoldCase is set, case-insensitively.
// Numbers are compared as float64 regardless of their Go kind. When the
// record field holds a list, any element equal to Value is a match.
type Exact struct {
	Value    any
	FoldCase bool
}

// Text returns a case-insensitive Exact matcher for free-text input.
func Text(value string) Exact { return Exact{Value: value, FoldCase: true} }

// Match implements Matcher.
func (e Exact) Match(value any, present bool) bool {
	if !present || value == nil {
		return false
	}
	if items, ok := listOf(value); ok {
		for _, item := range items {
			if e.matchScalar(item) {
				return true
			}
		}
		return false
	}
	return e.matchScalar(value)
}

func (e Exact) matchScalar(value any) bool {
	if want, ok := toFloat(e.Value); ok {
		got, ok := toFloat(value)
		return ok && got == want
	}
	switch want := e.Value.(type) {
	case string:
		got, ok := value.(string)
		if !ok {
			return false
		}
		return normalize(got, e.FoldCase) == normalize(want, e.FoldCase)
	case bool:
		got, ok := value.(bool)
		return ok && got == want
	default:
		return false
	}
}

// Range matches numeric fields inside [Min, Max]. A nil bound is open. A
// record whose field is missing or not numeric never matches.
type Range struct {
	Min *float64
	Max *float64
}

// Match implements Matcher.
func (r Range) Match(value any, present bool) bool {
	if !present {
		return false
	}
	v, ok := toFloat(value)
	if !ok || math.IsNaN(v) {
		return false
	}
	if r.Min != nil && !math.IsNaN(*r.Min) && v < *r.Min {
		return false
	}
	if r.Max != nil && !math.IsNaN(*r.Max) && v > *r.Max {
		return false
	}
	return true
}

// Open reports whether both bounds are absent.
func (r Range) Open() bool { return r.Min == nil && r.Max == nil }

// AnyOf matches when the record field shares at least one value with Values.
// A scalar field is treated as a one-element list. An empty Values set is
// satisfied by every record.
type AnyOf struct {
	Values   []string
	FoldCase bool
}

// Match implements Matcher.
func (a AnyOf) Match(value any, present bool) bool {
	if len(a.Values) == 0 {
		return true
	}
	if !present || value == nil {
		return false
	}
	wanted := make(map[string]struct{}, len(a.Values))
	for _, v := range a.Values {
		wanted[normalize(v, a.FoldCase)] = struct{}{}
	}
	items, ok := listOf(value)
	if !ok {
		items = []any{value}
	}
	for _, item := range items {
		s, ok := stringOf(item)
		if !ok {
			continue
		}
		if _, hit := wanted[normalize(s, a.FoldCase)]; hit {
			return true
		}
	}
	return false
}

// Bound parses a user-supplied numeric bound. Empty or unparseable input
// yields nil, an open bound, so a bad value widens the filter rather than
// rejecting the request.
func Bound(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Between builds a Range from raw bound strings using Bound.
func Between(min, max string) Range {
	return Range{Min: Bound(min), Max: Bound(max)}
}

// AtLeast is the half-open range [v, +inf).
func AtLeast(v float64) Range { return Range{Min: &v} }

// AtMost is the half-open range (-inf, v].
func AtMost(v float64) Range { return Range{Max: &v} }

// Equal is the degenerate range [v, v].
func Equal(v float64) Range {
	lo, hi := v, v
	return Range{Min: &lo, Max: &hi}
}

func normalize(s string, fold bool) string {
	s = strings.TrimSpace(s)
	if fold {
		return strings.ToLower(s)
	}
	return s
}
