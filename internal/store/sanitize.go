package store

import (
	"fmt"
	"math"
	"strconv"
)

// sanitizer is one rung of the write-retry ladder: a value rewrite applied
// to a whole row before the insert is retried. The ladder is an explicit
// ordered list so the retry policy is inspectable and testable away from any
// real sink.
type sanitizer struct {
	name  string
	apply func(any) any
}

// writeLadder returns the rungs tried in order when a row insert fails at
// the binding level: as-is, then out-of-range numerics as decimal strings,
// then everything stringified. A row that fails all three is dropped with a
// log line; the batch continues.
func writeLadder() []sanitizer {
	return []sanitizer{
		{name: "pass", apply: func(v any) any { return v }},
		{name: "widen-numeric", apply: widenNumeric},
		{name: "stringify-all", apply: stringifyAll},
	}
}

// widenNumeric rewrites float values a driver's integer binding would reject
// (non-finite, or beyond the signed-64-bit range) to their decimal-string
// form. Int64 overflow escapes from the coercer already arrive as strings.
func widenNumeric(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return v
}

// stringifyAll renders every non-nil value as a string.
func stringifyAll(v any) any {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func sanitizeRow(vals []any, s sanitizer) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = s.apply(v)
	}
	return out
}
