// Package coerce converts raw spreadsheet cell values into typed canonical
// values. Financial exports arrive in mixed locales and with spreadsheet
// serialization artifacts (trailing ".0", Excel day-fraction times,
// full-width digits), so every target type is backed by a layered fallback
// chain: a value is rejected only after every recognizer has been tried.
//
// Blank input (null, or a string that trims to nothing) coerces to a typed
// null for every target type. Everything else either converts or fails with
// a *coerce.Error carrying the offending value and target type.
package coerce

import (
	"fmt"

	"bankmerge/internal/cell"
	"bankmerge/internal/schema"
)

// Error reports a single-cell conversion failure. It is always recovered at
// the row-mapping layer into a rejection record, never propagated further.
type Error struct {
	Value  string
	Target schema.FieldType
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot convert %q to %s: %v", e.Value, e.Target, e.Cause)
	}
	return fmt.Sprintf("cannot convert %q to %s", e.Value, e.Target)
}

func (e *Error) Unwrap() error { return e.Cause }

// Coerce converts v into the target type. The result is one of:
//
//	nil              blank input, every target type
//	int64            int
//	string           int beyond the signed-64-bit range (decimal string)
//	float64          float
//	string           date ("YYYY-MM-DD"), time ("HH:MM:SS"), text
//
// Coercion is deterministic: the same input always produces the same output.
func Coerce(v cell.Value, target schema.FieldType) (any, error) {
	if v.IsBlank() {
		return nil, nil
	}
	switch target {
	case schema.TypeInt:
		return coerceInt(v)
	case schema.TypeFloat:
		return coerceFloat(v)
	case schema.TypeDate:
		return coerceDate(v)
	case schema.TypeTime:
		return coerceClock(v)
	default:
		return v.Text(), nil
	}
}
