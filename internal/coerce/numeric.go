package coerce

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"bankmerge/internal/cell"
	"bankmerge/internal/schema"
)

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// parseDecimal runs the locale-aware numeric parse chain:
//
//  1. English convention: "," is a grouping separator, "." the decimal point.
//  2. Chinese convention: full-width digits and punctuation are folded to
//     their narrow forms first (bank exports routinely contain １２３４ and
//     ，), then groupings stripped.
//  3. Last resort: strip every rune that is not a digit, minus, or dot.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)

	if d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "")); err == nil {
		return d, nil
	}

	folded := width.Narrow.String(norm.NFKC.String(s))
	folded = strings.TrimSpace(strings.ReplaceAll(folded, ",", ""))
	if d, err := decimal.NewFromString(folded); err == nil {
		return d, nil
	}

	var b strings.Builder
	for _, r := range folded {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}
	stripped := b.String()
	if stripped != "" {
		if d, err := decimal.NewFromString(stripped); err == nil {
			return d, nil
		}
	}
	return decimal.Decimal{}, fmt.Errorf("not numeric")
}

// coerceInt converts v to an int64, truncating any fractional part toward
// the integer. Magnitudes beyond the signed-64-bit range come back as the
// decimal-string representation instead; downstream storage accepts either.
func coerceInt(v cell.Value) (any, error) {
	var d decimal.Decimal
	if v.Kind() == cell.KindNumber {
		d = decimal.NewFromFloat(v.Num())
	} else {
		var err error
		d, err = parseDecimal(v.Text())
		if err != nil {
			return nil, &Error{Value: v.Text(), Target: schema.TypeInt, Cause: err}
		}
	}
	d = d.Truncate(0)
	if d.Cmp(maxInt64) > 0 || d.Cmp(minInt64) < 0 {
		return d.String(), nil
	}
	return d.IntPart(), nil
}

// coerceFloat converts v to a float64 via the same parse chain. A trailing
// "%" (or full-width "％") divides the numeric part by 100.
func coerceFloat(v cell.Value) (any, error) {
	if v.Kind() == cell.KindNumber {
		return v.Num(), nil
	}
	s := strings.TrimSpace(v.Text())

	percent := false
	if rest, ok := strings.CutSuffix(s, "%"); ok {
		s, percent = rest, true
	} else if rest, ok := strings.CutSuffix(s, "％"); ok {
		s, percent = rest, true
	}

	d, err := parseDecimal(s)
	if err != nil {
		return nil, &Error{Value: v.Text(), Target: schema.TypeFloat, Cause: err}
	}
	if percent {
		d = d.Div(decimal.NewFromInt(100))
	}
	return d.InexactFloat64(), nil
}
