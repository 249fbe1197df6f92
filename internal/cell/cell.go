// Package cell models raw spreadsheet cell content as a closed variant:
// Null, Number, String, Bool, or Time. Readers produce cell.Value, and the
// coercion layer consumes it, so the conversion fallback chain operates over
// an explicit tagged union instead of runtime type inspection of interface
// values.
package cell

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindTime
)

// Value is one raw cell. The zero value is Null.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	t    time.Time
}

func Null() Value            { return Value{} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

func (v Value) Kind() Kind { return v.kind }

// Num returns the numeric payload; only meaningful for KindNumber.
func (v Value) Num() float64 { return v.num }

// Stamp returns the time payload; only meaningful for KindTime.
func (v Value) Stamp() time.Time { return v.t }

// IsBlank reports whether the cell is null, or a string that trims to
// nothing. Blank cells coerce to a typed null for every target type.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	default:
		return false
	}
}

// Text renders the cell as a string. Numbers use the shortest exact
// representation, so a numeric 20210610 renders as "20210610" rather than
// picking up a ".0" artifact; that artifact only occurs in string cells
// produced by upstream exports.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format("2006-01-02 15:04:05")
	}
	return ""
}

// Native returns the value as a plain Go value suitable for JSON
// serialization: nil, float64, string, bool, or a formatted timestamp.
func (v Value) Native() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindTime:
		return v.t.Format("2006-01-02 15:04:05")
	}
	return nil
}

// Row is one source row keyed by source column name.
type Row map[string]Value
