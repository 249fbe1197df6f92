// Package rowmap applies a resolved column→field mapping to source rows,
// producing fully-typed canonical rows or per-field rejection records.
// Failures are recovered at the narrowest scope: a malformed cell costs one
// rejection record, never the rest of the row's file.
package rowmap

import (
	"encoding/json"

	"github.com/zeebo/xxh3"

	"bankmerge/internal/cell"
)

// Reserved identity column names carried on every canonical row. RowNumber
// stays a decimal string end to end so values beyond the 64-bit range
// survive.
const (
	ColSourceFile = "source_file"
	ColRowNumber  = "row_number"
)

// WholeRowSentinel is stored as the original value of a whole-row rejection,
// where no single cell can be blamed.
const WholeRowSentinel = "(entire row)"

// Row is a canonical row shaped by the active template: every template field
// is present (possibly nil), plus the two identity fields. Constructed once
// per accepted source row; immutable afterwards except for manual-repair
// updates applied through the store.
type Row struct {
	SourceFile string
	RowNumber  string
	Fields     map[string]any
}

// Rejection records one failed field conversion (or one whole-row failure,
// with an empty TargetColumn). A rejected row accumulates one record per
// failing field; each is individually repairable.
type Rejection struct {
	ID            int64
	SourceFile    string
	RowNumber     string
	ColumnName    string
	TargetColumn  string
	OriginalValue string
	RawData       string
	Reason        string
	Fingerprint   uint64
}

// serializeRaw renders the whole source row as JSON for storage alongside a
// rejection. Values that cannot be marshalled natively (NaN, Inf) fall back
// to their string form; only if the stringified row also fails does the
// caller escalate to a whole-row rejection.
func serializeRaw(src cell.Row) (string, error) {
	native := make(map[string]any, len(src))
	for k, v := range src {
		native[k] = v.Native()
	}
	if b, err := json.Marshal(native); err == nil {
		return string(b), nil
	}

	text := make(map[string]string, len(src))
	for k, v := range src {
		text[k] = v.Text()
	}
	b, err := json.Marshal(text)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// fingerprint hashes the serialized raw row; repair tooling uses it to spot
// duplicate rejections of the same source row across re-ingestions.
func fingerprint(raw string) uint64 {
	return xxh3.HashString(raw)
}
