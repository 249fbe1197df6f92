package rowmap

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bankmerge/internal/cell"
	"bankmerge/internal/coerce"
	"bankmerge/internal/schema"
)

// Mapper maps source rows onto one template.
type Mapper struct {
	tmpl *schema.Template
}

func NewMapper(t *schema.Template) *Mapper { return &Mapper{tmpl: t} }

// MapRow applies mapping to one source row and decides its fate:
//
//	(row, nil)   every mapped field coerced; the row is accepted
//	(nil, rejs)  one rejection per failing field (or one whole-row record)
//	(nil, nil)   the row has no data at all; dropped silently
//
// A row with any failing field is never accepted, even though its canonical
// shape was fully populated; only its rejection records carry it forward.
func (m *Mapper) MapRow(src cell.Row, sourceFile string, rowNumber int, mapping map[string]string) (*Row, []Rejection) {
	row, rejs, hasData := m.Build(src, sourceFile, rowNumber, mapping)
	if !hasData && len(rejs) == 0 {
		return nil, nil
	}
	if len(rejs) > 0 {
		return nil, rejs
	}
	return row, nil
}

// Build constructs the canonical row unconditionally, together with any
// rejection records and whether the source row carried data. Manual repair
// uses it directly to re-coerce sibling fields of a stored raw row without
// the acceptance policy getting in the way.
func (m *Mapper) Build(src cell.Row, sourceFile string, rowNumber int, mapping map[string]string) (*Row, []Rejection, bool) {
	row := &Row{
		SourceFile: sourceFile,
		RowNumber:  strconv.Itoa(rowNumber),
		Fields:     make(map[string]any, len(m.tmpl.Fields)),
	}
	for _, f := range m.tmpl.Fields {
		row.Fields[f.Name] = nil
	}

	// Deterministic iteration so rejection order is stable.
	cols := make([]string, 0, len(mapping))
	for c := range mapping {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	var (
		rejs    []Rejection
		raw     string // serialized source row, computed on first failure
		rawErr  error
		hasData bool
	)
	serialize := func() (string, error) {
		if raw == "" && rawErr == nil {
			raw, rawErr = serializeRaw(src)
		}
		return raw, rawErr
	}
	reject := func(srcCol, target, original, reason string) bool {
		data, err := serialize()
		if err != nil {
			return false // caller escalates to a whole-row record
		}
		rejs = append(rejs, Rejection{
			SourceFile:    sourceFile,
			RowNumber:     row.RowNumber,
			ColumnName:    srcCol,
			TargetColumn:  target,
			OriginalValue: original,
			RawData:       data,
			Reason:        reason,
			Fingerprint:   fingerprint(data),
		})
		return true
	}

	identifier := m.tmpl.Identifier()
	for _, srcCol := range cols {
		target := mapping[srcCol]
		if target == "" {
			continue
		}
		v, present := src[srcCol]
		if !present {
			continue
		}

		// A mapped row-number-like column overrides the positional row
		// number, but only when its value actually looks numeric.
		if target == ColRowNumber {
			if t := strings.TrimSpace(v.Text()); numericLike(t) {
				row.RowNumber = t
			}
			continue
		}

		// The identifier passes through as a string: numeric coercion of
		// long account/transaction IDs loses precision.
		if target == identifier && !v.IsBlank() {
			row.Fields[target] = v.Text()
			hasData = true
			continue
		}

		f, ok := m.tmpl.Field(target)
		if !ok {
			if !reject(srcCol, target, v.Text(), fmt.Sprintf("unknown canonical field %q", target)) {
				return nil, []Rejection{m.wholeRowRejection(sourceFile, row.RowNumber, rawErr)}, hasData
			}
			continue
		}

		val, err := coerce.Coerce(v, f.Type)
		if err != nil {
			var ce *coerce.Error
			reason := err.Error()
			if errors.As(err, &ce) {
				reason = ce.Error()
			}
			if !reject(srcCol, target, v.Text(), reason) {
				return nil, []Rejection{m.wholeRowRejection(sourceFile, row.RowNumber, rawErr)}, hasData
			}
			row.Fields[target] = nil
			continue
		}
		row.Fields[target] = val
		if !v.IsBlank() {
			hasData = true
		}
	}

	return row, rejs, hasData
}

// wholeRowRejection covers failures outside the per-field loop, such as the
// raw row refusing to serialize even with the string fallback.
func (m *Mapper) wholeRowRejection(sourceFile, rowNumber string, cause error) Rejection {
	reason := "row serialization failed"
	if cause != nil {
		reason = fmt.Sprintf("row serialization failed: %v", cause)
	}
	return Rejection{
		SourceFile:    sourceFile,
		RowNumber:     rowNumber,
		OriginalValue: WholeRowSentinel,
		Reason:        reason,
	}
}

func numericLike(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
