// Package schema defines canonical field templates and the registry that owns
// them. A template names the typed fields source spreadsheet columns are
// reconciled onto; each field carries a synonym list used by the column
// matcher. Templates preserve field declaration order, which the matcher
// relies on for deterministic tie-breaking.
package schema

import (
	"errors"
	"fmt"
)

// FieldType is the semantic type a canonical field coerces to.
type FieldType string

const (
	TypeInt   FieldType = "int"
	TypeFloat FieldType = "float"
	TypeDate  FieldType = "date"
	TypeTime  FieldType = "time"
	TypeText  FieldType = "text"
)

// ValidType reports whether t is one of the supported field types.
func ValidType(t FieldType) bool {
	switch t {
	case TypeInt, TypeFloat, TypeDate, TypeTime, TypeText:
		return true
	}
	return false
}

// ErrNotFound is returned for lookups of unknown templates, fields, or
// rejection records.
var ErrNotFound = errors.New("not found")

// Field is one canonical column: a name, a target type, and the alternate
// source-column spellings accepted as equivalent. Synonym comparison is
// case-sensitive and exact. Identifier marks the field that passes through
// uncoerced during row mapping and keys the sink's conflict-ignore policy.
type Field struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	Synonyms   []string  `json:"synonyms"`
	Identifier bool      `json:"identifier,omitempty"`
}

// Template is a named, ordered set of canonical fields. Field names within
// one template are unique; synonym overlap across fields is permitted and
// resolved by the matcher's highest-similarity rule.
type Template struct {
	Name   string
	Fields []Field
}

// Field returns the field with the given name.
func (t *Template) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Identifier returns the name of the identifier field, or "" when the
// template has none.
func (t *Template) Identifier() string {
	for _, f := range t.Fields {
		if f.Identifier {
			return f.Name
		}
	}
	return ""
}

// FieldNames returns the canonical field names in declaration order.
func (t *Template) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// SetSynonyms replaces the synonym list of the named field.
func (t *Template) SetSynonyms(field string, synonyms []string) error {
	for i := range t.Fields {
		if t.Fields[i].Name == field {
			t.Fields[i].Synonyms = synonyms
			return nil
		}
	}
	return fmt.Errorf("field %q: %w", field, ErrNotFound)
}

// Clone returns a deep copy so registry callers cannot mutate shared state.
func (t *Template) Clone() *Template {
	cp := &Template{Name: t.Name, Fields: make([]Field, len(t.Fields))}
	copy(cp.Fields, t.Fields)
	for i := range cp.Fields {
		syn := make([]string, len(t.Fields[i].Synonyms))
		copy(syn, t.Fields[i].Synonyms)
		cp.Fields[i].Synonyms = syn
	}
	return cp
}

// Validate checks structural invariants: at least one field, unique field
// names, known types.
func (t *Template) Validate() error {
	if len(t.Fields) == 0 {
		return fmt.Errorf("template %q: at least one field required", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		if f.Name == "" {
			return fmt.Errorf("template %q: field with empty name", t.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("template %q: duplicate field %q", t.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if !ValidType(f.Type) {
			return fmt.Errorf("template %q: field %q has unknown type %q", t.Name, f.Name, f.Type)
		}
	}
	return nil
}
