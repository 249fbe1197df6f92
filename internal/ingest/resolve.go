package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"bankmerge/internal/cell"
	"bankmerge/internal/coerce"
	"bankmerge/internal/rowmap"
	"bankmerge/internal/schema"
)

// Action selects what Resolve does with a rejection record.
type Action string

const (
	ActionSave   Action = "save"
	ActionDelete Action = "delete"
)

// Resolve repairs or discards one rejection record by id.
//
// delete removes the record and nothing else. save coerces the caller's
// fixed values against the template, then either patches the existing main
// row (matched by source file and row number) or, when no row landed,
// reconstitutes one from the record's raw snapshot, overlays the fixes and
// inserts it. The record is deleted only after the write succeeds, so a
// failed repair leaves it available for another attempt.
func (c *Coordinator) Resolve(ctx context.Context, id int64, fixed map[string]string, action Action, templateName string, userMappings map[string]string) error {
	rec, err := c.sink.Rejection(ctx, id)
	if err != nil {
		return err
	}

	switch action {
	case ActionDelete:
		return c.sink.DeleteRejection(ctx, id)
	case ActionSave:
	default:
		return fmt.Errorf("unknown action %q", action)
	}

	tmpl, err := c.registry.Get(templateName)
	if err != nil {
		return err
	}

	typed := make(map[string]any, len(fixed))
	for name, v := range fixed {
		f, ok := tmpl.Field(name)
		if !ok {
			return fmt.Errorf("field %q: not in template %s", name, tmpl.Name)
		}
		val, err := coerce.Coerce(cell.String(v), f.Type)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		typed[name] = val
	}

	exists, err := c.sink.HasRow(ctx, rec.SourceFile, rec.RowNumber)
	if err != nil {
		return err
	}
	if exists {
		if err := c.sink.UpdateRowFields(ctx, tmpl, rec.SourceFile, rec.RowNumber, typed); err != nil {
			return err
		}
		return c.sink.DeleteRejection(ctx, id)
	}

	row, err := rebuildRow(tmpl, rec, userMappings)
	if err != nil {
		return err
	}
	for name, val := range typed {
		row.Fields[name] = val
	}
	if err := c.sink.InsertRow(ctx, tmpl, row); err != nil {
		return err
	}
	return c.sink.DeleteRejection(ctx, id)
}

// rebuildRow re-maps the rejection's raw snapshot so sibling cells that
// coerced fine the first time are carried along with the repair. Sibling
// coercion failures are dropped here, not re-rejected: the caller's fix is
// the authoritative value for the failing cell, and any other still-broken
// cell keeps its own rejection record.
func rebuildRow(tmpl *schema.Template, rec *rowmap.Rejection, userMappings map[string]string) (*rowmap.Row, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(rec.RawData), &raw); err != nil {
		return nil, fmt.Errorf("decode raw row: %w", err)
	}

	src := make(cell.Row, len(raw))
	for name, v := range raw {
		switch t := v.(type) {
		case nil:
			src[name] = cell.Null()
		case float64:
			src[name] = cell.Number(t)
		case bool:
			src[name] = cell.Bool(t)
		case string:
			src[name] = cell.String(t)
		default:
			src[name] = cell.String(fmt.Sprint(t))
		}
	}

	mapping := userMappings
	if len(mapping) == 0 && rec.ColumnName != "" && rec.TargetColumn != "" {
		mapping = map[string]string{rec.ColumnName: rec.TargetColumn}
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("rejection %d: no column mapping to rebuild row", rec.ID)
	}

	mapper := rowmap.NewMapper(tmpl)
	row, _, _ := mapper.Build(src, rec.SourceFile, 0, mapping)
	if row == nil {
		row = &rowmap.Row{Fields: map[string]any{}}
	}
	row.SourceFile = rec.SourceFile
	row.RowNumber = rec.RowNumber
	return row, nil
}
