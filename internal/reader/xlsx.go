package reader

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"bankmerge/internal/cell"
)

// xlsxReader reads the first worksheet of an Excel workbook. Each Read opens
// a fresh row iterator and skips forward, mirroring the CSV reader's
// rewind-and-skip window semantics. Cell values arrive as excelize's
// formatted strings; typing is the coercer's job.
type xlsxReader struct {
	f       *excelize.File
	sheet   string
	headers []string
}

func openXLSX(path string) (Reader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("open %s: workbook has no sheets", path)
	}
	sheet := sheets[0]

	it, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	defer it.Close()
	if !it.Next() {
		f.Close()
		return nil, fmt.Errorf("open %s: sheet %q has no header row", path, sheet)
	}
	hdr, err := it.Columns()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	return &xlsxReader{f: f, sheet: sheet, headers: normalizeHeaders(hdr)}, nil
}

func (x *xlsxReader) Headers() []string { return x.headers }

func (x *xlsxReader) Read(ctx context.Context, offset, limit int) ([]cell.Row, error) {
	it, err := x.f.Rows(x.sheet)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	if !it.Next() { // header
		return nil, nil
	}
	for skipped := 0; skipped < offset; skipped++ {
		if !it.Next() {
			return nil, nil
		}
	}

	var rows []cell.Row
	for (limit <= 0 || len(rows) < limit) && it.Next() {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		rec, err := it.Columns()
		if err != nil {
			continue // soft-drop unreadable row
		}
		rows = append(rows, rowFromRecord(x.headers, rec))
	}
	return rows, it.Error()
}

func (x *xlsxReader) Close() error { return x.f.Close() }
