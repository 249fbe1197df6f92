// Package reader provides the spreadsheet collaborator: given a file path it
// yields the column headers and rows of untyped cell values, either all at
// once or as a bounded window starting at an offset (for chunked ingestion
// and cheap first-N analysis probes).
package reader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"bankmerge/internal/cell"
)

// Reader yields rows from one spreadsheet file. Read with offset skips
// already-consumed data rows (the header is never counted); limit <= 0 reads
// everything remaining. Implementations rewind per call, so windows may be
// re-read.
type Reader interface {
	Headers() []string
	Read(ctx context.Context, offset, limit int) ([]cell.Row, error)
	Close() error
}

// OpenFunc matches Open; the ingestion coordinator takes one as a seam so
// tests can inject synthetic files.
type OpenFunc func(path string) (Reader, error)

// Open selects a reader by file extension: .csv, or .xlsx/.xlsm via
// excelize.
func Open(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return openCSV(path)
	case ".xlsx", ".xlsm":
		return openXLSX(path)
	default:
		return nil, fmt.Errorf("open %s: unsupported spreadsheet format", path)
	}
}

// normalizeHeaders trims edge whitespace and strips a leading UTF-8 BOM from
// the first header.
func normalizeHeaders(hdr []string) []string {
	out := make([]string, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// rowFromRecord aligns one raw record to the header list, padding short
// records with nulls and dropping extra trailing cells.
func rowFromRecord(headers []string, rec []string) cell.Row {
	row := make(cell.Row, len(headers))
	for i, h := range headers {
		if i < len(rec) && rec[i] != "" {
			row[h] = cell.String(rec[i])
		} else {
			row[h] = cell.Null()
		}
	}
	return row
}
