package reader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"bankmerge/internal/cell"
)

// csvReader reads windows of a CSV file by rewinding and skipping, so every
// Read call is independent of the previous one. Parsing is tolerant: lazy
// quotes, variable field counts, and malformed lines soft-dropped rather
// than failing the window.
type csvReader struct {
	f       *os.File
	headers []string
}

func openCSV(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	cr := newTolerantCSV(f)
	hdr, err := cr.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	return &csvReader{f: f, headers: normalizeHeaders(hdr)}, nil
}

func newTolerantCSV(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr
}

func (c *csvReader) Headers() []string { return c.headers }

func (c *csvReader) Read(ctx context.Context, offset, limit int) ([]cell.Row, error) {
	if _, err := c.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	cr := newTolerantCSV(c.f)
	if _, err := cr.Read(); err != nil { // header
		return nil, err
	}

	skipped := 0
	for skipped < offset {
		if _, err := cr.Read(); err == io.EOF {
			return nil, nil
		} else if err != nil {
			skipped++ // malformed line still occupies a slot
			continue
		}
		skipped++
	}

	var rows []cell.Row
	for limit <= 0 || len(rows) < limit {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // soft-drop malformed line
		}
		if len(rec) == 0 {
			continue
		}
		rows = append(rows, rowFromRecord(c.headers, rec))
	}
	return rows, nil
}

func (c *csvReader) Close() error { return c.f.Close() }
