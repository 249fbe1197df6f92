// Package ingest drives the file → chunk → row pipeline: it pulls rows from
// the spreadsheet reader, hands them with the resolved column mapping to the
// row mapper, batches accepted rows and rejections into the sink, and
// aggregates per-file and per-run statistics. Failures are contained at the
// narrowest scope — a bad cell costs a rejection record, a bad chunk is
// skipped, a bad file becomes an error entry — so a run always makes forward
// progress.
//
// Runs are single-threaded by design: one file at a time, one chunk at a
// time, one sink connection held for the duration, with periodic flushes so
// a crash loses at most one unflushed batch.
package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bankmerge/internal/cell"
	"bankmerge/internal/config"
	"bankmerge/internal/metrics"
	"bankmerge/internal/reader"
	"bankmerge/internal/rowmap"
	"bankmerge/internal/schema"
)

// estBytesPerRow is the rough row width used to derive the iteration cap
// for chunked reads. Deliberately low: underestimating row size
// overestimates the row count, which only loosens the cap.
const estBytesPerRow = 8

// minChunkIterations floors the cap so short-row files are never truncated
// by a pessimistic size estimate.
const minChunkIterations = 16

// Sink is the store contract the coordinator writes through. *store.Store
// satisfies it; tests substitute fakes.
type Sink interface {
	EnsureSchema(ctx context.Context, tmpl *schema.Template) error
	InsertRows(ctx context.Context, tmpl *schema.Template, rows []*rowmap.Row) (inserted, ignored int64, err error)
	InsertRejections(ctx context.Context, recs []rowmap.Rejection) error
	InsertRow(ctx context.Context, tmpl *schema.Template, row *rowmap.Row) error
	Rejection(ctx context.Context, id int64) (*rowmap.Rejection, error)
	DeleteRejection(ctx context.Context, id int64) error
	HasRow(ctx context.Context, sourceFile, rowNumber string) (bool, error)
	UpdateRowFields(ctx context.Context, tmpl *schema.Template, sourceFile, rowNumber string, fields map[string]any) error
}

// Mappings carries column mappings per source file, keyed by full path with
// base-filename and "*" fallbacks.
type Mappings map[string]map[string]string

// For resolves the mapping for one file path.
func (m Mappings) For(path string) map[string]string {
	if mp, ok := m[path]; ok {
		return mp
	}
	if mp, ok := m[filepath.Base(path)]; ok {
		return mp
	}
	return m["*"]
}

// FileStat reports one file's outcome: row counts, or an error string in
// place of counts.
type FileStat struct {
	FileName      string `json:"file_name"`
	TotalRows     int64  `json:"total_rows"`
	ProcessedRows int64  `json:"processed_rows"`
	RejectedRows  int64  `json:"rejected_rows"`
	Err           string `json:"error,omitempty"`
}

// Summary aggregates a whole run.
type Summary struct {
	RunID          string     `json:"run_id"`
	TotalProcessed int64      `json:"total_processed"`
	TotalRejected  int64      `json:"total_rejected"`
	Files          []FileStat `json:"file_stats"`
}

// Coordinator owns one ingestion pipeline configuration. Construct with New
// and reuse across runs; each run holds its sink for the duration.
type Coordinator struct {
	registry *schema.Registry
	sink     Sink
	open     reader.OpenFunc
	cfg      config.IngestConfig
	recent   *RecentFiles
}

// New builds a coordinator. openFn may be nil to use reader.Open.
func New(reg *schema.Registry, sink Sink, cfg config.IngestConfig, openFn reader.OpenFunc) *Coordinator {
	if openFn == nil {
		openFn = reader.Open
	}
	if cfg.ChunkRows <= 0 {
		cfg.ChunkRows = config.Default().Ingest.ChunkRows
	}
	if cfg.FlushEveryChunks <= 0 {
		cfg.FlushEveryChunks = config.Default().Ingest.FlushEveryChunks
	}
	if cfg.SmallFileBytes <= 0 {
		cfg.SmallFileBytes = config.Default().Ingest.SmallFileBytes
	}
	return &Coordinator{
		registry: reg,
		sink:     sink,
		open:     openFn,
		cfg:      cfg,
		recent:   NewRecentFiles(maxRecentFiles),
	}
}

// Recent lists recently ingested-into sink locations, most recent first.
func (c *Coordinator) Recent() []string { return c.recent.List() }

// TouchRecent records a sink location as recently used.
func (c *Coordinator) TouchRecent(location string) { c.recent.Touch(location) }

// Run ingests the given files into the sink. Per-file failures (missing
// file, unreadable content, flush errors) are recorded in that file's stat
// entry and never abort the run; only setup failures (unknown template,
// sink schema) are fatal. Run totals reflect successfully processed files
// only.
func (c *Coordinator) Run(ctx context.Context, paths []string, mappings Mappings, templateName string) (*Summary, error) {
	tmpl, err := c.registry.Get(templateName)
	if err != nil {
		return nil, err
	}
	if err := c.sink.EnsureSchema(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("prepare sink: %w", err)
	}

	sum := &Summary{RunID: uuid.NewString()}
	for i, path := range paths {
		start := time.Now()
		st := c.processFile(ctx, path, mappings.For(path), tmpl, sum.RunID)

		var fileErr error
		if st.Err != "" {
			fileErr = fmt.Errorf("%s", st.Err)
		} else {
			sum.TotalProcessed += st.ProcessedRows
			sum.TotalRejected += st.RejectedRows
		}
		metrics.RecordFile(sum.RunID, st.FileName, fileErr, time.Since(start))
		sum.Files = append(sum.Files, st)

		log.Printf("ingest: progress %.2f%% (%d/%d files)",
			float64(i+1)/float64(len(paths))*100, i+1, len(paths))
	}

	metrics.RecordRows(sum.RunID, "processed", sum.TotalProcessed)
	metrics.RecordRows(sum.RunID, "rejected", sum.TotalRejected)
	return sum, nil
}

// processFile maps one file end to end. All failures land in st.Err.
func (c *Coordinator) processFile(ctx context.Context, path string, mapping map[string]string, tmpl *schema.Template, runID string) FileStat {
	st := FileStat{FileName: filepath.Base(path)}

	info, err := os.Stat(path)
	if err != nil {
		st.Err = err.Error()
		return st
	}
	if len(mapping) == 0 {
		st.Err = fmt.Sprintf("no column mapping for %s", st.FileName)
		return st
	}

	r, err := c.open(path)
	if err != nil {
		st.Err = err.Error()
		return st
	}
	defer r.Close()

	mapper := rowmap.NewMapper(tmpl)
	if info.Size() < c.cfg.SmallFileBytes {
		c.processSmall(ctx, r, mapper, tmpl, mapping, runID, &st)
	} else {
		c.processChunked(ctx, r, mapper, tmpl, mapping, runID, info.Size(), &st)
	}
	return st
}

func (c *Coordinator) processSmall(ctx context.Context, r reader.Reader, mapper *rowmap.Mapper, tmpl *schema.Template, mapping map[string]string, runID string, st *FileStat) {
	rows, err := r.Read(ctx, 0, 0)
	if err != nil {
		st.Err = err.Error()
		return
	}
	acc := newAccumulator()
	mapRows(mapper, rows, 0, mapping, st, acc)
	st.TotalRows = int64(len(rows))
	if err := c.flush(ctx, tmpl, runID, acc); err != nil {
		st.Err = err.Error()
	}
}

// processChunked streams a large file in fixed-size row windows, flushing
// every FlushEveryChunks chunks. A failed chunk read is logged and skipped
// with the cursor advanced one chunk width; iteration is capped at twice the
// size-derived row estimate so a misbehaving reader cannot spin forever.
func (c *Coordinator) processChunked(ctx context.Context, r reader.Reader, mapper *rowmap.Mapper, tmpl *schema.Template, mapping map[string]string, runID string, size int64, st *FileStat) {
	chunk := c.cfg.ChunkRows
	estRows := int(size/estBytesPerRow) + 1
	maxIter := 2 * (estRows/chunk + 1)
	if maxIter < minChunkIterations {
		maxIter = minChunkIterations
	}

	acc := newAccumulator()
	offset := 0
	chunks := 0
	for iter := 0; iter < maxIter; iter++ {
		rows, err := r.Read(ctx, offset, chunk)
		if err != nil {
			log.Printf("ingest: %s: chunk at offset %d failed, skipping: %v", st.FileName, offset, err)
			offset += chunk
			continue
		}
		if len(rows) == 0 {
			break
		}

		mapRows(mapper, rows, offset, mapping, st, acc)
		st.TotalRows += int64(len(rows))
		offset += len(rows)
		chunks++

		if chunks%c.cfg.FlushEveryChunks == 0 {
			if err := c.flush(ctx, tmpl, runID, acc); err != nil {
				st.Err = err.Error()
				return
			}
		}
		if len(rows) < chunk {
			break
		}
	}
	if err := c.flush(ctx, tmpl, runID, acc); err != nil {
		st.Err = err.Error()
	}
}

// mapRows feeds one window of source rows through the mapper. Row numbers
// are 1-based data-row positions within the file.
func mapRows(mapper *rowmap.Mapper, rows []cell.Row, offset int, mapping map[string]string, st *FileStat, acc *accumulator) {
	for j, src := range rows {
		row, rejs := mapper.MapRow(src, st.FileName, offset+j+1, mapping)
		switch {
		case row != nil:
			acc.rows = append(acc.rows, row)
			st.ProcessedRows++
		case len(rejs) > 0:
			acc.rejs = append(acc.rejs, rejs...)
			st.RejectedRows++
		}
		// Blank rows are dropped silently: neither accepted nor rejected.
	}
}

type accumulator struct {
	rows []*rowmap.Row
	rejs []rowmap.Rejection
}

func newAccumulator() *accumulator { return &accumulator{} }

// flush writes the accumulated batch and clears the accumulator. Identifier
// collisions are logged as a count, never surfaced as rejections.
func (c *Coordinator) flush(ctx context.Context, tmpl *schema.Template, runID string, acc *accumulator) error {
	if len(acc.rows) == 0 && len(acc.rejs) == 0 {
		return nil
	}
	inserted, ignored, err := c.sink.InsertRows(ctx, tmpl, acc.rows)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if ignored > 0 {
		log.Printf("ingest: flushed rows=%d duplicates_ignored=%d", inserted, ignored)
		metrics.RecordRows(runID, "ignored", ignored)
	}
	if err := c.sink.InsertRejections(ctx, acc.rejs); err != nil {
		return fmt.Errorf("write rejections: %w", err)
	}
	acc.rows = acc.rows[:0]
	acc.rejs = acc.rejs[:0]
	return nil
}
