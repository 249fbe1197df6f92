package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"bankmerge/internal/config"
	"bankmerge/internal/rowmap"
	"bankmerge/internal/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	reg.Put("test", &schema.Template{
		Name: "test",
		Fields: []schema.Field{
			{Name: "ID", Type: schema.TypeInt, Identifier: true},
			{Name: "记账日期", Type: schema.TypeDate},
			{Name: "交易金额", Type: schema.TypeFloat},
		},
	}, true)
	return reg
}

// fakeSink records every write; optional hooks fail specific calls.
type fakeSink struct {
	rows       []*rowmap.Row
	rejections []rowmap.Rejection
	flushes    int

	failInsertRows bool

	updated map[string]map[string]any
	deleted []int64
	rec     *rowmap.Rejection
	hasRow  bool
}

func (f *fakeSink) EnsureSchema(ctx context.Context, tmpl *schema.Template) error { return nil }

func (f *fakeSink) InsertRows(ctx context.Context, tmpl *schema.Template, rows []*rowmap.Row) (int64, int64, error) {
	if f.failInsertRows {
		return 0, 0, fmt.Errorf("sink unavailable")
	}
	f.flushes++
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), 0, nil
}

func (f *fakeSink) InsertRejections(ctx context.Context, recs []rowmap.Rejection) error {
	f.rejections = append(f.rejections, recs...)
	return nil
}

func (f *fakeSink) InsertRow(ctx context.Context, tmpl *schema.Template, row *rowmap.Row) error {
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeSink) Rejection(ctx context.Context, id int64) (*rowmap.Rejection, error) {
	if f.rec == nil || f.rec.ID != id {
		return nil, fmt.Errorf("rejection %d: %w", id, schema.ErrNotFound)
	}
	return f.rec, nil
}

func (f *fakeSink) DeleteRejection(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSink) HasRow(ctx context.Context, sourceFile, rowNumber string) (bool, error) {
	return f.hasRow, nil
}

func (f *fakeSink) UpdateRowFields(ctx context.Context, tmpl *schema.Template, sourceFile, rowNumber string, fields map[string]any) error {
	if f.updated == nil {
		f.updated = map[string]map[string]any{}
	}
	f.updated[sourceFile+":"+rowNumber] = fields
	return nil
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testMappings() Mappings {
	return Mappings{"*": {"序号": "ID", "日期": "记账日期", "金额": "交易金额"}}
}

func TestRunBatchSurvivesBadFile(t *testing.T) {
	dir := t.TempDir()
	good1 := writeCSV(t, dir, "one.csv", "序号,日期,金额\n1,20210610,100\n2,20210611,200\n")
	missing := filepath.Join(dir, "gone.csv")
	good2 := writeCSV(t, dir, "three.csv", "序号,日期,金额\n3,20210612,300\n")

	sink := &fakeSink{}
	c := New(testRegistry(t), sink, config.Default().Ingest, nil)

	sum, err := c.Run(context.Background(), []string{good1, missing, good2}, testMappings(), "test")
	require.NoError(t, err)
	require.NotEmpty(t, sum.RunID)
	require.Len(t, sum.Files, 3)

	require.Equal(t, int64(2), sum.Files[0].ProcessedRows)
	require.NotEmpty(t, sum.Files[1].Err)
	require.Equal(t, int64(1), sum.Files[2].ProcessedRows)

	// Totals count only the files that went through.
	require.Equal(t, int64(3), sum.TotalProcessed)
	require.Equal(t, int64(0), sum.TotalRejected)
	require.Len(t, sink.rows, 3)
}

func TestRunRecordsRejections(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "mixed.csv",
		"序号,日期,金额\n1,20210610,100\n2,someday,200\n3,20210612,nonsense\n")

	sink := &fakeSink{}
	c := New(testRegistry(t), sink, config.Default().Ingest, nil)

	sum, err := c.Run(context.Background(), []string{path}, testMappings(), "test")
	require.NoError(t, err)
	require.Equal(t, int64(1), sum.TotalProcessed)
	require.Equal(t, int64(2), sum.TotalRejected)
	require.Len(t, sink.rejections, 2)

	byRow := map[string]rowmap.Rejection{}
	for _, r := range sink.rejections {
		byRow[r.RowNumber] = r
	}
	require.Equal(t, "记账日期", byRow["2"].TargetColumn)
	require.Equal(t, "someday", byRow["2"].OriginalValue)
	require.Contains(t, byRow["3"].RawData, "20210612", "raw row snapshot must carry sibling cells")
}

func TestRunSkipsBlankRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "blank.csv", "序号,日期,金额\n1,20210610,100\n,,\n")

	sink := &fakeSink{}
	c := New(testRegistry(t), sink, config.Default().Ingest, nil)

	sum, err := c.Run(context.Background(), []string{path}, testMappings(), "test")
	require.NoError(t, err)
	require.Equal(t, int64(1), sum.TotalProcessed)
	require.Equal(t, int64(0), sum.TotalRejected)
}

func TestRunNoMappingForFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "a.csv", "序号\n1\n")

	sink := &fakeSink{}
	c := New(testRegistry(t), sink, config.Default().Ingest, nil)

	sum, err := c.Run(context.Background(), []string{path}, Mappings{}, "test")
	require.NoError(t, err)
	require.Contains(t, sum.Files[0].Err, "mapping")
}

func TestRunUnknownTemplateIsFatal(t *testing.T) {
	sink := &fakeSink{}
	c := New(testRegistry(t), sink, config.Default().Ingest, nil)

	_, err := c.Run(context.Background(), []string{"x.csv"}, testMappings(), "nope")
	require.ErrorIs(t, err, schema.ErrNotFound)
}

func TestRunFlushFailureStopsOnlyThatFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "a.csv", "序号,日期,金额\n1,20210610,100\n")

	sink := &fakeSink{failInsertRows: true}
	c := New(testRegistry(t), sink, config.Default().Ingest, nil)

	sum, err := c.Run(context.Background(), []string{path}, testMappings(), "test")
	require.NoError(t, err)
	require.Contains(t, sum.Files[0].Err, "sink unavailable")
	require.Zero(t, sum.TotalProcessed)
}

func TestRunChunkedFlushes(t *testing.T) {
	dir := t.TempDir()

	var b strings.Builder
	b.WriteString("序号,日期,金额\n")
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "%d,20210610,%d\n", i, i*10)
	}
	path := writeCSV(t, dir, "big.csv", b.String())

	sink := &fakeSink{}
	cfg := config.IngestConfig{ChunkRows: 4, FlushEveryChunks: 2, SmallFileBytes: 1}
	c := New(testRegistry(t), sink, cfg, nil)

	sum, err := c.Run(context.Background(), []string{path}, testMappings(), "test")
	require.NoError(t, err)
	require.Equal(t, int64(25), sum.TotalProcessed)
	require.Equal(t, int64(25), sum.Files[0].TotalRows)
	require.Len(t, sink.rows, 25)
	// 7 chunks at flush-every-2 gives three mid-run flushes plus the final one.
	require.Equal(t, 4, sink.flushes)

	// Row numbers are positional across chunk boundaries.
	require.Equal(t, "5", sink.rows[4].RowNumber)
	require.Equal(t, "25", sink.rows[24].RowNumber)
}

func TestMappingsFallbackOrder(t *testing.T) {
	m := Mappings{
		"/in/a.csv": {"x": "full"},
		"a.csv":     {"x": "base"},
		"*":         {"x": "star"},
	}
	require.Equal(t, "full", m.For("/in/a.csv")["x"])
	require.Equal(t, "base", m.For("/other/a.csv")["x"])
	require.Equal(t, "star", m.For("/other/b.csv")["x"])
}

func TestRecentFiles(t *testing.T) {
	r := NewRecentFiles(3)
	r.Touch("a")
	r.Touch("b")
	r.Touch("c")
	r.Touch("a") // moves to front, no duplicate
	require.Equal(t, []string{"a", "c", "b"}, r.List())

	r.Touch("d") // evicts the oldest
	require.Equal(t, []string{"d", "a", "c"}, r.List())
}
