// Package analyze inspects the first rows of a spreadsheet and suggests a
// column mapping: for every source column it detects a probable type and
// scores the best canonical field of a template, surfacing the match only
// when it beats the acceptance threshold.
package analyze

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"bankmerge/internal/cell"
	"bankmerge/internal/match"
	"bankmerge/internal/reader"
	"bankmerge/internal/schema"
)

// ProbeRows caps how many rows are sampled per file.
const ProbeRows = 100

// sampleValues caps how many example values are reported per column.
const sampleValues = 5

// Column describes one source column of an analyzed file.
type Column struct {
	OriginalName string           `json:"original_name"`
	DetectedType schema.FieldType `json:"detected_type"`
	MappedTo     string           `json:"mapped_to,omitempty"`
	Similarity   float64          `json:"similarity"`
	SampleValues []string         `json:"sample_values"`
}

// Report is the analysis result for one file. Err is set (and the other
// fields zero) when the file could not be read; a bad file never fails the
// batch.
type Report struct {
	FileName  string   `json:"file_name"`
	TotalRows int      `json:"total_rows"`
	Columns   []Column `json:"columns"`
	Err       string   `json:"error,omitempty"`
}

// File analyzes a single spreadsheet against tmpl. threshold <= 0 falls back
// to match.DefaultThreshold.
func File(ctx context.Context, open reader.OpenFunc, path string, tmpl *schema.Template, threshold float64) (*Report, error) {
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	if open == nil {
		open = reader.Open
	}
	r, err := open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rows, err := r.Read(ctx, 0, ProbeRows)
	if err != nil {
		return nil, err
	}

	rep := &Report{FileName: filepath.Base(path), TotalRows: len(rows)}
	for _, name := range r.Headers() {
		if name == "" {
			continue
		}
		col := Column{
			OriginalName: name,
			DetectedType: detectType(columnValues(rows, name)),
			SampleValues: samples(rows, name),
		}
		field, score := match.Best(name, tmpl)
		col.Similarity = score
		if score > threshold {
			col.MappedTo = field
		}
		rep.Columns = append(rep.Columns, col)
	}
	return rep, nil
}

// Files analyzes a batch concurrently with at most workers files in flight.
// Results stay aligned with paths; per-file failures land in Report.Err.
// Only analysis fans out — ingestion remains strictly sequential.
func Files(ctx context.Context, open reader.OpenFunc, paths []string, tmpl *schema.Template, threshold float64, workers int) []*Report {
	if workers <= 0 {
		workers = 4
	}
	reports := make([]*Report, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			rep, err := File(gctx, open, path, tmpl, threshold)
			if err != nil {
				rep = &Report{FileName: filepath.Base(path), Err: err.Error()}
			}
			reports[i] = rep
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are in-band
	return reports
}

var (
	dateRe = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}$|^\d{2}[-/]\d{1,2}[-/]\d{4}$|^\d{8}$`)
	timeRe = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
)

// detectType guesses a column's type from its sampled non-blank values.
// Date and time shapes are checked first (an all-8-digit column reads as a
// compact date, not a large number). Remaining all-numeric columns become
// int when the values look like a small unique key space (distinct,
// non-negative, below 10000), float otherwise; everything else is text.
func detectType(values []string) schema.FieldType {
	if len(values) == 0 {
		return schema.TypeText
	}
	if matchAll(values, dateRe) {
		return schema.TypeDate
	}
	if matchAll(values, timeRe) {
		return schema.TypeTime
	}

	numeric := true
	seen := make(map[string]struct{}, len(values))
	unique, small := true, true
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			numeric = false
			break
		}
		if _, dup := seen[v]; dup {
			unique = false
		}
		seen[v] = struct{}{}
		if f < 0 || f >= 10000 {
			small = false
		}
	}
	if numeric {
		if unique && small {
			return schema.TypeInt
		}
		return schema.TypeFloat
	}
	return schema.TypeText
}

func matchAll(values []string, re *regexp.Regexp) bool {
	for _, v := range values {
		if !re.MatchString(v) {
			return false
		}
	}
	return true
}

func columnValues(rows []cell.Row, name string) []string {
	var out []string
	for _, r := range rows {
		if v, ok := r[name]; ok && !v.IsBlank() {
			out = append(out, strings.TrimSpace(v.Text()))
		}
	}
	return out
}

func samples(rows []cell.Row, name string) []string {
	vals := columnValues(rows, name)
	if len(vals) > sampleValues {
		vals = vals[:sampleValues]
	}
	return vals
}
