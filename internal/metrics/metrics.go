// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the ingestion pipeline.
//
// It exposes a narrow Backend interface (counters plus duration-style
// histograms) behind a pluggable global that defaults to a no-op, so
// instrumentation is always safe to call even when no real backend is
// configured. Concrete metric systems live in subpackages and are installed
// via SetBackend, mirroring the storage abstraction: the rest of the
// codebase depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics if the backend buffers them.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordFile measures one file's trip through the pipeline: latency plus a
// success/failure count, labeled by run.
func RecordFile(run, file string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"run":    run,
		"file":   file,
		"status": status,
	}
	backend.IncCounter("ingest_files_total", 1, lbls)
	backend.ObserveHistogram("ingest_file_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given run. Typical kinds
// mirror the run summary fields:
//   - "processed"
//   - "rejected"
//   - "ignored" (identifier collisions)
func RecordRows(run, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("ingest_rows_total", float64(delta), Labels{
		"run":  run,
		"kind": kind,
	})
}
