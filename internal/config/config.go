// Package config defines the JSON-serializable configuration model for the
// bankmerge tool. It is intentionally small and dependency-free: decoding is
// performed by the standard library, custom templates are declared as
// ordered field arrays (declaration order drives matcher tie-breaking), and
// a light linter reports problems before a run starts.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"bankmerge/internal/schema"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	// Sink is the default sink location: a SQLite path or a postgres:// DSN.
	// CLI flags override it.
	Sink string `json:"sink,omitempty"`

	// Templates registers additional field templates next to the built-in
	// one. At most one may set "default".
	Templates []TemplateConfig `json:"templates,omitempty"`

	// AccountField names the template field used for per-account statistics.
	AccountField string `json:"account_field,omitempty"`

	Match   MatchConfig   `json:"match"`
	Ingest  IngestConfig  `json:"ingest"`
	Metrics MetricsConfig `json:"metrics"`
}

// TemplateConfig declares one named template with ordered fields.
type TemplateConfig struct {
	Name    string         `json:"name"`
	Default bool           `json:"default,omitempty"`
	Fields  []schema.Field `json:"fields"`
}

// MatchConfig controls the column matcher acceptance policy.
type MatchConfig struct {
	// Threshold is the similarity a fuzzy match must exceed to be suggested.
	Threshold float64 `json:"threshold,omitempty"`
}

// IngestConfig controls chunking and batching during ingestion.
type IngestConfig struct {
	// ChunkRows is the window size for large-file streaming reads.
	ChunkRows int `json:"chunk_rows,omitempty"`

	// FlushEveryChunks bounds peak memory: accumulated rows and rejections
	// are flushed to the sink every N chunks.
	FlushEveryChunks int `json:"flush_every_chunks,omitempty"`

	// SmallFileBytes is the size threshold below which a file is read and
	// mapped in a single pass.
	SmallFileBytes int64 `json:"small_file_bytes,omitempty"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	// Backend is "datadog" or "" / "none".
	Backend   string `json:"backend,omitempty"`
	Addr      string `json:"addr,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		AccountField: "账号",
		Match:        MatchConfig{Threshold: 0.6},
		Ingest: IngestConfig{
			ChunkRows:        2000,
			FlushEveryChunks: 5,
			SmallFileBytes:   8 << 20,
		},
	}
}

// Load reads and decodes a config file, filling unset values from Default.
func Load(path string) (Config, error) {
	c := Default()
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return c, fmt.Errorf("decode config %s: %w", path, err)
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Match.Threshold <= 0 {
		c.Match.Threshold = d.Match.Threshold
	}
	if c.Ingest.ChunkRows <= 0 {
		c.Ingest.ChunkRows = d.Ingest.ChunkRows
	}
	if c.Ingest.FlushEveryChunks <= 0 {
		c.Ingest.FlushEveryChunks = d.Ingest.FlushEveryChunks
	}
	if c.Ingest.SmallFileBytes <= 0 {
		c.Ingest.SmallFileBytes = d.Ingest.SmallFileBytes
	}
	if c.AccountField == "" {
		c.AccountField = d.AccountField
	}
}

// Registry builds a schema registry seeded with the built-in template plus
// every configured template.
func (c Config) Registry() (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, tc := range c.Templates {
		t := &schema.Template{Name: tc.Name, Fields: tc.Fields}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		reg.Put(tc.Name, t, tc.Default)
	}
	return reg, nil
}
