package config

import (
	"fmt"
	"strings"

	"bankmerge/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates an issue that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates an issue surfaced to users but not
	// necessarily fatal.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "templates[1].fields"); Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can stand in for a
// single error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static checks over a decoded Config and returns every
// finding; callers decide whether warnings are fatal.
func Validate(c Config) []Issue {
	var issues []Issue

	if c.Match.Threshold < 0 || c.Match.Threshold > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "match.threshold",
			Message:  "threshold must be within [0,1]",
		})
	}

	if c.Ingest.ChunkRows < 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "ingest.chunk_rows",
			Message:  "chunk_rows must be at least 1",
		})
	}
	if c.Ingest.FlushEveryChunks < 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "ingest.flush_every_chunks",
			Message:  "flush_every_chunks must be at least 1",
		})
	}

	defaults := 0
	for i, tc := range c.Templates {
		path := fmt.Sprintf("templates[%d]", i)
		if strings.TrimSpace(tc.Name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  "template name must not be empty",
			})
		}
		if tc.Default {
			defaults++
		}
		t := schema.Template{Name: tc.Name, Fields: tc.Fields}
		if err := t.Validate(); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".fields",
				Message:  err.Error(),
			})
		}
		ids := 0
		for _, f := range tc.Fields {
			if f.Identifier {
				ids++
			}
		}
		if ids > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".fields",
				Message:  "at most one field may be the identifier",
			})
		}
		if ids == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".fields",
				Message:  "no identifier field: duplicate-ingestion protection is disabled for this template",
			})
		}
	}
	if defaults > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "templates",
			Message:  "at most one template may be marked default",
		})
	}

	switch c.Metrics.Backend {
	case "", "none", "datadog":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (use \"datadog\" or \"none\")", c.Metrics.Backend),
		})
	}
	if c.Metrics.Backend == "datadog" && strings.TrimSpace(c.Metrics.Addr) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.addr",
			Message:  "datadog backend requires an agent address",
		})
	}

	return issues
}
