package store

import (
	"fmt"
	"strings"

	"bankmerge/internal/schema"
)

// dialect captures the SQL differences between the supported sinks. Both
// tables use quoted identifiers throughout because canonical field names are
// routinely non-ASCII.
type dialect interface {
	driverName() string
	placeholder(n int) string // 1-based position
	columnType(t schema.FieldType) string
	insertIgnore(table string, cols []string, conflictCol string) string
	createRejected() string
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}

type sqliteDialect struct{}

func (sqliteDialect) driverName() string       { return "sqlite" }
func (sqliteDialect) placeholder(n int) string { return "?" }

func (sqliteDialect) columnType(t schema.FieldType) string {
	switch t {
	case schema.TypeInt:
		return "INTEGER"
	case schema.TypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (d sqliteDialect) insertIgnore(table string, cols []string, conflictCol string) string {
	ph := make([]string, len(cols))
	for i := range ph {
		ph[i] = "?"
	}
	return fmt.Sprintf(
		"INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		table, strings.Join(quoteAll(cols), ", "), strings.Join(ph, ", "),
	)
}

func (sqliteDialect) createRejected() string {
	return `CREATE TABLE IF NOT EXISTS rejected_rows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_file TEXT,
	row_number TEXT,
	column_name TEXT,
	target_column TEXT,
	original_value TEXT,
	raw_data TEXT,
	reason TEXT,
	fingerprint TEXT
)`
}

type postgresDialect struct{}

func (postgresDialect) driverName() string       { return "pgx" }
func (postgresDialect) placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) columnType(t schema.FieldType) string {
	switch t {
	case schema.TypeInt:
		return "BIGINT"
	case schema.TypeFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func (d postgresDialect) insertIgnore(table string, cols []string, conflictCol string) string {
	ph := make([]string, len(cols))
	for i := range ph {
		ph[i] = d.placeholder(i + 1)
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(quoteAll(cols), ", "), strings.Join(ph, ", "),
	)
	if conflictCol != "" {
		stmt += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", quoteIdent(conflictCol))
	}
	return stmt
}

func (postgresDialect) createRejected() string {
	return `CREATE TABLE IF NOT EXISTS rejected_rows (
	id BIGSERIAL PRIMARY KEY,
	source_file TEXT,
	row_number TEXT,
	column_name TEXT,
	target_column TEXT,
	original_value TEXT,
	raw_data TEXT,
	reason TEXT,
	fingerprint TEXT
)`
}
