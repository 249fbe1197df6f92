// Package store is the relational sink for canonical rows and rejection
// records. It speaks two backends through one database/sql surface: a local
// SQLite file (the default) and Postgres when the sink location is a
// postgres:// DSN. Accepted rows land in a wide "transactions" table created
// from the active template; rejections queue in "rejected_rows" awaiting
// manual repair.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"bankmerge/internal/rowmap"
	"bankmerge/internal/schema"
)

const (
	transactionsTable = "transactions"
	rejectedTable     = "rejected_rows"
)

// Store holds one sink connection for the duration of a run.
type Store struct {
	db *sql.DB
	d  dialect

	mu       sync.Mutex
	rejReady bool
}

// Open connects to the sink at location: a postgres://, postgresql:// DSN,
// or otherwise a SQLite database path (created on first write).
func Open(ctx context.Context, location string) (*Store, error) {
	var d dialect = sqliteDialect{}
	dsn := location
	if strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://") {
		d = postgresDialect{}
	}

	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", location, err)
	}
	if _, ok := d.(sqliteDialect); ok {
		// One connection: single-threaded runs, and modernc's writer lock
		// behaves best without connection churn.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma: %w", err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", location, err)
	}
	return &Store{db: db, d: d}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// rowColumns is the full column list of the wide table for tmpl, in template
// declaration order plus the two identity columns.
func rowColumns(tmpl *schema.Template) []string {
	cols := tmpl.FieldNames()
	return append(cols, rowmap.ColSourceFile, rowmap.ColRowNumber)
}

// EnsureSchema creates the wide table for tmpl if missing. The identifier
// column is TEXT UNIQUE regardless of its declared type — the table is keyed
// by identifier as a string, and the unique constraint backs the
// conflict-ignore insert policy.
func (s *Store) EnsureSchema(ctx context.Context, tmpl *schema.Template) error {
	defs := make([]string, 0, len(tmpl.Fields)+2)
	for _, f := range tmpl.Fields {
		if f.Identifier {
			defs = append(defs, quoteIdent(f.Name)+" TEXT UNIQUE")
			continue
		}
		defs = append(defs, quoteIdent(f.Name)+" "+s.d.columnType(f.Type))
	}
	defs = append(defs,
		quoteIdent(rowmap.ColSourceFile)+" TEXT",
		quoteIdent(rowmap.ColRowNumber)+" TEXT",
	)
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", transactionsTable, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("store: create %s: %w", transactionsTable, err)
	}
	return nil
}

func (s *Store) ensureRejected(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejReady {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.d.createRejected()); err != nil {
		return fmt.Errorf("store: create %s: %w", rejectedTable, err)
	}
	s.rejReady = true
	return nil
}

// InsertRows writes accepted rows inside one transaction with the
// conflict-ignore policy: re-ingesting an identifier already present is a
// silent no-op counted in ignored. Rows the driver rejects at the binding
// level walk the sanitizer ladder under a per-row savepoint; a row failing
// every rung is dropped with a log line and does not fail the batch.
func (s *Store) InsertRows(ctx context.Context, tmpl *schema.Template, rows []*rowmap.Row) (inserted, ignored int64, err error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}
	cols := rowColumns(tmpl)
	stmtSQL := s.d.insertIgnore(transactionsTable, cols, tmpl.Identifier())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, 0, fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	ladder := writeLadder()
	for _, row := range rows {
		vals := rowValues(tmpl, row)

		var res sql.Result
		var execErr error
		for _, rung := range ladder {
			if _, spErr := tx.ExecContext(ctx, "SAVEPOINT row_write"); spErr != nil {
				err = fmt.Errorf("store: savepoint: %w", spErr)
				return inserted, ignored, err
			}
			res, execErr = stmt.ExecContext(ctx, sanitizeRow(vals, rung)...)
			if execErr == nil {
				if _, relErr := tx.ExecContext(ctx, "RELEASE SAVEPOINT row_write"); relErr != nil {
					err = fmt.Errorf("store: release savepoint: %w", relErr)
					return inserted, ignored, err
				}
				break
			}
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT row_write"); rbErr != nil {
				err = fmt.Errorf("store: rollback savepoint: %w", rbErr)
				return inserted, ignored, err
			}
		}
		if execErr != nil {
			log.Printf("store: dropping row %s:%s after retry ladder: %v", row.SourceFile, row.RowNumber, execErr)
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			ignored++
		} else {
			inserted++
		}
	}

	if err = tx.Commit(); err != nil {
		return inserted, ignored, fmt.Errorf("store: commit: %w", err)
	}
	return inserted, ignored, nil
}

// InsertRow writes one canonical row (manual repair path) without the
// conflict-ignore policy, so genuine identifier collisions surface.
func (s *Store) InsertRow(ctx context.Context, tmpl *schema.Template, row *rowmap.Row) error {
	cols := rowColumns(tmpl)
	ph := make([]string, len(cols))
	for i := range ph {
		ph[i] = s.d.placeholder(i + 1)
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		transactionsTable, strings.Join(quoteAll(cols), ", "), strings.Join(ph, ", "),
	)
	vals := rowValues(tmpl, row)
	for _, rung := range writeLadder() {
		if _, err := s.db.ExecContext(ctx, stmt, sanitizeRow(vals, rung)...); err == nil {
			return nil
		} else if rung.name == "stringify-all" {
			return fmt.Errorf("store: insert row %s:%s: %w", row.SourceFile, row.RowNumber, err)
		}
	}
	return nil
}

func rowValues(tmpl *schema.Template, row *rowmap.Row) []any {
	vals := make([]any, 0, len(tmpl.Fields)+2)
	for _, f := range tmpl.Fields {
		vals = append(vals, row.Fields[f.Name])
	}
	return append(vals, row.SourceFile, row.RowNumber)
}

// InsertRejections appends rejection records, creating the queue table on
// first use.
func (s *Store) InsertRejections(ctx context.Context, recs []rowmap.Rejection) error {
	if len(recs) == 0 {
		return nil
	}
	if err := s.ensureRejected(ctx); err != nil {
		return err
	}

	cols := []string{"source_file", "row_number", "column_name", "target_column", "original_value", "raw_data", "reason", "fingerprint"}
	ph := make([]string, len(cols))
	for i := range ph {
		ph[i] = s.d.placeholder(i + 1)
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		rejectedTable, strings.Join(cols, ", "), strings.Join(ph, ", "),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("store: prepare rejection insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		_, err := stmt.ExecContext(ctx,
			r.SourceFile, r.RowNumber, r.ColumnName, r.TargetColumn,
			r.OriginalValue, r.RawData, r.Reason, strconv.FormatUint(r.Fingerprint, 16),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store: insert rejection: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit rejections: %w", err)
	}
	return nil
}

// Rejection fetches one queued record by id.
func (s *Store) Rejection(ctx context.Context, id int64) (*rowmap.Rejection, error) {
	if err := s.ensureRejected(ctx); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(
		"SELECT id, source_file, row_number, column_name, target_column, original_value, raw_data, reason, fingerprint FROM %s WHERE id = %s",
		rejectedTable, s.d.placeholder(1),
	)
	var rec rowmap.Rejection
	var fp string
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.SourceFile, &rec.RowNumber, &rec.ColumnName, &rec.TargetColumn,
		&rec.OriginalValue, &rec.RawData, &rec.Reason, &fp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rejection %d: %w", id, schema.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get rejection %d: %w", id, err)
	}
	rec.Fingerprint, _ = strconv.ParseUint(fp, 16, 64)
	return &rec, nil
}

// DeleteRejection removes one queued record by id.
func (s *Store) DeleteRejection(ctx context.Context, id int64) error {
	if err := s.ensureRejected(ctx); err != nil {
		return err
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE id = %s", rejectedTable, s.d.placeholder(1))
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("store: delete rejection %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rejection %d: %w", id, schema.ErrNotFound)
	}
	return nil
}

// HasRow reports whether a canonical row already exists for the identity
// pair.
func (s *Store) HasRow(ctx context.Context, sourceFile, rowNumber string) (bool, error) {
	q := fmt.Sprintf(
		"SELECT 1 FROM %s WHERE %s = %s AND %s = %s LIMIT 1",
		transactionsTable,
		quoteIdent(rowmap.ColSourceFile), s.d.placeholder(1),
		quoteIdent(rowmap.ColRowNumber), s.d.placeholder(2),
	)
	var one int
	err := s.db.QueryRowContext(ctx, q, sourceFile, rowNumber).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: probe row %s:%s: %w", sourceFile, rowNumber, err)
	}
	return true, nil
}

// UpdateRowFields patches only the given fields of the row identified by
// (source_file, row_number) — never a blanket overwrite.
func (s *Store) UpdateRowFields(ctx context.Context, tmpl *schema.Template, sourceFile, rowNumber string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if _, ok := tmpl.Field(name); !ok {
			return fmt.Errorf("field %q: %w", name, schema.ErrNotFound)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	set := make([]string, len(names))
	args := make([]any, 0, len(names)+2)
	for i, name := range names {
		set[i] = fmt.Sprintf("%s = %s", quoteIdent(name), s.d.placeholder(i+1))
		args = append(args, fields[name])
	}
	args = append(args, sourceFile, rowNumber)
	q := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = %s AND %s = %s",
		transactionsTable, strings.Join(set, ", "),
		quoteIdent(rowmap.ColSourceFile), s.d.placeholder(len(names)+1),
		quoteIdent(rowmap.ColRowNumber), s.d.placeholder(len(names)+2),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store: update row %s:%s: %w", sourceFile, rowNumber, err)
	}
	return nil
}
