package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bankmerge/internal/schema"
)

// AccountCount pairs an account value with its transaction count.
type AccountCount struct {
	Account string `json:"account"`
	Count   int64  `json:"count"`
}

// Summary aggregates sink-wide statistics for reporting.
type Summary struct {
	TotalRows    int64          `json:"total_rows"`
	RejectedRows int64          `json:"rejected_rows"`
	UniqueFiles  int64          `json:"unique_files"`
	DateMin      string         `json:"date_min,omitempty"`
	DateMax      string         `json:"date_max,omitempty"`
	TopAccounts  []AccountCount `json:"top_accounts,omitempty"`
}

// Summarize computes row/rejection counts, the distinct source-file count,
// the range of the template's first date field, and the five busiest values
// of accountField (skipped when empty or unknown).
func (s *Store) Summarize(ctx context.Context, tmpl *schema.Template, accountField string) (*Summary, error) {
	var sum Summary

	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", transactionsTable),
	).Scan(&sum.TotalRows); err != nil {
		return nil, fmt.Errorf("store: count rows: %w", err)
	}

	if err := s.ensureRejected(ctx); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", rejectedTable),
	).Scan(&sum.RejectedRows); err != nil {
		return nil, fmt.Errorf("store: count rejections: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(DISTINCT source_file) FROM %s", transactionsTable),
	).Scan(&sum.UniqueFiles); err != nil {
		return nil, fmt.Errorf("store: count files: %w", err)
	}

	if dateCol := firstDateField(tmpl); dateCol != "" {
		var lo, hi sql.NullString
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(
			"SELECT MIN(%s), MAX(%s) FROM %s",
			quoteIdent(dateCol), quoteIdent(dateCol), transactionsTable,
		)).Scan(&lo, &hi)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: date range: %w", err)
		}
		sum.DateMin, sum.DateMax = lo.String, hi.String
	}

	if accountField != "" {
		if _, ok := tmpl.Field(accountField); ok {
			q := fmt.Sprintf(
				"SELECT %s, COUNT(*) AS n FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY n DESC LIMIT 5",
				quoteIdent(accountField), transactionsTable,
				quoteIdent(accountField), quoteIdent(accountField),
			)
			rows, err := s.db.QueryContext(ctx, q)
			if err != nil {
				return nil, fmt.Errorf("store: top accounts: %w", err)
			}
			defer rows.Close()
			for rows.Next() {
				var ac AccountCount
				if err := rows.Scan(&ac.Account, &ac.Count); err != nil {
					return nil, fmt.Errorf("store: top accounts: %w", err)
				}
				sum.TopAccounts = append(sum.TopAccounts, ac)
			}
			if err := rows.Err(); err != nil {
				return nil, fmt.Errorf("store: top accounts: %w", err)
			}
		}
	}
	return &sum, nil
}

func firstDateField(tmpl *schema.Template) string {
	for _, f := range tmpl.Fields {
		if f.Type == schema.TypeDate {
			return f.Name
		}
	}
	return ""
}
