package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

var _ ports.CandidateSource = (*SQLSource)(nil)

// SQLSource reads candidates with a query that selects a single text
// column. NULL rows are skipped. Any database/sql driver works; the CLI
// registers postgres (lib/pq) and sqlite (modernc.org/sqlite).
type SQLSource struct {
	db    *sql.DB
	name  string
	query string
	args  []any
}

// NewSQLSource wraps an open database. name identifies the source in
// errors and logs.
func NewSQLSource(db *sql.DB, name, query string, args ...any) *SQLSource {
	return &SQLSource{db: db, name: name, query: query, args: args}
}

// OpenSQLSource opens a database with driver and dsn and verifies it is
// reachable. The caller owns the returned *sql.DB and must close it.
func OpenSQLSource(ctx context.Context, driver, dsn, query string) (*SQLSource, *sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, ports.NewSourceError(driver, "open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, ports.NewSourceError(driver, "ping", err)
	}
	return NewSQLSource(db, driver, query), db, nil
}

// Load implements ports.CandidateSource.
func (s *SQLSource) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, ports.NewSourceError(s.name, "query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, ports.NewSourceError(s.name, "columns", err)
	}
	if len(cols) != 1 {
		return nil, ports.NewSourceError(s.name, "columns",
			fmt.Errorf("%w: query must select exactly one column, got %d", ports.ErrInvalidResponse, len(cols)))
	}

	var labels []string
	for rows.Next() {
		var label sql.NullString
		if err := rows.Scan(&label); err != nil {
			return nil, ports.NewSourceError(s.name, "scan", err)
		}
		if label.Valid {
			labels = append(labels, label.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ports.NewSourceError(s.name, "rows", err)
	}
	return labels, nil
}
