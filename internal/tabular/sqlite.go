package tabular

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"
)

// SQLiteStore reads a sqlite file populated by the spreadsheet import.
type SQLiteStore struct {
	Path string
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{Path: path}
}

// openReadOnly opens the file in read-only mode and returns a single
// connection with query_only set, so even a statement that slips past the
// verb check cannot write.
func (s *SQLiteStore) openReadOnly(ctx context.Context) (*sql.DB, *sql.Conn, error) {
	db, err := sql.Open("sqlite", "file:"+s.Path+"?mode=ro")
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("acquire store connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON;"); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, nil, fmt.Errorf("apply query_only: %w", err)
	}
	return db, conn, nil
}

func (s *SQLiteStore) exists() bool {
	info, err := os.Stat(s.Path)
	return err == nil && !info.IsDir()
}

func (s *SQLiteStore) Summarize(ctx context.Context) (string, error) {
	if !s.exists() {
		return "", nil
	}

	db, conn, err := s.openReadOnly(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()
	defer conn.Close()

	names, err := sqliteTables(ctx, conn)
	if err != nil {
		return "", err
	}

	tables := make([]tableSummary, 0, len(names))
	for _, name := range names {
		columns, err := sqliteColumns(ctx, conn, name)
		if err != nil {
			return "", err
		}
		rows, err := conn.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(name), SampleRowLimit))
		if err != nil {
			return "", fmt.Errorf("sample %s: %w", name, err)
		}
		_, samples, err := collectRows(rows)
		if err != nil {
			return "", fmt.Errorf("sample %s: %w", name, err)
		}
		tables = append(tables, tableSummary{Name: name, Columns: columns, Samples: samples})
	}
	return formatSummary(tables), nil
}

func (s *SQLiteStore) Execute(ctx context.Context, query string) (Result, bool) {
	if !IsReadOnlyQuery(query) {
		return Result{}, false
	}
	if !s.exists() {
		slog.Debug("query against missing store", "path", s.Path)
		return Result{}, false
	}

	db, conn, err := s.openReadOnly(ctx)
	if err != nil {
		slog.Debug("open store failed", "path", s.Path, "error", err)
		return Result{}, false
	}
	defer db.Close()
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		slog.Debug("query failed", "error", err)
		return Result{}, false
	}
	columns, data, err := collectRows(rows)
	if err != nil {
		slog.Debug("read query rows failed", "error", err)
		return Result{}, false
	}
	return Result{Columns: columns, Rows: data}, true
}

func sqliteTables(ctx context.Context, conn *sql.Conn) ([]string, error) {
	rows, err := conn.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return names, nil
}

func sqliteColumns(ctx context.Context, conn *sql.Conn, table string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %s: %w", table, err)
	}
	return columns, nil
}

// collectRows drains rows into generic values and closes them.
func collectRows(rows *sql.Rows) ([]string, [][]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	out := [][]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if err := rows.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return nil, nil, err
	}
	return columns, out, nil
}
