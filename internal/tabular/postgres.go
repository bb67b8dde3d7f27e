package tabular

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// invalidCatalogName is the SQLSTATE for a database that does not exist.
const invalidCatalogName = "3D000"

// PostgresStore reads tables from the public schema of a Postgres database.
// Every call opens its own connection and queries run inside a READ ONLY
// transaction that is always rolled back.
type PostgresStore struct {
	DSN    string
	Schema string

	dial func(ctx context.Context, dsn string) (*pgx.Conn, error)
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(dsn string) *PostgresStore {
	return &PostgresStore{DSN: dsn, Schema: "public"}
}

func (s *PostgresStore) schema() string {
	if s.Schema == "" {
		return "public"
	}
	return s.Schema
}

func (s *PostgresStore) connect(ctx context.Context) (*pgx.Conn, pgx.Tx, error) {
	dial := s.dial
	if dial == nil {
		dial = pgx.Connect
	}
	conn, err := dial(ctx, s.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect store: %w", err)
	}
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		_ = conn.Close(ctx)
		return nil, nil, fmt.Errorf("begin read only transaction: %w", err)
	}
	return conn, tx, nil
}

func release(ctx context.Context, conn *pgx.Conn, tx pgx.Tx) {
	_ = tx.Rollback(ctx)
	_ = conn.Close(ctx)
}

// Summarize returns "" for a database that has not been created yet, the
// same as a missing sqlite file.
func (s *PostgresStore) Summarize(ctx context.Context) (string, error) {
	conn, tx, err := s.connect(ctx)
	if isMissingDatabase(err) {
		slog.Debug("store database does not exist yet", "error", err)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer release(ctx, conn, tx)

	names, err := pgStrings(ctx, tx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, s.schema())
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}

	tables := make([]tableSummary, 0, len(names))
	for _, name := range names {
		columns, err := pgStrings(ctx, tx, `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2
			ORDER BY ordinal_position`, s.schema(), name)
		if err != nil {
			return "", fmt.Errorf("columns of %s: %w", name, err)
		}

		ident := pgx.Identifier{s.schema(), name}.Sanitize()
		rows, err := tx.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", ident, SampleRowLimit))
		if err != nil {
			return "", fmt.Errorf("sample %s: %w", name, err)
		}
		_, samples, err := collectPgRows(rows)
		if err != nil {
			return "", fmt.Errorf("sample %s: %w", name, err)
		}
		tables = append(tables, tableSummary{Name: name, Columns: columns, Samples: samples})
	}
	return formatSummary(tables), nil
}

func (s *PostgresStore) Execute(ctx context.Context, query string) (Result, bool) {
	if !IsReadOnlyQuery(query) {
		return Result{}, false
	}

	conn, tx, err := s.connect(ctx)
	if err != nil {
		slog.Debug("connect store failed", "error", err)
		return Result{}, false
	}
	defer release(ctx, conn, tx)

	rows, err := tx.Query(ctx, query)
	if err != nil {
		slog.Debug("query failed", "error", err)
		return Result{}, false
	}
	columns, data, err := collectPgRows(rows)
	if err != nil {
		slog.Debug("read query rows failed", "error", err)
		return Result{}, false
	}
	return Result{Columns: columns, Rows: data}, true
}

func isMissingDatabase(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidCatalogName
}

func pgStrings(ctx context.Context, tx pgx.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func collectPgRows(rows pgx.Rows) ([]string, [][]any, error) {
	defer rows.Close()

	fds := rows.FieldDescriptions()
	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = fd.Name
	}

	out := [][]any{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		for i, v := range vals {
			vals[i] = normalizeValue(v)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, out, nil
}
