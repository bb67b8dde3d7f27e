package tabular

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func failingDial(err error) func(context.Context, string) (*pgx.Conn, error) {
	return func(context.Context, string) (*pgx.Conn, error) {
		return nil, err
	}
}

func TestPostgresSummarizeMissingDatabaseIsEmpty(t *testing.T) {
	missing := fmt.Errorf("failed to connect: %w", &pgconn.PgError{Code: invalidCatalogName, Message: `database "corp" does not exist`})
	store := &PostgresStore{DSN: "postgres://localhost/corp", dial: failingDial(missing)}

	summary, err := store.Summarize(context.Background())
	if err != nil {
		t.Fatalf("expected no error for a missing database, got %v", err)
	}
	if summary != "" {
		t.Fatalf("expected empty summary, got %q", summary)
	}
}

func TestPostgresSummarizeOtherFailuresPropagate(t *testing.T) {
	cases := map[string]error{
		"auth":    &pgconn.PgError{Code: "28P01", Message: "password authentication failed"},
		"network": errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
	}
	for name, cause := range cases {
		t.Run(name, func(t *testing.T) {
			store := &PostgresStore{DSN: "postgres://localhost/corp", dial: failingDial(cause)}
			if _, err := store.Summarize(context.Background()); !errors.Is(err, cause) {
				t.Fatalf("expected %v to propagate, got %v", cause, err)
			}
		})
	}
}

func TestPostgresExecuteConnectFailureIsNoResult(t *testing.T) {
	store := &PostgresStore{dial: failingDial(errors.New("connection refused"))}
	if _, ok := store.Execute(context.Background(), "SELECT 1"); ok {
		t.Fatalf("expected no result when the store is unreachable")
	}
}
