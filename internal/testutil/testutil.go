package testutil

import (
	"context"
	"database/sql"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flitsinc/go-datachat/internal/state"
	"github.com/flitsinc/go-datachat/internal/tabular"
)

// MonthlySummaryCSV is a small Monthly_Overall_Summary sheet with raw
// spreadsheet headers.
const MonthlySummaryCSV = `Month,Total Sales,Transactions,Net Profit
August,3120000,1610,1850000
September,3390000,1720,2010000
October,3865000,1950,2319000
November,3550000,1840,2100000
December,4010000,2050,2460000
`

const PayrollSummaryCSV = `Department,Headcount,Total Payroll (INR)
Sales,42,2940000
Operations,35,2100000
Finance,12,1080000
`

func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	db, err := state.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db, func() {
		_ = db.Close()
	}
}

// SeedStore writes the fixture sheets into a fresh sqlite store and returns its path.
func SeedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corporate_data.db")
	ImportSheet(t, path, "Monthly Overall Summary", MonthlySummaryCSV)
	ImportSheet(t, path, "Payroll Summary", PayrollSummaryCSV)
	return path
}

func ImportSheet(t *testing.T, dbPath, table, body string) {
	t.Helper()
	if _, err := tabular.ImportRecords(context.Background(), dbPath, table, csv.NewReader(strings.NewReader(body))); err != nil {
		t.Fatalf("import %s: %v", table, err)
	}
}
