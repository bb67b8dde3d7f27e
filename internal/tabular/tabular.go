// Package tabular reads the business data the assistant answers questions about.
// A Store produces a compact schema summary used to ground the model and runs
// read-only queries, opening the underlying database for each call.
package tabular

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SampleRowLimit bounds the sample rows listed per table in a summary.
const SampleRowLimit = 3

// Result is a successful query: column headers followed by rows of equal arity.
// A Result with no rows is distinct from a failed query, which Execute reports
// with ok=false.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Empty reports whether the query matched nothing.
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

type Store interface {
	// Summarize lists every user table with its ordered columns and up to
	// SampleRowLimit sample rows. A store that does not exist yet yields "".
	Summarize(ctx context.Context) (string, error)
	// Execute runs a read-only query. ok is false when the text is not a
	// SELECT or the query fails for any reason.
	Execute(ctx context.Context, query string) (res Result, ok bool)
}

// IsReadOnlyQuery is the verb allow-list applied before anything reaches a store.
func IsReadOnlyQuery(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}

var identifierPattern = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeIdentifier maps a spreadsheet header to a queryable column name.
func SanitizeIdentifier(name string) string {
	clean := identifierPattern.ReplaceAllString(name, "_")
	return strings.Trim(clean, "_")
}

type tableSummary struct {
	Name    string
	Columns []string
	Samples [][]any
}

func formatSummary(tables []tableSummary) string {
	lines := make([]string, 0, len(tables)*3)
	for _, t := range tables {
		lines = append(lines, "\nTable: "+t.Name)
		lines = append(lines, "Columns: "+strings.Join(t.Columns, ", "))
		lines = append(lines, "Sample Data: "+FormatRows(t.Samples))
	}
	return strings.Join(lines, "\n")
}

// FormatRows renders rows as a compact literal list, e.g. [(1, 'Oct', 38.5)].
func FormatRows(rows [][]any) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(formatValue(v))
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(']')
	return sb.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		return "'" + strings.ReplaceAll(val, "'", `\'`) + "'"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		return "'" + val.Format(time.RFC3339) + "'"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// normalizeValue converts driver-specific values into plain Go values.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case driver.Valuer:
		out, err := val.Value()
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		if b, ok := out.([]byte); ok {
			return string(b)
		}
		return out
	default:
		return v
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
