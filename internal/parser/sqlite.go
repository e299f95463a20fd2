package parser

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
	_ "modernc.org/sqlite"
)

type sqliteParser struct{}

func (sqliteParser) CanParse(filename string) bool {
	return hasExt(filename, ".sqlite", ".sqlite3", ".db")
}

// Parse reads one table of the SQLite database at source. The table comes
// from Options.Table, or is the only table in the file. NULL leaves the value
// missing.
func (sqliteParser) Parse(source string, _ []byte, opt Options) (ingest.Input, error) {
	ctx := opt.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := sql.Open("sqlite", readOnlyDSN(source))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	table, err := pickTable(ctx, db, source, opt.Table)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+`"`+strings.ReplaceAll(table, `"`, `""`)+`"`)
	if err != nil {
		return nil, fmt.Errorf("query table %s: %w", table, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := ingest.Objects{Source: source}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out.Records)+1, err)
		}
		obj := make(ingest.Object, 0, len(cols))
		for i, c := range cols {
			if s, ok := sqlText(vals[i]); ok {
				obj = append(obj, ingest.Field{Name: c, Value: s})
			}
		}
		out.Records = append(out.Records, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: %w", table, err)
	}
	return out, nil
}

// readOnlyDSN builds a file: URI for path. '?', '#' and '%' in the path are
// percent-encoded so SQLite does not read them as URI syntax.
func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Opaque: (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath(), RawQuery: "mode=ro"}
	return u.String()
}

func pickTable(ctx context.Context, db *sql.DB, source, want string) (string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("list tables: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	sort.Strings(tables)
	if want != "" {
		for _, t := range tables {
			if strings.EqualFold(t, want) {
				return t, nil
			}
		}
		return "", &dataset.ImportError{Source: source, Reason: fmt.Sprintf("table %q not found (available: %s)", want, strings.Join(tables, ", "))}
	}
	switch len(tables) {
	case 0:
		return "", &dataset.ImportError{Source: source, Reason: "database has no tables"}
	case 1:
		return tables[0], nil
	}
	return "", &dataset.ImportError{Source: source, Reason: fmt.Sprintf("several tables, pick one with --table (available: %s)", strings.Join(tables, ", "))}
}

func sqlText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case []byte:
		return string(x), true
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return dataset.FormatNumber(x), true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		return x.Format(time.RFC3339), true
	}
	return fmt.Sprint(v), true
}
