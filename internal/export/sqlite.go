package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	_ "modernc.org/sqlite"
)

// TableName derives a table name from a file path: the lowercased base name
// without extension, with anything outside [a-z0-9_] replaced by '_'.
func TableName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "data"
	}
	return name
}

// sqlNumber binds a numeric value as int64 when its text is an integer that
// fits, else as float64.
func sqlNumber(v string) any {
	if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
		return n
	}
	f, _ := dataset.ParseNumber(v)
	return f
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteSQLite replaces table in the SQLite database at path with the rows of
// ds. Numeric columns are declared NUMERIC and everything else TEXT; missing
// values are stored as NULL. Integral numbers are bound as INTEGER so they keep
// full 64-bit precision, other numbers as REAL. The numeric text itself is not
// kept: "007" is stored as 7 and "1e3" as 1000. The whole write is one
// transaction.
func WriteSQLite(ctx context.Context, path, table string, ds *dataset.Dataset) error {
	schema := ds.Schema()
	if len(schema) == 0 {
		return errors.New("sqlite export needs at least one column")
	}
	if table == "" {
		table = TableName(path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	numeric := make([]bool, len(schema))
	defs := make([]string, len(schema))
	names := make([]string, len(schema))
	marks := make([]string, len(schema))
	for i, c := range schema {
		kind, _ := ds.ColumnKind(c)
		numeric[i] = kind == dataset.KindNumeric
		typ := "TEXT"
		if numeric[i] {
			typ = "NUMERIC"
		}
		names[i] = quoteIdent(c)
		defs[i] = names[i] + " " + typ
		marks[i] = "?"
	}
	qt := quoteIdent(table)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+qt); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", qt, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", qt, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(schema))
	for _, r := range ds.View() {
		for i, c := range schema {
			v, ok := r.Get(c)
			switch {
			case !ok:
				args[i] = nil
			case numeric[i]:
				args[i] = sqlNumber(v)
			default:
				args[i] = v
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
