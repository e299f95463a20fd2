// Package filter turns (column, operator, literal) triples into row predicates.
//
// The column is classified once per Build call. Numeric columns compared with a
// numeric literal use numeric comparisons; everything else compares strings,
// where the ordering operators compare value length in characters rather than
// lexicographic order. A row without the column never matches, whatever the operator.
package filter

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/logging"
)

// Condition is one parsed "column operator value" clause.
type Condition struct {
	Column   string
	Operator string
	Value    string
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Column, c.Operator, c.Value)
}

// Operators lists the accepted operator spellings.
var Operators = []string{"=", "!=", "<", ">", "<=", "=<", ">=", "=>", "in"}

// canonical maps alternate spellings onto one form.
func canonical(op string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "=", "==":
		return "=", true
	case "!=", "<>":
		return "!=", true
	case "<":
		return "<", true
	case ">":
		return ">", true
	case "<=", "=<":
		return "<=", true
	case ">=", "=>":
		return ">=", true
	case "in":
		return "in", true
	}
	return "", false
}

// Build returns a predicate for column op literal over ds. It fails with
// UnknownColumnError before looking at the operator.
func Build(ds *dataset.Dataset, column, op, literal string) (dataset.Predicate, error) {
	kind, err := ds.ColumnKind(column)
	if err != nil {
		return nil, err
	}
	canon, ok := canonical(op)
	if !ok {
		return nil, &dataset.UnsupportedOperatorError{Operator: op}
	}
	if kind == dataset.KindNumeric {
		if n, ok := dataset.ParseNumber(literal); ok {
			return numeric(column, canon, n, literal), nil
		}
	}
	return text(column, canon, literal), nil
}

func numeric(column, op string, n float64, raw string) dataset.Predicate {
	var cmp func(v float64) bool
	switch op {
	case "=":
		cmp = func(v float64) bool { return v == n }
	case "!=":
		cmp = func(v float64) bool { return v != n }
	case "<":
		cmp = func(v float64) bool { return v < n }
	case ">":
		cmp = func(v float64) bool { return v > n }
	case "<=":
		cmp = func(v float64) bool { return v <= n }
	case ">=":
		cmp = func(v float64) bool { return v >= n }
	case "in":
		// Containment on the raw text, not on the parsed number.
		return func(r *dataset.Row) bool {
			v, ok := r.Get(column)
			return ok && strings.Contains(v, raw)
		}
	}
	return func(r *dataset.Row) bool {
		v, ok := r.Numeric(column)
		return ok && cmp(v)
	}
}

func text(column, op, lit string) dataset.Predicate {
	n := utf8.RuneCountInString(lit)
	var cmp func(v string) bool
	switch op {
	case "=":
		cmp = func(v string) bool { return v == lit }
	case "!=":
		cmp = func(v string) bool { return v != lit }
	case "<":
		cmp = func(v string) bool { return utf8.RuneCountInString(v) < n }
	case ">":
		cmp = func(v string) bool { return utf8.RuneCountInString(v) > n }
	case "<=":
		cmp = func(v string) bool { return utf8.RuneCountInString(v) <= n }
	case ">=":
		cmp = func(v string) bool { return utf8.RuneCountInString(v) >= n }
	case "in":
		cmp = func(v string) bool { return strings.Contains(v, lit) }
	}
	return func(r *dataset.Row) bool {
		v, ok := r.Get(column)
		return ok && cmp(v)
	}
}

var (
	symbolic = regexp.MustCompile(`^\s*(.+?)\s*(<=|>=|=<|=>|!=|==|<>|=|<|>)\s*(.*?)\s*$`)
	keyword  = regexp.MustCompile(`(?i)^\s*(.+?)\s+(in)\s+(.*?)\s*$`)
)

// Parse splits a clause such as `Age >= 30` or `Country != "USA"`. Surrounding
// quotes on the value are removed. The operator is the one that appears first,
// so `Title = Made in USA` compares Title with "Made in USA".
func Parse(clause string) (Condition, error) {
	m := symbolic.FindStringSubmatch(clause)
	if k := keyword.FindStringSubmatch(clause); k != nil && (m == nil || len(k[1]) < len(m[1])) {
		m = k
	}
	if m == nil {
		return Condition{}, fmt.Errorf("invalid filter %q: expected \"column operator value\"", clause)
	}
	c := Condition{Column: strings.TrimSpace(m[1]), Operator: strings.ToLower(m[2]), Value: unquote(m[3])}
	if c.Column == "" {
		return Condition{}, fmt.Errorf("invalid filter %q: missing column", clause)
	}
	return c, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Apply keeps the rows of ds matching column op value and returns how many
// rows remain.
func Apply(ds *dataset.Dataset, column, op, value string) (int, error) {
	return ApplyAll(ds, nil, Condition{Column: column, Operator: op, Value: value})
}

// ApplyAll keeps rows matching every condition. Predicates are all built before
// any row is removed, so a bad condition leaves ds untouched.
func ApplyAll(ds *dataset.Dataset, log *slog.Logger, conds ...Condition) (int, error) {
	log = logging.OrDiscard(log)
	preds := make([]dataset.Predicate, 0, len(conds))
	for _, c := range conds {
		p, err := Build(ds, c.Column, c.Operator, c.Value)
		if err != nil {
			return 0, err
		}
		preds = append(preds, p)
	}
	removed := ds.Filter(preds...)
	log.Debug("filter applied", "dataset", ds.ID().String(), "conditions", len(conds), "removed", removed, "remaining", ds.Len())
	return ds.Len(), nil
}

// Select returns a copy of the rows matching every condition; ds is unchanged.
func Select(ds *dataset.Dataset, conds ...Condition) (*dataset.Dataset, error) {
	preds := make([]dataset.Predicate, 0, len(conds))
	for _, c := range conds {
		p, err := Build(ds, c.Column, c.Operator, c.Value)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return ds.Where(preds...), nil
}
