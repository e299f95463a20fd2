package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Row is one record: a stable identifier plus column values. A column with no
// entry is missing, which is distinct from an empty string.
type Row struct {
	ID     int
	values map[string]string
}

// NewRow builds a detached row. Rows only receive their final identifier when
// a Dataset inserts them.
func NewRow(values map[string]string) *Row {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Row{values: cp}
}

// Get returns the raw value and whether it is present.
func (r *Row) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Has reports whether the row carries a value for column.
func (r *Row) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Numeric parses the value of column as a float64.
func (r *Row) Numeric(column string) (float64, bool) {
	v, ok := r.values[column]
	if !ok {
		return 0, false
	}
	return ParseNumber(v)
}

// Set stores a value for column.
func (r *Row) Set(column, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	r.values[column] = value
}

// Values returns a copy of the column/value mapping.
func (r *Row) Values() map[string]string {
	cp := make(map[string]string, len(r.values))
	for k, v := range r.values {
		cp[k] = v
	}
	return cp
}

// Len is the number of present values.
func (r *Row) Len() int { return len(r.values) }

func (r *Row) clone() *Row {
	return &Row{ID: r.ID, values: r.Values()}
}

// ParseNumber parses a trimmed decimal or scientific literal. NaN and
// infinities are rejected so they never make a column numeric.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a float with the shortest representation that parses back
// to the same value.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
