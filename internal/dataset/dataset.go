// Package dataset holds the in-memory row store: rows of named string values,
// the ordered schema, and every in-place mutation over them.
//
// A Dataset is not internally synchronized. Concurrent read-only operations are
// safe; callers must serialize mutations against any other access.
package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Predicate reports whether a row should be kept.
type Predicate func(*Row) bool

// Kind is the derived classification of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// duplicateDelimiter joins row values into the duplicate-detection key. Values
// containing it can collide; that limitation is kept on purpose.
const duplicateDelimiter = ","

// Dataset is an ordered sequence of rows plus the schema.
type Dataset struct {
	id      uuid.UUID
	schema  []string
	columns map[string]struct{}
	rows    []*Row
	ids     map[int]struct{}
	nextID  int
}

// New returns an empty dataset with the given columns.
func New(columns ...string) *Dataset {
	d := &Dataset{
		id:      uuid.New(),
		columns: make(map[string]struct{}),
		ids:     make(map[int]struct{}),
	}
	for _, c := range columns {
		d.addColumn(c)
	}
	return d
}

// FromRows assembles a dataset from rows that already carry identifiers. Every
// identifier must be unique and every row key must be part of schema.
func FromRows(schema []string, rows []*Row) (*Dataset, error) {
	d := New(schema...)
	if len(d.schema) != len(schema) {
		return nil, &DatasetError{Op: "build", Reason: "duplicate column in schema"}
	}
	for _, r := range rows {
		if r.ID < 0 {
			return nil, &DatasetError{Op: "build", Reason: fmt.Sprintf("negative row id %d", r.ID)}
		}
		if _, dup := d.ids[r.ID]; dup {
			return nil, &DatasetError{Op: "build", Reason: fmt.Sprintf("duplicate row id %d", r.ID)}
		}
		for k := range r.values {
			if !d.HasColumn(k) {
				return nil, &DatasetError{Op: "build", Reason: fmt.Sprintf("row %d has column %q outside the schema", r.ID, k)}
			}
		}
		d.ids[r.ID] = struct{}{}
		d.rows = append(d.rows, r)
		if r.ID >= d.nextID {
			d.nextID = r.ID + 1
		}
	}
	return d, nil
}

// ID identifies this dataset instance.
func (d *Dataset) ID() uuid.UUID { return d.id }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Schema returns a copy of the column names in declaration order.
func (d *Dataset) Schema() []string {
	out := make([]string, len(d.schema))
	copy(out, d.schema)
	return out
}

// HasColumn reports whether name is part of the schema.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// AddColumn appends a new column to the schema.
func (d *Dataset) AddColumn(name string) error {
	if d.HasColumn(name) {
		return &DatasetError{Op: "add column", Reason: fmt.Sprintf("column %q already exists", name)}
	}
	d.addColumn(name)
	return nil
}

func (d *Dataset) addColumn(name string) {
	if _, ok := d.columns[name]; ok {
		return
	}
	d.columns[name] = struct{}{}
	d.schema = append(d.schema, name)
}

// Insert appends a row built from values and assigns it the next identifier.
// Keys missing from the schema are appended to it in sorted order.
func (d *Dataset) Insert(values map[string]string) *Row {
	r := NewRow(values)
	var fresh []string
	for k := range r.values {
		if !d.HasColumn(k) {
			fresh = append(fresh, k)
		}
	}
	sort.Strings(fresh)
	for _, k := range fresh {
		d.addColumn(k)
	}
	r.ID = d.nextID
	d.nextID++
	d.ids[r.ID] = struct{}{}
	d.rows = append(d.rows, r)
	return r
}

// Rows returns detached copies of the rows in current order.
func (d *Dataset) Rows() []Row {
	out := make([]Row, len(d.rows))
	for i, r := range d.rows {
		out[i] = *r.clone()
	}
	return out
}

// View exposes the live rows in current order without copying. Callers must
// treat the rows as read-only.
func (d *Dataset) View() []*Row {
	out := make([]*Row, len(d.rows))
	copy(out, d.rows)
	return out
}

// Clone returns a deep copy with the same identifier.
func (d *Dataset) Clone() *Dataset {
	cp := New(d.schema...)
	cp.id = d.id
	cp.rows = make([]*Row, len(d.rows))
	for i, r := range d.rows {
		cp.rows[i] = r.clone()
	}
	cp.reindex()
	return cp
}

// replaceRows installs a new row sequence and refreshes the identifier index.
func (d *Dataset) replaceRows(rows []*Row) {
	d.rows = rows
	d.reindex()
}

func (d *Dataset) reindex() {
	d.ids = make(map[int]struct{}, len(d.rows))
	d.nextID = 0
	for _, r := range d.rows {
		d.ids[r.ID] = struct{}{}
		if r.ID >= d.nextID {
			d.nextID = r.ID + 1
		}
	}
}

// ColumnKind classifies a column from the current data. A column is numeric
// when every present value parses as a number.
func (d *Dataset) ColumnKind(name string) (Kind, error) {
	if !d.HasColumn(name) {
		return "", &UnknownColumnError{Column: name}
	}
	if _, bad := d.firstNonNumeric(name); bad {
		return KindCategorical, nil
	}
	return KindNumeric, nil
}

// RequireNumeric fails with UnknownColumnError or NotNumericError unless name
// is a numeric column.
func (d *Dataset) RequireNumeric(name string) error {
	if !d.HasColumn(name) {
		return &UnknownColumnError{Column: name}
	}
	if v, bad := d.firstNonNumeric(name); bad {
		return &NotNumericError{Column: name, Value: v}
	}
	return nil
}

func (d *Dataset) firstNonNumeric(name string) (string, bool) {
	for _, r := range d.rows {
		v, ok := r.values[name]
		if !ok {
			continue
		}
		if _, ok := ParseNumber(v); !ok {
			return v, true
		}
	}
	return "", false
}

// NumericColumns lists the numeric columns in schema order.
func (d *Dataset) NumericColumns() []string {
	var out []string
	for _, c := range d.schema {
		if _, bad := d.firstNonNumeric(c); !bad {
			out = append(out, c)
		}
	}
	return out
}

// NumericColumnValues returns, in row order, every value of name that parses
// as a number. Missing and unparseable values are skipped.
func (d *Dataset) NumericColumnValues(name string) ([]float64, error) {
	if !d.HasColumn(name) {
		return nil, &UnknownColumnError{Column: name}
	}
	out := make([]float64, 0, len(d.rows))
	for _, r := range d.rows {
		if f, ok := r.Numeric(name); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// Filter keeps only rows satisfying every predicate and returns how many rows
// were removed.
func (d *Dataset) Filter(preds ...Predicate) int {
	before := len(d.rows)
	d.replaceRows(keep(d.rows, preds))
	return before - len(d.rows)
}

// Where returns a new dataset with copies of the rows satisfying every
// predicate. The receiver is not modified.
func (d *Dataset) Where(preds ...Predicate) *Dataset {
	out := New(d.schema...)
	for _, r := range keep(d.rows, preds) {
		out.rows = append(out.rows, r.clone())
	}
	out.reindex()
	return out
}

func keep(rows []*Row, preds []Predicate) []*Row {
	out := make([]*Row, 0, len(rows))
next:
	for _, r := range rows {
		for _, p := range preds {
			if !p(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

// RemoveRowsWithMissingValues drops rows lacking a value for any column of the
// schema as it exists now. It returns the number of removed rows.
func (d *Dataset) RemoveRowsWithMissingValues() int {
	schema := d.Schema()
	return d.Filter(func(r *Row) bool {
		for _, c := range schema {
			if !r.Has(c) {
				return false
			}
		}
		return true
	})
}

// NormalizeColumn rescales every present value of a numeric column to
// (v-min)/(max-min). Missing values stay missing.
func (d *Dataset) NormalizeColumn(name string) error {
	if err := d.RequireNumeric(name); err != nil {
		return err
	}
	vals, _ := d.NumericColumnValues(name)
	if len(vals) == 0 {
		return &NormalizationError{Column: name, Reason: "no values"}
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return &NormalizationError{Column: name, Reason: fmt.Sprintf("constant column (min = max = %s)", FormatNumber(lo))}
	}
	span := hi - lo
	for _, r := range d.rows {
		if v, ok := r.Numeric(name); ok {
			r.values[name] = FormatNumber((v - lo) / span)
		}
	}
	return nil
}

// DuplicateKey joins the row values over schema into the string used for
// duplicate detection. Missing values contribute an empty string.
func DuplicateKey(r *Row, schema []string) string {
	parts := make([]string, len(schema))
	for i, c := range schema {
		parts[i] = r.values[c]
	}
	return strings.Join(parts, duplicateDelimiter)
}

// RemoveDuplicates keeps the first occurrence of every distinct value sequence
// and returns the number of removed rows.
func (d *Dataset) RemoveDuplicates() int {
	seen := make(map[string]struct{}, len(d.rows))
	return d.Filter(func(r *Row) bool {
		k := DuplicateKey(r, d.schema)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
}

// SortByColumn orders rows ascending by name. Numeric columns compare parsed
// values with missing treated as 0; other columns compare raw strings
// ordinally with missing treated as "". The sort is stable.
func (d *Dataset) SortByColumn(name string) error {
	kind, err := d.ColumnKind(name)
	if err != nil {
		return err
	}
	rows := d.View()
	if kind == KindNumeric {
		keys := make(map[*Row]float64, len(rows))
		for _, r := range rows {
			keys[r], _ = r.Numeric(name)
		}
		sort.SliceStable(rows, func(i, j int) bool { return keys[rows[i]] < keys[rows[j]] })
	} else {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].values[name] < rows[j].values[name] })
	}
	d.rows = rows
	return nil
}

// SortByID restores identifier order.
func (d *Dataset) SortByID() {
	sort.SliceStable(d.rows, func(i, j int) bool { return d.rows[i].ID < d.rows[j].ID })
}

// AppendDataset copies rows of other into d, keeping only columns already in
// d's schema. Rows with no matching column are skipped. Appended rows get
// fresh identifiers after the current maximum. It returns the number of rows
// appended.
func (d *Dataset) AppendDataset(other *Dataset) int {
	added := 0
	for _, src := range other.rows {
		vals := make(map[string]string)
		for k, v := range src.values {
			if d.HasColumn(k) {
				vals[k] = v
			}
		}
		if len(vals) == 0 {
			continue
		}
		d.Insert(vals)
		added++
	}
	return added
}
