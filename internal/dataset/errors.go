package dataset

import (
	"fmt"
	"strings"
)

// ImportError indicates the source could not be turned into a Dataset: it was
// unreadable, its format is unsupported, or its payload has the wrong shape.
type ImportError struct {
	Source string // file path or logical source name (may be empty)
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	var b strings.Builder
	b.WriteString("import")
	if e.Source != "" {
		b.WriteString(" ")
		b.WriteString(e.Source)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ImportError) Unwrap() error { return e.Err }

// UnknownColumnError indicates a column name that is not in the schema.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

// NotNumericError indicates a numeric-only operation on a categorical column.
type NotNumericError struct {
	Column string
	Value  string // first value that failed to parse
}

func (e *NotNumericError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("column %q is not numeric (value %q)", e.Column, e.Value)
	}
	return fmt.Sprintf("column %q is not numeric", e.Column)
}

// UnsupportedOperatorError indicates a filter operator outside the supported set.
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %q", e.Operator)
}

// MalformedRowError reports a positional record carrying more values than
// there are header columns.
type MalformedRowError struct {
	Record int // 1-based data record number (header excluded)
	Got    int
	Want   int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row %d: %d values for %d columns", e.Record, e.Got, e.Want)
}

// NormalizationError indicates a column cannot be min-max scaled.
type NormalizationError struct {
	Column string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize column %q: %s", e.Column, e.Reason)
}

// AmbiguousModeError indicates two or more values share the highest count.
type AmbiguousModeError struct {
	Column string
	Values []string // tied values, sorted
	Count  int
}

func (e *AmbiguousModeError) Error() string {
	return fmt.Sprintf("column %q has no single mode: %s each occur %d times", e.Column, strings.Join(e.Values, ", "), e.Count)
}

// NoModeError indicates a column without any present values.
type NoModeError struct {
	Column string
}

func (e *NoModeError) Error() string {
	return fmt.Sprintf("column %q has no values", e.Column)
}

// DatasetError is the catch-all for operations that would break a Dataset
// invariant or cannot produce a defined result.
type DatasetError struct {
	Op     string
	Reason string
}

func (e *DatasetError) Error() string {
	if e.Op == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
