// Package export turns a dataset into column/value records and renders them
// as CSV, JSON, YAML, Markdown, a terminal table or a SQLite table.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Field is one present value of a record.
type Field struct {
	Column string
	Value  string
}

// Record is one exported row. Fields follow schema order; missing values are
// left out.
type Record struct {
	ID     int
	Fields []Field
}

// Get returns the value of column and whether the record carries it.
func (r Record) Get(column string) (string, bool) {
	for _, f := range r.Fields {
		if f.Column == column {
			return f.Value, true
		}
	}
	return "", false
}

// Export snapshots the dataset as records in row order.
func Export(ds *dataset.Dataset) []Record {
	schema := ds.Schema()
	rows := ds.View()
	out := make([]Record, len(rows))
	for i, r := range rows {
		rec := Record{ID: r.ID, Fields: make([]Field, 0, r.Len())}
		for _, c := range schema {
			if v, ok := r.Get(c); ok {
				rec.Fields = append(rec.Fields, Field{Column: c, Value: v})
			}
		}
		out[i] = rec
	}
	return out
}

// Format names an output encoding.
type Format string

const (
	CSV      Format = "csv"
	TSV      Format = "tsv"
	JSON     Format = "json"
	YAML     Format = "yaml"
	Markdown Format = "md"
	Table    Format = "table"
	SQLite   Format = "sqlite"
)

// ParseFormat accepts a format name or common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "tsv":
		return TSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "md", "markdown":
		return Markdown, nil
	case "table", "pretty":
		return Table, nil
	case "sqlite", "sqlite3", "db":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// FormatFromPath picks a format from the file extension, falling back to def.
func FormatFromPath(path string, def Format) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return def
}

// Write renders ds to w in the given format.
func Write(w io.Writer, ds *dataset.Dataset, f Format) error {
	switch f {
	case CSV:
		return WriteCSV(w, ds, ',')
	case TSV:
		return WriteCSV(w, ds, '\t')
	case JSON:
		return WriteJSON(w, ds)
	case YAML:
		return WriteYAML(w, ds)
	case Markdown:
		return WriteMarkdown(w, ds)
	case Table:
		return WriteTable(w, ds)
	case SQLite:
		return errors.New("sqlite output needs a file path")
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteFile renders ds and atomically replaces path with the result. SQLite
// output replaces only the table named after the file.
func WriteFile(ctx context.Context, path string, ds *dataset.Dataset, f Format) error {
	if f == SQLite {
		return WriteSQLite(ctx, path, TableName(path), ds)
	}
	var buf bytes.Buffer
	if err := Write(&buf, ds, f); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// WriteCSV writes a header row plus one line per record. Missing values become
// empty cells.
func WriteCSV(w io.Writer, ds *dataset.Dataset, comma rune) error {
	schema := ds.Schema()
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(schema); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range ds.View() {
		line := make([]string, len(schema))
		for i, c := range schema {
			line[i], _ = r.Get(c)
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes an array of objects whose keys follow schema order.
// Missing values are omitted.
func WriteJSON(w io.Writer, ds *dataset.Dataset) error {
	recs := Export(ds)
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, rec := range recs {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for j, f := range rec.Fields {
			if j > 0 {
				buf.WriteString(",")
			}
			k, err := json.Marshal(f.Column)
			if err != nil {
				return fmt.Errorf("marshal json: %w", err)
			}
			v, err := json.Marshal(f.Value)
			if err != nil {
				return fmt.Errorf("marshal json: %w", err)
			}
			buf.WriteString("\n    ")
			buf.Write(k)
			buf.WriteString(": ")
			buf.Write(v)
		}
		if len(rec.Fields) > 0 {
			buf.WriteString("\n  ")
		}
		buf.WriteString("}")
	}
	if len(recs) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteYAML writes a sequence of mappings. Every value is tagged as a string
// so numbers survive a round trip unchanged.
func WriteYAML(w io.Writer, ds *dataset.Dataset) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, rec := range Export(ds) {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range rec.Fields {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Column},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Value},
			)
		}
		seq.Content = append(seq.Content, m)
	}
	if len(seq.Content) == 0 {
		seq.Style = yaml.FlowStyle
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func tableWriter(ds *dataset.Dataset) table.Writer {
	schema := ds.Schema()
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	header := make(table.Row, len(schema))
	for i, c := range schema {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, r := range ds.View() {
		row := make(table.Row, len(schema))
		for i, c := range schema {
			v, _ := r.Get(c)
			row[i] = v
		}
		t.AppendRow(row)
	}
	return t
}

// WriteTable renders a boxed table for terminals followed by the row count.
func WriteTable(w io.Writer, ds *dataset.Dataset) error {
	if ds.Len() == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}
	t := tableWriter(ds)
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", ds.Len())
	return err
}

// WriteMarkdown renders a GitHub-flavored Markdown table.
func WriteMarkdown(w io.Writer, ds *dataset.Dataset) error {
	_, err := fmt.Fprintln(w, tableWriter(ds).RenderMarkdown())
	return err
}
