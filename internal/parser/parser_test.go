package parser_test

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
	"github.com/KaramelBytes/tabula-cli/internal/parser"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func writeXLSXFixture(t *testing.T) string {
	t.Helper()
	raw := strings.ReplaceAll(strings.TrimSpace(xlsxFixtureBase64), "\n", "")
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("decode xlsx fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "analysis_dataset.xlsx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write xlsx fixture: %v", err)
	}
	return path
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseFileCSV(t *testing.T) {
	p := writeFile(t, "hop_harvest.csv", "\xef\xbb\xbfdate,plot,alpha_acids,moisture\n"+
		"2024-08-10,A1,12.5%,74\n"+
		"2024-08-12, A1,11.8%\n"+
		"\"2024-08-15\",\"B3, north\",10.2%,68\n")
	in, err := parser.ParseFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tbl, ok := in.(ingest.Table)
	if !ok {
		t.Fatalf("expected ingest.Table, got %T", in)
	}
	if !equalStrings(tbl.Header, []string{"date", "plot", "alpha_acids", "moisture"}) {
		t.Fatalf("header = %#v", tbl.Header)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("rows = %d", len(tbl.Rows))
	}
	if !equalStrings(tbl.Rows[1], []string{"2024-08-12", "A1", "11.8%"}) {
		t.Fatalf("short row = %#v", tbl.Rows[1])
	}
	if tbl.Rows[2][1] != "B3, north" {
		t.Fatalf("quoted cell = %q", tbl.Rows[2][1])
	}
}

func TestParseFileDelimiters(t *testing.T) {
	tsv := writeFile(t, "a.tsv", "a\tb\n1\t2\n")
	in, err := parser.ParseFile(tsv, parser.Options{})
	if err != nil {
		t.Fatalf("parse tsv: %v", err)
	}
	if tbl := in.(ingest.Table); !equalStrings(tbl.Rows[0], []string{"1", "2"}) {
		t.Fatalf("tsv row = %#v", tbl.Rows[0])
	}

	semi := writeFile(t, "a.csv", "Group;Score\nA;10,0\n")
	in, err = parser.ParseFile(semi, parser.Options{Delimiter: ';'})
	if err != nil {
		t.Fatalf("parse semicolon: %v", err)
	}
	if tbl := in.(ingest.Table); !equalStrings(tbl.Rows[0], []string{"A", "10,0"}) {
		t.Fatalf("semicolon row = %#v", tbl.Rows[0])
	}

	empty := writeFile(t, "empty.csv", "")
	in, err = parser.ParseFile(empty, parser.Options{})
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if tbl := in.(ingest.Table); len(tbl.Header) != 0 || len(tbl.Rows) != 0 {
		t.Fatalf("empty table = %#v", tbl)
	}
}

func TestParseFileJSON(t *testing.T) {
	p := writeFile(t, "people.json", `[
  {"Name": "John", "Age": 30, "Score": 1.50, "Active": true},
  {"Age": null, "Name": "Sarah", "Tags": ["a", "b"], "Meta": {"k": 1}},
  {}
]`)
	in, err := parser.ParseFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	objs, ok := in.(ingest.Objects)
	if !ok {
		t.Fatalf("expected ingest.Objects, got %T", in)
	}
	if len(objs.Records) != 3 {
		t.Fatalf("records = %d", len(objs.Records))
	}
	want := ingest.Object{{Name: "Name", Value: "John"}, {Name: "Age", Value: "30"}, {Name: "Score", Value: "1.50"}, {Name: "Active", Value: "true"}}
	if len(objs.Records[0]) != len(want) {
		t.Fatalf("first = %#v", objs.Records[0])
	}
	for i := range want {
		if objs.Records[0][i] != want[i] {
			t.Fatalf("field %d = %#v, want %#v", i, objs.Records[0][i], want[i])
		}
	}
	second := objs.Records[1]
	if len(second) != 3 || second[0].Name != "Name" || second[1].Value != `["a","b"]` || second[2].Value != `{"k":1}` {
		t.Fatalf("second = %#v", second)
	}
	if len(objs.Records[2]) != 0 {
		t.Fatalf("third = %#v", objs.Records[2])
	}
}

func TestParseFileJSONShapeErrors(t *testing.T) {
	for name, content := range map[string]string{
		"object.json":  `{"Name": "John"}`,
		"scalars.json": `[1, 2]`,
		"broken.json":  `[{"Name": "John"`,
	} {
		p := writeFile(t, name, content)
		_, err := parser.ParseFile(p, parser.Options{})
		var ie *dataset.ImportError
		if !errors.As(err, &ie) {
			t.Fatalf("%s: expected ImportError, got %v", name, err)
		}
		if ie.Source != p {
			t.Fatalf("%s: source = %q", name, ie.Source)
		}
	}
}

func TestParseFileYAML(t *testing.T) {
	p := writeFile(t, "people.yaml", `
- Name: John
  Age: 30
  Joined: 2024-01-02
- Name: Sarah
  Age: ~
  Tags: [a, b]
`)
	in, err := parser.ParseFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	objs := in.(ingest.Objects)
	if len(objs.Records) != 2 {
		t.Fatalf("records = %d", len(objs.Records))
	}
	first := objs.Records[0]
	if len(first) != 3 || first[1] != (ingest.Field{Name: "Age", Value: "30"}) || first[2].Value != "2024-01-02" {
		t.Fatalf("first = %#v", first)
	}
	second := objs.Records[1]
	if len(second) != 2 || second[1] != (ingest.Field{Name: "Tags", Value: `["a","b"]`}) {
		t.Fatalf("second = %#v", second)
	}

	bad := writeFile(t, "bad.yml", "Name: John\n")
	if _, err := parser.ParseFile(bad, parser.Options{}); err == nil {
		t.Fatalf("expected error for mapping document")
	}
}

func TestParseFileXLSXSheetSelection(t *testing.T) {
	path := writeXLSXFixture(t)
	expectHeader := []string{"Group", "Concentration (g/L)", "Temp (°F)", "Score", "LocaleNumber", "Category", "Note"}
	expectFirst := []string{"A", "0,5", "70", "10,0", "1.000,0", "alpha", "first"}

	for _, opt := range []parser.Options{{SheetName: "data"}, {SheetIndex: 2}} {
		in, err := parser.ParseFile(path, opt)
		if err != nil {
			t.Fatalf("parse %+v: %v", opt, err)
		}
		tbl := in.(ingest.Table)
		if !equalStrings(tbl.Header, expectHeader) {
			t.Fatalf("header = %#v", tbl.Header)
		}
		if len(tbl.Rows) != 10 {
			t.Fatalf("rows = %d, want 10", len(tbl.Rows))
		}
		if !equalStrings(tbl.Rows[0], expectFirst) {
			t.Fatalf("first row = %#v, want %#v", tbl.Rows[0], expectFirst)
		}
	}

	in, err := parser.ParseFile(path, parser.Options{})
	if err != nil {
		t.Fatalf("parse default sheet: %v", err)
	}
	if tbl := in.(ingest.Table); !equalStrings(tbl.Header, []string{"placeholder"}) || len(tbl.Rows) != 0 {
		t.Fatalf("default sheet = %#v", tbl)
	}

	_, err = parser.ParseFile(path, parser.Options{SheetName: "Missing"})
	var ie *dataset.ImportError
	if !errors.As(err, &ie) || !strings.Contains(ie.Error(), "Ignore, Data") {
		t.Fatalf("expected ImportError listing sheets, got %v", err)
	}
}

func TestParseFileXLSXIntoDataset(t *testing.T) {
	in, err := parser.ParseFile(writeXLSXFixture(t), parser.Options{SheetName: "Data"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d, err := ingest.Import(context.Background(), in, ingest.DefaultOptions())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if d.Len() != 10 || len(d.Schema()) != 7 {
		t.Fatalf("dataset = %d rows, %d columns", d.Len(), len(d.Schema()))
	}
	kind, err := d.ColumnKind("Temp (°F)")
	if err != nil || kind != dataset.KindNumeric {
		t.Fatalf("temp kind = %q, %v", kind, err)
	}
	// decimal commas are not numbers
	if kind, _ := d.ColumnKind("Score"); kind != dataset.KindCategorical {
		t.Fatalf("score kind = %q", kind)
	}
}

func TestParseFileErrors(t *testing.T) {
	var ie *dataset.ImportError

	_, err := parser.ParseFile(writeFile(t, "notes.docx", "x"), parser.Options{})
	if !errors.As(err, &ie) || !strings.Contains(ie.Reason, "unsupported file type") {
		t.Fatalf("expected unsupported type ImportError, got %v", err)
	}

	_, err = parser.ParseFile(filepath.Join(t.TempDir(), "missing.csv"), parser.Options{})
	if !errors.As(err, &ie) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ImportError wrapping ErrNotExist, got %v", err)
	}

	_, err = parser.ParseFile(writeFile(t, "bad.xlsx", "not a zip"), parser.Options{})
	if !errors.As(err, &ie) {
		t.Fatalf("expected ImportError for bad xlsx, got %v", err)
	}
}
