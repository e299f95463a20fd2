package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"gopkg.in/yaml.v3"
)

func sample() *dataset.Dataset {
	d := dataset.New("Name", "Age")
	d.Insert(map[string]string{"Name": "John", "Age": "30"})
	d.Insert(map[string]string{"Name": "Ghost"})
	d.Insert(map[string]string{"Name": "Smith, Jr.", "Age": "41"})
	return d
}

func TestExportRecords(t *testing.T) {
	recs := Export(sample())
	if len(recs) != 3 {
		t.Fatalf("records = %d", len(recs))
	}
	if recs[0].ID != 0 || len(recs[0].Fields) != 2 || recs[0].Fields[0] != (Field{"Name", "John"}) {
		t.Fatalf("first record = %#v", recs[0])
	}
	if _, ok := recs[1].Get("Age"); ok {
		t.Fatalf("missing value exported: %#v", recs[1])
	}
	if v, _ := recs[2].Get("Age"); v != "41" {
		t.Fatalf("age = %q", v)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sample(), CSV); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "Name,Age\nJohn,30\nGhost,\n\"Smith, Jr.\",41\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := Write(&buf, sample(), TSV); err != nil {
		t.Fatalf("Write tsv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Name\tAge\nJohn\t30\n") {
		t.Fatalf("tsv = %q", buf.String())
	}
}

func TestWriteJSONKeepsColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sample()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out := buf.String()
	if strings.Index(out, `"Name"`) > strings.Index(out, `"Age"`) {
		t.Fatalf("keys out of order:\n%s", out)
	}
	var got []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if len(got) != 3 || got[0]["Age"] != "30" || len(got[1]) != 1 || got[2]["Name"] != "Smith, Jr." {
		t.Fatalf("decoded = %#v", got)
	}

	buf.Reset()
	if err := WriteJSON(&buf, dataset.New("a")); err != nil {
		t.Fatalf("WriteJSON empty: %v", err)
	}
	if buf.String() != "[]\n" {
		t.Fatalf("empty json = %q", buf.String())
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, sample()); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v\n%s", err, buf.String())
	}
	if len(got) != 3 {
		t.Fatalf("decoded = %#v", got)
	}
	if age, ok := got[0]["Age"].(string); !ok || age != "30" {
		t.Fatalf("age should stay a string, got %#v", got[0]["Age"])
	}
	if _, ok := got[1]["Age"]; ok {
		t.Fatalf("missing value exported: %#v", got[1])
	}
}

func TestWriteTableAndMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sample()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if !strings.Contains(buf.String(), "John") || !strings.HasSuffix(buf.String(), "(3 rows)\n") {
		t.Fatalf("table = %q", buf.String())
	}

	buf.Reset()
	if err := WriteTable(&buf, dataset.New("a")); err != nil {
		t.Fatalf("WriteTable empty: %v", err)
	}
	if buf.String() != "(0 rows)\n" {
		t.Fatalf("empty table = %q", buf.String())
	}

	buf.Reset()
	if err := WriteMarkdown(&buf, sample()); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	md := buf.String()
	if !strings.Contains(md, "| John | 30 |") || !strings.Contains(md, "| Ghost |  |") {
		t.Fatalf("markdown = %q", md)
	}
}

func TestWriteFileAndFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	if err := WriteFile(context.Background(), path, sample(), FormatFromPath(path, CSV)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(b), "[") {
		t.Fatalf("expected json output, got %q", b)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}

	if FormatFromPath("data.unknown", YAML) != YAML {
		t.Fatalf("fallback format not used")
	}
	if f, err := ParseFormat("Markdown"); err != nil || f != Markdown {
		t.Fatalf("ParseFormat(Markdown) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
	if err := Write(&bytes.Buffer{}, sample(), Format("xml")); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
