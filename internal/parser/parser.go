// Package parser reads tabular files into ingest inputs. CSV, TSV and XLSX
// produce positional tables; JSON, YAML and SQLite tables produce keyed
// records.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
)

// Options tunes individual readers.
type Options struct {
	// Delimiter for CSV. If 0, ',' is used, or '\t' for .tsv files.
	Delimiter rune
	// SheetName selects an XLSX sheet by name (case-insensitive).
	SheetName string
	// SheetIndex selects an XLSX sheet by 1-based sheetId when SheetName is empty.
	SheetIndex int
	// Table selects a SQLite table. It may be empty when the file has one table.
	Table string
	// Context bounds readers that query a database; nil means context.Background.
	Context context.Context
}

// Parser turns file content into an ingest input.
type Parser interface {
	CanParse(filename string) bool
	Parse(source string, content []byte, opt Options) (ingest.Input, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// Supported lists the extensions the registered parsers accept.
func Supported() []string {
	return []string{".csv", ".tsv", ".xlsx", ".json", ".yaml", ".yml", ".sqlite", ".sqlite3", ".db"}
}

// ParseFile selects a parser based on filename and parses the file. Every
// failure is reported as *dataset.ImportError.
func ParseFile(path string, opt Options) (ingest.Input, error) {
	var p Parser
	for _, cand := range registry {
		if cand.CanParse(path) {
			p = cand
			break
		}
	}
	if p == nil {
		return nil, &dataset.ImportError{
			Source: path,
			Reason: fmt.Sprintf("unsupported file type %q (supported: %s)", filepath.Ext(path), strings.Join(Supported(), ", ")),
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &dataset.ImportError{Source: path, Reason: "read file", Err: err}
	}
	in, err := p.Parse(path, data, opt)
	if err != nil {
		return nil, importError(path, err)
	}
	return in, nil
}

func importError(source string, err error) error {
	if ie, ok := err.(*dataset.ImportError); ok {
		return ie
	}
	return &dataset.ImportError{Source: source, Err: err}
}

func hasExt(filename string, exts ...string) bool {
	name := strings.ToLower(filename)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
	Register(jsonParser{})
	Register(yamlParser{})
	Register(sqliteParser{})
}
