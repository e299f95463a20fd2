package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/ingest"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	return hasExt(filename, ".csv", ".tsv")
}

// Parse reads a header line followed by records. Record lengths may vary;
// the ingest layer decides what short and long records mean.
func (csvParser) Parse(source string, content []byte, opt Options) (ingest.Input, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = sniffDelimiter(source, opt.Delimiter)

	t := ingest.Table{Source: source}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t.Header = header
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func sniffDelimiter(path string, configured rune) rune {
	if configured != 0 {
		return configured
	}
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
