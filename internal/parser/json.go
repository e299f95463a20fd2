package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
)

type jsonParser struct{}

func (jsonParser) CanParse(filename string) bool {
	return hasExt(filename, ".json")
}

// Parse reads an array of flat objects, keeping keys in document order.
// null leaves the value missing; numbers keep their literal text; booleans
// become "true"/"false"; nested arrays and objects are stored as compact JSON.
func (jsonParser) Parse(source string, content []byte, _ Options) (ingest.Input, error) {
	out := ingest.Objects{Source: source}
	dec := json.NewDecoder(bytes.NewReader(content))
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, shapeError(source, "expected a JSON array of objects")
	}
	for dec.More() {
		obj, err := readObject(dec, source, len(out.Records)+1)
		if err != nil {
			return nil, err
		}
		out.Records = append(out.Records, obj)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return out, nil
}

func readObject(dec *json.Decoder, source string, n int) (ingest.Object, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode json record %d: %w", n, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, shapeError(source, fmt.Sprintf("record %d is not an object", n))
	}
	var obj ingest.Object
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode json record %d: %w", n, err)
		}
		key, _ := kt.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json record %d field %q: %w", n, key, err)
		}
		val, present, err := jsonScalar(raw)
		if err != nil {
			return nil, fmt.Errorf("decode json record %d field %q: %w", n, key, err)
		}
		if present {
			obj = append(obj, ingest.Field{Name: key, Value: val})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode json record %d: %w", n, err)
	}
	return obj, nil
}

func jsonScalar(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", false, err
		}
		return buf.String(), true, nil
	}
	// numbers and booleans keep their literal text
	return string(raw), true, nil
}

func shapeError(source, reason string) error {
	return &dataset.ImportError{Source: source, Reason: reason}
}
