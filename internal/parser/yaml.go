package parser

import (
	"encoding/json"
	"fmt"

	"github.com/KaramelBytes/tabula-cli/internal/ingest"
	"gopkg.in/yaml.v3"
)

type yamlParser struct{}

func (yamlParser) CanParse(filename string) bool {
	return hasExt(filename, ".yaml", ".yml")
}

// Parse reads a sequence of mappings, keeping keys in document order. Null
// values are missing; scalars keep their literal text; nested collections are
// stored as compact JSON.
func (yamlParser) Parse(source string, content []byte, _ Options) (ingest.Input, error) {
	out := ingest.Objects{Source: source}
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return out, nil
	}
	root := resolve(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return out, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, shapeError(source, "expected a YAML list of mappings")
	}
	for i, item := range root.Content {
		m := resolve(item)
		if m.Kind != yaml.MappingNode {
			return nil, shapeError(source, fmt.Sprintf("record %d is not a mapping", i+1))
		}
		var obj ingest.Object
		for j := 0; j+1 < len(m.Content); j += 2 {
			k, v := resolve(m.Content[j]), resolve(m.Content[j+1])
			val, present, err := yamlScalar(v)
			if err != nil {
				return nil, fmt.Errorf("decode yaml record %d field %q: %w", i+1, k.Value, err)
			}
			if present {
				obj = append(obj, ingest.Field{Name: k.Value, Value: val})
			}
		}
		out.Records = append(out.Records, obj)
	}
	return out, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func yamlScalar(n *yaml.Node) (string, bool, error) {
	if n.Kind == yaml.ScalarNode {
		if n.Tag == "!!null" {
			return "", false, nil
		}
		return n.Value, true, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return "", false, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}
