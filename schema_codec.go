package jtdc

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// SchemaFromJSON decodes a JTD schema document. Unknown keys are rejected so
// misspelled form names fail loudly instead of silently compiling to
// accept-any.
func SchemaFromJSON(data []byte) (*Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s Schema
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("jtdc: decode schema: %w", err)
	}
	return &s, nil
}

// SchemaFromYAML decodes a YAML JTD schema document by normalizing it to
// string-keyed maps and re-decoding through the JSON path, so both sources
// share the same strictness.
func SchemaFromYAML(data []byte) (*Schema, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("jtdc: decode schema yaml: %w", err)
	}
	buf, err := json.Marshal(normalizeYAML(node))
	if err != nil {
		return nil, fmt.Errorf("jtdc: decode schema yaml: %w", err)
	}
	return SchemaFromJSON(buf)
}

// normalizeYAML rewrites yaml.v3's map[any]any nodes into map[string]any so
// the value can round-trip through JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeYAML(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}
