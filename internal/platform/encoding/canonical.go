// Package encoding provides deterministic serialization for event payloads
// and snapshots. Stored bytes must be stable across Go versions and map
// iteration order so that replays stay reproducible.
package encoding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// CanonicalJSON produces deterministic JSON output inspired by RFC 8785 (JCS):
// object keys sorted lexicographically, no whitespace, no HTML escaping.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	// Round-trip through any to get the raw structure regardless of the
	// concrete input type.
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	canonical := canonicalize(raw)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(canonical); err != nil {
		return nil, fmt.Errorf("encode canonical: %w", err)
	}

	// Encode appends a newline
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	return result, nil
}

// canonicalize recursively processes a value to ensure canonical key ordering.
func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		result := make(map[string]any, len(val))
		for _, k := range keys {
			result[k] = canonicalize(val[k])
		}
		return orderedMap{keys: keys, values: result}

	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = canonicalize(item)
		}
		return result

	default:
		return v
	}
}

// orderedMap marshals map keys in sorted order.
type orderedMap struct {
	keys   []string
	values map[string]any
}

// MarshalJSON implements json.Marshaler with sorted keys.
func (o orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyJSON, err := marshalWithoutHTMLEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')

		valJSON, err := marshalWithoutHTMLEscape(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalWithoutHTMLEscape marshals a value without HTML escaping to match
// the top-level encoder behavior.
func marshalWithoutHTMLEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}
