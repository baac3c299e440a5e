package facts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Map is a facts mapping: string keys to JSON-compatible values.
type Map = map[string]any

// Parse decodes a JSON object into a facts mapping.
// Numbers decode as float64, matching the evaluator's numeric model.
func Parse(data []byte) (Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse facts: %w", err)
	}
	return m, nil
}

// Lookup resolves a dotted path against the mapping. It returns the value
// and true when every segment resolves, or nil and false when any segment
// is missing or an intermediate value is not a nested mapping.
//
// A single-segment path is a plain key access.
func Lookup(m Map, path string) (any, bool) {
	if m == nil {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current any = m

	for _, seg := range segments {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Merge returns a new mapping holding every key of base overlaid with every
// key of overlay. Overlay wins on conflict. Neither input is modified; the
// merge is shallow, so nested values are shared, not copied.
func Merge(base, overlay Map) Map {
	merged := make(Map, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// Clone returns a deep copy of the mapping by round-tripping through the
// JSON value model. Values outside that model are converted to it.
func Clone(m Map) Map {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		// Non-JSON-able values do not occur in practice; fall back to a
		// shallow copy so callers always get an independent top level.
		return Merge(m, nil)
	}
	var out Map
	if err := json.Unmarshal(data, &out); err != nil {
		return Merge(m, nil)
	}
	return out
}
