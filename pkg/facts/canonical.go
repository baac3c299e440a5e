package facts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Canonical encodes v as canonical JSON: object keys sorted lexicographically
// at every nesting level, strings NFC-normalised and JSON-escaped, numbers in
// shortest decimal form without trailing zeros or exponent notation, and no
// insignificant whitespace.
//
// The encoding is the hash pre-image format for audit entries and compliance
// reports, so two structurally equal values always canonicalise to identical
// bytes regardless of construction order.
//
// Values outside the JSON model (structs, typed slices and maps) are first
// normalised through encoding/json.
func Canonical(v any) ([]byte, error) {
	normalised, err := normalise(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, normalised); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CanonicalString is a convenience wrapper around Canonical that returns an
// empty string when the value cannot be encoded.
func CanonicalString(v any) string {
	data, err := Canonical(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// normalise converts arbitrary Go values into the JSON value model
// (nil, bool, json.Number, string, []any, map[string]any). Values already in
// the model pass through without a marshal round trip.
func normalise(v any) (any, error) {
	switch v.(type) {
	case nil, bool, string, float64, int, int64, json.Number:
		return v, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not canonicalisable: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to normalise value: %w", err)
	}
	return out, nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch value := v.(type) {
	case nil:
		buf.WriteString("null")

	case bool:
		if value {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}

	case string:
		return writeCanonicalString(buf, value)

	case float64:
		return writeCanonicalFloat(buf, value)

	case int:
		buf.WriteString(strconv.FormatInt(int64(value), 10))

	case int64:
		buf.WriteString(strconv.FormatInt(value, 10))

	case json.Number:
		return writeCanonicalNumber(buf, value)

	case []any:
		buf.WriteByte('[')
		for i, elem := range value {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	case map[string]any:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, value[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')

	default:
		return fmt.Errorf("unsupported canonical value type %T", v)
	}

	return nil
}

func writeCanonicalString(buf *bytes.Buffer, s string) error {
	encoded, err := json.Marshal(norm.NFC.String(s))
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

// writeCanonicalFloat emits a float in its shortest decimal representation.
// Integral values print without a fractional part ("64", not "64.0").
func writeCanonicalFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number %v is not canonicalisable", f)
	}
	buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// writeCanonicalNumber re-parses a json.Number so that source spellings with
// trailing zeros ("1.50") collapse to the canonical form ("1.5").
func writeCanonicalNumber(buf *bytes.Buffer, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		buf.WriteString(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", n.String(), err)
	}
	return writeCanonicalFloat(buf, f)
}
