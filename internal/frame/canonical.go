package frame

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for content-addressed identity.
// CRITICAL: this is the ONLY serialization used for hashing.
//
// Canonical rules:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. Strings NFC-normalized before escaping
//  3. Only quote, backslash, and control characters are escaped
//  4. No floats (returns error) - identity inputs are strings, ints, bools
//  5. No null (returns error)
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		writeCanonicalString(buf, val)
		return nil
	case int:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case int64:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	case []string:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, elem)
		}
		buf.WriteByte(']')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := marshalCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// lessUTF16 compares strings by UTF-16 code units, the canonical JSON key
// order. This differs from byte order for characters outside the BMP.
func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	n := len(ua)
	if len(ub) < n {
		n = len(ub)
	}
	for i := 0; i < n; i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// writeCanonicalString writes an NFC-normalized JSON string.
// Only quote, backslash, and control characters below U+0020 are escaped;
// control characters use the short escapes where JSON defines them and
// lowercase \u00xx otherwise.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	normalized := norm.NFC.String(s)
	buf.WriteByte('"')
	for _, r := range normalized {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
