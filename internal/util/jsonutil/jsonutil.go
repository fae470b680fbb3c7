package jsonutil

import (
	"bytes"
	"encoding/json"
)

// MarshalNoEscape encodes v into JSON without HTML-escaping <, > and &.
// Sierra text is full of angle brackets, so responses go through here.
func MarshalNoEscape(v any) ([]byte, error) {
	return encode(v, "", "")
}

// MarshalNoEscapeIndent is MarshalNoEscape with indentation.
func MarshalNoEscapeIndent(v any, prefix, indent string) ([]byte, error) {
	return encode(v, prefix, indent)
}

func encode(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if prefix != "" || indent != "" {
		enc.SetIndent(prefix, indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
