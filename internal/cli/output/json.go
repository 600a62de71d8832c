// Package output provides output formatting for jobrunner-cli.
package output

import (
	"bytes"
	"encoding/json"
	"io"
)

// JSONFormatter writes indented JSON without HTML escaping, so job names
// and payloads print as submitted.
type JSONFormatter struct{}

// Format writes data as JSON. Fields become an object in label order.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	if fields, ok := data.(Fields); ok {
		return writeFieldsJSON(w, fields)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

// writeFieldsJSON keeps label order, which a map would lose.
func writeFieldsJSON(w io.Writer, fields Fields) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, field := range fields {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")

		key, err := marshalNoEscape(field.Label)
		if err != nil {
			return err
		}
		value, err := marshalNoEscape(field.Value)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
	}
	if len(fields) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
