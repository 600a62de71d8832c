// Package output provides output formatting for jobrunner-cli.
package output

import (
	"encoding/json"
	"io"

	"go.yaml.in/yaml/v3"
)

// YAMLFormatter formats data as YAML. Field names follow the JSON tags.
type YAMLFormatter struct{}

// Format formats data as YAML.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	// Round-trip through JSON so json tags name the fields.
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}
