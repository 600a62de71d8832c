// Package output provides output formatting for jobrunner-cli.
//
// Supported formats:
//
//   - text: aligned key/value lines (default)
//   - json: indented JSON
//   - yaml: YAML
package output
