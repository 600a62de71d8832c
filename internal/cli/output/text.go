// Package output provides output formatting for jobrunner-cli.
package output

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Field is one labelled line of text output.
type Field struct {
	Label string
	Value any
}

// Fields renders as aligned "Label: value" lines.
type Fields []Field

// TextFormatter renders Fields as aligned lines and anything else with %v.
type TextFormatter struct{}

// Format formats data as text.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	fields, ok := data.(Fields)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, field := range fields {
		if _, err := fmt.Fprintf(tw, "%s:\t%v\n", field.Label, field.Value); err != nil {
			return err
		}
	}
	return tw.Flush()
}
