package output

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Field is one labelled line of text output.
type Field struct {
	Label string
	Value string
}

// Fielder is implemented by values with a human-readable text form.
type Fielder interface {
	Fields() []Field
}

// TextFormatter renders Fielder values as aligned "Label: value" lines.
// Empty values are skipped. Other values fall back to JSON.
type TextFormatter struct{}

// Format formats data as text.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	fielder, ok := data.(Fielder)
	if !ok {
		return (&JSONFormatter{}).Format(w, data)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, field := range fielder.Fields() {
		if field.Value == "" {
			continue
		}
		fmt.Fprintf(tw, "%s:\t%s\n", field.Label, field.Value)
	}
	return tw.Flush()
}
