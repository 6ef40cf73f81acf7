package ctl

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"golang.org/x/term"
)

// tabular is implemented by reports that can print themselves as a table.
type tabular interface {
	header() []string
	rows() [][]string
}

// chooseFormat returns the explicit format, else table when w is a
// terminal and yaml otherwise.
func chooseFormat(w io.Writer, format string) string {
	if format != "" {
		return format
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "table"
	}
	return "yaml"
}

func render(w io.Writer, format string, v tabular) error {
	switch chooseFormat(w, format) {
	case "yaml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		writeRow(tw, v.header())
		for _, r := range v.rows() {
			writeRow(tw, r)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeRow(w io.Writer, cols []string) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
