// Package cliutil provides shared output formatting for the scriptindex
// command-line front-end.
package cliutil

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/scriptindex/scriptindex/internal/search"
)

var (
	scoreColor = color.New(color.FgGreen, color.Bold)
	nameColor  = color.New(color.FgCyan, color.Bold)
)

// PrintResults writes one block per search result to w: "[<score>] <name>",
// an indented Category line, an optional description line, an optional
// Usage line, then a blank line. An empty result set prints
// "No results found." instead.
func PrintResults(w io.Writer, results []search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	for _, r := range results {
		fmt.Fprintf(w, "[%s] %s\n",
			scoreColor.Sprintf("%.2f", r.Similarity),
			nameColor.Sprint(r.Script.Name()),
		)
		fmt.Fprintf(w, "  Category: %s\n", r.Script.Category())
		if d := r.Script.Description(); d != "" {
			fmt.Fprintf(w, "  %s\n", d)
		}
		if u := r.Script.Usage(); u != "" {
			fmt.Fprintf(w, "  Usage: %s\n", u)
		}
		fmt.Fprintln(w)
	}
}
