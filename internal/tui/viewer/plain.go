package viewer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	plainInfoLines   = 10
	plainListLines   = 15
	plainDetailLines = 10
)

// Interactive reports whether f is a terminal that can host the viewer.
func Interactive(f *os.File) bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// PlainOptions control the non-interactive rendering.
type PlainOptions struct {
	// Full prints every line instead of the truncated preview.
	Full bool
}

// Plain writes c as text for pipes and dumb terminals.
func Plain(w io.Writer, c Content, opts PlainOptions) {
	fmt.Fprintf(w, "=== %s ===\n\n", c.Title)

	fmt.Fprintf(w, "%s:\n", strings.ToUpper(c.InfoTitle))
	writeLines(w, c.Info, plainInfoLines, opts.Full)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s:\n", strings.ToUpper(c.ListTitle))
	if len(c.Items) == 0 {
		fmt.Fprintf(w, "  %s\n", c.Empty)
	} else {
		var listing []string
		for _, item := range c.Items {
			listing = append(listing, item.Lines...)
		}
		writeLines(w, listing, plainListLines, opts.Full)
	}
	fmt.Fprintln(w)

	switch {
	case len(c.Items) == 0:
	case opts.Full:
		for _, item := range c.Items {
			fmt.Fprintf(w, "%s (%s):\n", strings.ToUpper(c.DetailTitle), item.Lines[0])
			writeLines(w, item.Detail, 0, true)
			fmt.Fprintln(w)
		}
	default:
		fmt.Fprintf(w, "%s (%s):\n", strings.ToUpper(c.DetailTitle), c.Items[0].Lines[0])
		writeLines(w, c.Items[0].Detail, plainDetailLines, false)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total entries: %d\n", len(c.Items))
}

func writeLines(w io.Writer, lines []string, limit int, full bool) {
	shown := lines
	if !full && limit > 0 && len(lines) > limit {
		shown = lines[:limit]
	}
	for _, l := range shown {
		fmt.Fprintf(w, "  %s\n", l)
	}
	if len(shown) < len(lines) {
		fmt.Fprintf(w, "  ... and %d more lines\n", len(lines)-len(shown))
	}
}
