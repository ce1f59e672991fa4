// Package printer writes user-facing status lines for CLI commands.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hay-kot/pakagent/internal/core/styles"
)

type ctxKey struct{}

// Printer formats status messages with a leading marker and theme colors.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New creates a Printer writing normal output to out and errors to errw.
func New(out, errw io.Writer) *Printer {
	return &Printer{out: out, err: errw}
}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the Printer stored in ctx, or one writing to stdout/stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok && p != nil {
		return p
	}
	return New(os.Stdout, os.Stderr)
}

// Out returns the writer used for regular output.
func (p *Printer) Out() io.Writer { return p.out }

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Infof(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, styles.InfoStyle.Render("•")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, styles.SuccessStyle.Render("✔")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.err, styles.WarnStyle.Render("!")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.err, styles.ErrorStyle.Render("✘")+" "+fmt.Sprintf(format, args...))
}

// Header prints a bold section title followed by a divider.
func (p *Printer) Header(title string) {
	_, _ = fmt.Fprintln(p.out, styles.HeaderStyle.Render(title))
	_, _ = fmt.Fprintln(p.out, styles.DividerStyle.Render("────────────────────────────────────────"))
}

// Block prints text as-is.
func (p *Printer) Block(text string) {
	_, _ = fmt.Fprintln(p.out, text)
}
