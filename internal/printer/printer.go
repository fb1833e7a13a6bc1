// Package printer writes styled status lines for CLI commands.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colonyops/marginalia/internal/core/styles"
)

type ctxKey struct{}

// Printer writes human readable command output.
type Printer struct {
	w io.Writer
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// With stores p in ctx.
func With(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the Printer stored in ctx, or one writing to stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

func (p *Printer) line(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}

// Printf prints a plain line.
func (p *Printer) Printf(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

func (p *Printer) Infof(format string, args ...any) {
	p.line(styles.MutedStyle.Render("•") + " " + fmt.Sprintf(format, args...))
}

func (p *Printer) Successf(format string, args ...any) {
	p.line(styles.SuccessStyle.Render("✔") + " " + fmt.Sprintf(format, args...))
}

func (p *Printer) Warnf(format string, args ...any) {
	p.line(styles.WarningStyle.Render("●") + " " + fmt.Sprintf(format, args...))
}

func (p *Printer) Errorf(format string, args ...any) {
	p.line(styles.ErrorStyle.Render("✘") + " " + fmt.Sprintf(format, args...))
}

// Section prints a bold heading.
func (p *Printer) Section(title string) {
	p.line(styles.PaneTitleStyle.Render(title))
}

// CheckItem prints a passing item of a section.
func (p *Printer) CheckItem(label, detail string) {
	p.item(styles.SuccessStyle.Render("✔"), label, detail)
}

// WarnItem prints a warning item of a section.
func (p *Printer) WarnItem(label, detail string) {
	p.item(styles.WarningStyle.Render("●"), label, detail)
}

// FailItem prints a failing item of a section.
func (p *Printer) FailItem(label, detail string) {
	p.item(styles.ErrorStyle.Render("✘"), label, detail)
}

func (p *Printer) item(icon, label, detail string) {
	if detail != "" {
		detail = " " + styles.MutedStyle.Render(detail)
	}
	p.line("  " + icon + " " + label + detail)
}
