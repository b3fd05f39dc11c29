package source

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Renderer produces human-readable, caret-annotated diagnostic reports. It
// mirrors go-corset's table/inspector commands in deciding whether to
// colorize based on whether the destination is a terminal.
type Renderer struct {
	color bool
}

// NewRenderer constructs a renderer. Colorization is enabled automatically
// when fd refers to a terminal; pass -1 to force it off.
func NewRenderer(fd int) *Renderer {
	color := fd >= 0 && term.IsTerminal(fd)
	return &Renderer{color: color}
}

// NewStderrRenderer constructs a renderer colorized according to whether
// stderr is a terminal.
func NewStderrRenderer() *Renderer {
	return NewRenderer(int(os.Stderr.Fd()))
}

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiBlue  = "\x1b[34m"
)

func (r *Renderer) paint(code, text string) string {
	if !r.color {
		return text
	}
	return code + text + ansiReset
}

// Render formats a single diagnostic as a multi-line, caret-annotated
// report in the style of standard Go/Rust compiler output.
func (r *Renderer) Render(d Diagnostic) string {
	var b strings.Builder

	sevColor := ansiRed
	if d.Severity == SeverityWarning {
		sevColor = ansiBlue
	}
	fmt.Fprintf(&b, "%s: %s\n", r.paint(sevColor+ansiBold, d.Severity.String()), d.Message)

	for _, lbl := range d.Labels {
		r.renderLabel(&b, lbl)
	}
	if d.Note != "" {
		fmt.Fprintf(&b, "  = note: %s\n", d.Note)
	}
	return b.String()
}

func (r *Renderer) renderLabel(b *strings.Builder, lbl Label) {
	if lbl.File == nil {
		return
	}
	pos := lbl.File.PositionOf(lbl.Span.Start())
	fmt.Fprintf(b, "  --> %s:%d:%d\n", lbl.File.Name(), pos.Line, pos.Column)

	line := lbl.File.LineText(pos.Line)
	gutter := fmt.Sprintf("%d", pos.Line)
	fmt.Fprintf(b, "%s | %s\n", gutter, line)

	caretLen := lbl.Span.Length()
	if caretLen < 1 {
		caretLen = 1
	}
	col := pos.Column - 1
	if col > len(line) {
		col = len(line)
	}
	if col+caretLen > len(line)+1 {
		caretLen = len(line) + 1 - col
		if caretLen < 1 {
			caretLen = 1
		}
	}
	pad := strings.Repeat(" ", len(gutter)) + " | " + strings.Repeat(" ", col)
	carets := r.paint(ansiBold, strings.Repeat("^", caretLen))
	style := ""
	if lbl.Note {
		style = " (note)"
	}
	fmt.Fprintf(b, "%s%s %s%s\n", pad, carets, lbl.Message, style)
}

// RenderAll renders a list of diagnostics, separated by blank lines.
func (r *Renderer) RenderAll(diags []Diagnostic) string {
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Render(d))
	}
	return b.String()
}
