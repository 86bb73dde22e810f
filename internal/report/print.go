package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Printer writes tables as aligned text, coloring headers and outcome
// columns on terminals.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter enables color when w is a terminal file.
func NewPrinter(w io.Writer) *Printer {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) && !color.NoColor
	}
	return &Printer{w: w, color: useColor}
}

var columnColors = map[string]*color.Color{
	"successes": color.New(color.FgGreen),
	"fails":     color.New(color.FgRed),
	"misses":    color.New(color.FgYellow),
}

// Print writes the title, a header line and one line per row.
func (p *Printer) Print(t *Table) error {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	var b strings.Builder
	title := t.Title
	if p.color {
		title = color.New(color.Bold).Sprint(title)
	}
	fmt.Fprintf(&b, "%s (%d rows)\n", title, len(t.Rows))

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cell := pad(strings.ToUpper(c), widths[i])
		if p.color {
			cell = color.New(color.FgCyan).Sprint(cell)
		}
		header[i] = cell
	}
	b.WriteString(strings.TrimRight(strings.Join(header, "  "), " "))
	b.WriteString("\n")

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			width := 0
			if i < len(widths) {
				width = widths[i]
			}
			cell = pad(cell, width)
			if p.color && i < len(t.Columns) {
				if c, ok := columnColors[t.Columns[i]]; ok {
					cell = c.Sprint(cell)
				}
			}
			cells[i] = cell
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		b.WriteString("\n")
	}

	_, err := io.WriteString(p.w, b.String())
	return err
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
