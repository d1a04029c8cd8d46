// Package tablewriter renders rows as aligned text columns, either boxed
// with ASCII borders or borderless.
package tablewriter

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// Style selects how a table is drawn.
type Style int

const (
	// StylePlain separates columns with two spaces and draws no borders.
	StylePlain Style = iota

	// StyleBoxed draws +---+ borders around every cell.
	StyleBoxed
)

// Writer collects rows and renders them as a table.
type Writer struct {
	out          io.Writer
	style        Style
	maxCellWidth int
	headerFormat func(string) string

	headers []string
	rows    [][]string
	widths  []int
}

// Option configures a Writer.
type Option func(*Writer)

// WithStyle sets the table style. The default is StylePlain.
func WithStyle(style Style) Option {
	return func(t *Writer) {
		t.style = style
	}
}

// WithMaxCellWidth truncates cells wider than n columns. Zero disables
// truncation.
func WithMaxCellWidth(n int) Option {
	return func(t *Writer) {
		t.maxCellWidth = n
	}
}

// WithHeaderFormat decorates each padded header cell, e.g. with color.
func WithHeaderFormat(format func(string) string) Option {
	return func(t *Writer) {
		t.headerFormat = format
	}
}

// NewWriter creates a table writer.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	t := &Writer{out: w}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// stripANSI removes ANSI escape sequences from a string
func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// displayWidth returns the terminal width of s, ignoring ANSI codes and
// counting wide runes as two columns.
func displayWidth(s string) int {
	return runewidth.StringWidth(stripANSI(s))
}

// SetHeader sets the table headers. Rows are cut to the header's column
// count.
func (t *Writer) SetHeader(headers []string) {
	t.headers = t.normalize(headers)
	t.updateWidths(t.headers)
}

// Append adds a row.
func (t *Writer) Append(row []string) {
	row = t.normalize(row)
	t.rows = append(t.rows, row)
	t.updateWidths(row)
}

func (t *Writer) normalize(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		cell = strings.ReplaceAll(cell, "\n", " ")
		if t.maxCellWidth > 0 && !ansiRegex.MatchString(cell) {
			cell = runewidth.Truncate(cell, t.maxCellWidth, "…")
		}
		out[i] = cell
	}
	return out
}

func (t *Writer) columns() int {
	if len(t.headers) > 0 {
		return len(t.headers)
	}
	return len(t.widths)
}

func (t *Writer) updateWidths(row []string) {
	limit := len(row)
	if len(t.headers) > 0 {
		limit = min(limit, len(t.headers))
	}
	for i := 0; i < limit; i++ {
		if i >= len(t.widths) {
			t.widths = append(t.widths, 0)
		}
		t.widths[i] = max(t.widths[i], displayWidth(row[i]))
	}
}

// Render writes the table.
func (t *Writer) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}
	if t.style == StyleBoxed {
		t.printBorder()
	}
	if len(t.headers) > 0 {
		t.printRow(t.headers, t.headerFormat)
		if t.style == StyleBoxed {
			t.printBorder()
		}
	}
	for _, row := range t.rows {
		t.printRow(row, nil)
	}
	if t.style == StyleBoxed {
		t.printBorder()
	}
}

func (t *Writer) printBorder() {
	var b strings.Builder
	b.WriteString("+")
	for i := 0; i < t.columns(); i++ {
		b.WriteString(strings.Repeat("-", t.widths[i]+2))
		b.WriteString("+")
	}
	fmt.Fprintln(t.out, b.String())
}

func (t *Writer) printRow(row []string, format func(string) string) {
	cells := make([]string, t.columns())
	for i := range cells {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		if t.style == StyleBoxed || i < len(cells)-1 {
			cell += strings.Repeat(" ", t.widths[i]-displayWidth(cell))
		}
		if format != nil {
			cell = format(cell)
		}
		cells[i] = cell
	}
	if t.style == StyleBoxed {
		fmt.Fprintf(t.out, "| %s |\n", strings.Join(cells, " | "))
		return
	}
	fmt.Fprintln(t.out, strings.TrimRight(strings.Join(cells, "  "), " "))
}
