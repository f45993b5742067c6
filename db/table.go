package db

import (
	"fmt"
	"io"
	"strings"
)

// SimpleTable renders rows as an ASCII table without external
// dependencies.
type SimpleTable struct {
	writer  io.Writer
	headers []string
	rows    [][]string
}

func NewTable(w io.Writer) *SimpleTable {
	return &SimpleTable{writer: w}
}

func (t *SimpleTable) Header(headers []string) {
	t.headers = headers
}

func (t *SimpleTable) Row(row []string) {
	t.rows = append(t.rows, row)
}

func (t *SimpleTable) Bulk(rows [][]string) {
	t.rows = append(t.rows, rows...)
}

func (t *SimpleTable) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	widths := t.columnWidths()
	rule := t.rule(widths)

	fmt.Fprintln(t.writer, rule)
	if len(t.headers) > 0 {
		t.writeRow(t.headers, widths)
		fmt.Fprintln(t.writer, rule)
	}
	for _, row := range t.rows {
		t.writeRow(row, widths)
	}
	fmt.Fprintln(t.writer, rule)
}

// columnWidths sizes each column to its widest cell. Short rows count
// as empty cells; a column is never narrower than one character.
func (t *SimpleTable) columnWidths() []int {
	numCols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}

	widths := make([]int, numCols)
	for i := range widths {
		widths[i] = 1
	}
	for i, h := range t.headers {
		if len(h) > widths[i] {
			widths[i] = len(h)
		}
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < numCols && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func (t *SimpleTable) rule(widths []int) string {
	var b strings.Builder
	for _, w := range widths {
		b.WriteString("+")
		b.WriteString(strings.Repeat("-", w+2))
	}
	b.WriteString("+")
	return b.String()
}

func (t *SimpleTable) writeRow(row []string, widths []int) {
	var b strings.Builder
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		fmt.Fprintf(&b, "| %-*s ", w, cell)
	}
	b.WriteString("|")
	fmt.Fprintln(t.writer, b.String())
}
