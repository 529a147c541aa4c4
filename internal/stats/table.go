package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one column of a plain-text report table.
type column struct {
	header string
	right  bool
	// max caps the cell width; longer cells are cut with an ellipsis. Zero means no cap.
	max int
}

// textTable lays out rows in fixed-width columns measured in terminal cells.
type textTable struct {
	columns []column
	rows    [][]string
}

func newTextTable(columns ...column) *textTable {
	return &textTable{columns: columns}
}

// add appends a row. Missing cells render blank and extra cells are dropped.
func (t *textTable) add(cells ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i >= len(cells) {
			break
		}
		row[i] = cells[i]
		if limit := t.columns[i].max; limit > 0 {
			row[i] = truncateCell(row[i], limit)
		}
	}
	t.rows = append(t.rows, row)
}

func (t *textTable) widths() []int {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		widths[i] = displayWidth(col.header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}
	return widths
}

func (t *textTable) lines() []string {
	if len(t.columns) == 0 {
		return nil
	}
	widths := t.widths()
	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.header
	}
	out := make([]string, 0, len(t.rows)+1)
	out = append(out, t.line(headers, widths))
	for _, row := range t.rows {
		out = append(out, t.line(row, widths))
	}
	return out
}

func (t *textTable) line(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(' ')
		}
		pad := strings.Repeat(" ", max(widths[i]-displayWidth(cell), 0))
		if t.columns[i].right {
			b.WriteString(pad + cell)
		} else {
			b.WriteString(cell + pad)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// writeTo prints every line followed by a blank separator line.
func (t *textTable) writeTo(w io.Writer) error {
	for _, line := range t.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func truncateCell(value string, width int) string {
	return runewidth.Truncate(value, width, "...")
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
