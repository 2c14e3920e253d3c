package format

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table collects label/value rows and renders them with the values
// aligned in one column. Widths are measured in terminal cells so labels
// and values holding "°C" or "µT" line up.
type Table struct {
	rows  [][2]string
	width int
}

// Row appends a row.
func (t *Table) Row(label, value string) *Table {
	t.rows = append(t.rows, [2]string{label, value})
	if w := runewidth.StringWidth(label); w > t.width {
		t.width = w
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// String renders "label: value" lines with a padded label column.
func (t *Table) String() string {
	var sb strings.Builder
	for _, r := range t.rows {
		sb.WriteString(runewidth.FillRight(r[0]+":", t.width+1))
		sb.WriteString(" ")
		sb.WriteString(r[1])
		sb.WriteString("\n")
	}
	return sb.String()
}

// Truncate shortens s to at most width cells, ending with "...".
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
