package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows in a compact fixed-width layout for terminal output.
// Used by the runs listing and the batch summary.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // max width per column, 0 = unbounded

	// StatusColumn, when >= 0, renders that column through StatusCell so
	// succeeded/failed/running rows are colored.
	StatusColumn int
}

// NewTable builds an empty table with the given headers and status coloring
// disabled.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers, StatusColumn: -1}
}

// AddRow appends one row. Missing cells render empty; extra cells are
// dropped.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// columnWidths sizes each column to its widest cell, capped at MaxWidth.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && displayWidth(cell) > widths[i] {
				widths[i] = displayWidth(cell)
			}
		}
	}
	if t.MaxWidth > 0 {
		for i := range widths {
			if widths[i] > t.MaxWidth {
				widths[i] = t.MaxWidth
			}
		}
	}
	return widths
}

// Render outputs the table to a string.
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.columnWidths()
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	cellStyle := lipgloss.NewStyle().Foreground(ColorText)
	dimStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	var headerCells []string
	for i, h := range t.Headers {
		headerCells = append(headerCells, headerStyle.Render(padRight(h, widths[i])))
	}
	sb.WriteString(" " + strings.Join(headerCells, "  ") + "\n")

	var sepParts []string
	for _, w := range widths {
		sepParts = append(sepParts, dimStyle.Render(strings.Repeat("─", w)))
	}
	sb.WriteString(" " + strings.Join(sepParts, "──") + "\n")

	for _, row := range t.Rows {
		var cells []string
		for i := range t.Headers {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			val = truncate(val, widths[i])

			style := cellStyle
			if i == t.StatusColumn {
				style = statusStyle(val)
			}
			cells = append(cells, style.Render(padRight(val, widths[i])))
		}
		sb.WriteString(" " + strings.Join(cells, "  ") + "\n")
	}

	return sb.String()
}

// displayWidth counts runes, not bytes, so readings like "20°C" line up.
func displayWidth(s string) int {
	return utf8.RuneCountInString(s)
}

// truncate shortens a cell to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// padRight pads a string to the specified rune width.
func padRight(s string, width int) string {
	if n := displayWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// TruncateID shortens a run ID for display, keeping the r- prefix readable.
func TruncateID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}
