package style

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Alignment specifies column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

func (a Alignment) position() lipgloss.Position {
	switch a {
	case AlignRight:
		return lipgloss.Right
	case AlignCenter:
		return lipgloss.Center
	}
	return lipgloss.Left
}

// Column is one table column. Cells wider than Width are cut with "...";
// Color, if set, styles each cell after it has been cut.
type Column struct {
	Name  string
	Width int
	Align Alignment
	Color func(string) string
}

// Table renders fixed-width rows of plain-text cells.
type Table struct {
	columns   []Column
	rows      [][]string
	headerSep bool
	indent    string
}

// NewTable creates a table with a bold header and a separator line.
func NewTable(columns ...Column) *Table {
	return &Table{columns: columns, headerSep: true, indent: "  "}
}

// SetIndent sets the left indent of every line.
func (t *Table) SetIndent(indent string) *Table {
	t.indent = indent
	return t
}

// SetHeaderSeparator enables or disables the line under the header.
func (t *Table) SetHeaderSeparator(enabled bool) *Table {
	t.headerSep = enabled
	return t
}

// AddRow appends a row. Missing trailing cells render empty.
func (t *Table) AddRow(values ...string) *Table {
	t.rows = append(t.rows, values)
	return t
}

// Render returns the table, one line per row.
func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	var sb strings.Builder
	cells := make([]string, len(t.columns))

	for i, col := range t.columns {
		cells[i] = lipgloss.PlaceHorizontal(col.Width, col.Align.position(), Bold.Render(col.Name))
	}
	t.writeLine(&sb, cells)

	if t.headerSep {
		width := len(t.columns) - 1
		for _, col := range t.columns {
			width += col.Width
		}
		t.writeLine(&sb, []string{Dim.Render(strings.Repeat("─", width))})
	}

	for _, row := range t.rows {
		for i, col := range t.columns {
			var val string
			if i < len(row) {
				val = fit(row[i], col.Width)
			}
			if col.Color != nil && val != "" {
				val = col.Color(val)
			}
			cells[i] = lipgloss.PlaceHorizontal(col.Width, col.Align.position(), val)
		}
		t.writeLine(&sb, cells)
	}

	return sb.String()
}

func (t *Table) writeLine(sb *strings.Builder, cells []string) {
	sb.WriteString(t.indent)
	sb.WriteString(strings.Join(cells, " "))
	sb.WriteString("\n")
}

// fit cuts s to width display cells, ending in "..." when cut. Prompts are
// often CJK text, so width is measured in cells, not runes.
func fit(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	limit := width - 3
	var sb strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > limit {
			break
		}
		used += w
		sb.WriteRune(r)
	}
	return sb.String() + "..."
}

// ProgressBar renders "[████░░░░] 50%" with width bar cells.
func ProgressBar(percent int, width int) string {
	percent = max(0, min(percent, 100))
	filled := percent * width / 100
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("█", filled), strings.Repeat("░", width-filled), percent)
}
