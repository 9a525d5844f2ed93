// File: pkg/formatter/table.go
package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Underline(true)
)

type Table struct {
	Headers []string
	Rows    [][]string
}

// Creates a new table with the given headers
func NewTable(headers []string) *Table {
	return &Table{
		Headers: headers,
		Rows:    [][]string{},
	}
}

// AddRow appends a row. Rows shorter than the header are padded with empty cells.
func (t *Table) AddRow(row []string) {
	for len(row) < len(t.Headers) {
		row = append(row, "")
	}
	t.Rows = append(t.Rows, row[:len(t.Headers)])
}

// Returns the string representation of the table
func (t *Table) String() string {
	if len(t.Headers) == 0 {
		return ""
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// Formats a section header with a title
func FormatHeaderSection(title string) string {
	var sb strings.Builder

	borderLine := strings.Repeat("=", len(title)+30)

	sb.WriteString(borderLine)
	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("  " + title + "  "))
	sb.WriteString("\n")
	sb.WriteString(borderLine)

	return sb.String()
}

// Formats a simple section title
func FormatSectionTitle(title string) string {
	return sectionStyle.Render("-- " + title + " --")
}
