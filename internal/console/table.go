package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableConfig describes a table to render with RenderTable.
type TableConfig struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTable renders a simple bordered table, used by "asterc jobs" to
// print the planned job DAG (position, kind, inputs, outputs).
func RenderTable(cfg TableConfig) string {
	if len(cfg.Headers) == 0 {
		return ""
	}

	var out strings.Builder
	if cfg.Title != "" {
		out.WriteString(applyStyle(styleInfo.Bold(true), cfg.Title))
		out.WriteString("\n")
	}

	styleFunc := func(row, _ int) lipgloss.Style {
		if !isTTY() {
			return lipgloss.NewStyle()
		}
		if row == table.HeaderRow {
			return lipgloss.NewStyle().Bold(true)
		}
		return lipgloss.NewStyle()
	}

	t := table.New().
		Headers(cfg.Headers...).
		Rows(cfg.Rows...).
		Border(lipgloss.NormalBorder()).
		StyleFunc(styleFunc)

	out.WriteString(t.String())
	out.WriteString("\n")
	return out.String()
}
