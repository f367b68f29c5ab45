package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"yamo/treasury/internal/currencyutils"
	"yamo/treasury/internal/view"
)

// RenderTable draws the rows of a page. A positive limit caps the number of rows shown.
func RenderTable(page view.Page, limit int) string {
	rows := page.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderColor).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Headers(page.Columns...).
		Rows(rows...)
	return t.String()
}

// Totals is the aggregate line of a page: filtered over total, then the primary sum.
func Totals(page view.Page, currency string) string {
	agg := page.Aggregate
	line := fmt.Sprintf("%d / %d", agg.Filtered, agg.Total)
	if agg.Primary != "" {
		line += fmt.Sprintf(" · %s : %s", agg.Primary, currencyutils.FormatAmount(agg.Sum(), currency))
	}
	return line
}
