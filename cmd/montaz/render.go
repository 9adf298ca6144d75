package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"montaz-workers/internal/common/format"
	"montaz-workers/internal/coverage"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	statusColors = map[coverage.Status]lipgloss.Color{
		coverage.StatusFull:        lipgloss.Color("42"),
		coverage.StatusComposition: lipgloss.Color("39"),
		coverage.StatusPartial:     lipgloss.Color("214"),
		coverage.StatusNone:        lipgloss.Color("196"),
	}
)

func renderReport(r *coverageReport) string {
	var b strings.Builder

	title := r.ProjectName
	if title == "" {
		title = r.ProjectID
	}
	if title != "" {
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n")
	}

	res := r.Coverage
	status := lipgloss.NewStyle().Bold(true).Foreground(statusColors[res.Status]).Render(string(res.Status))
	fmt.Fprintf(&b, "Stav: %s  Obsazeno %d z %d\n", status, res.Filled, res.Required)

	if len(res.Coverage) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Seniorita", "Požadováno", "Přiřazeno", "Pokryto", "Chybí", "Stav").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		for _, tc := range res.Coverage {
			t.Row(
				string(tc.Seniority),
				strconv.Itoa(tc.Required),
				strconv.Itoa(tc.Assigned),
				strconv.Itoa(tc.Covered),
				strconv.Itoa(tc.Missing),
				string(tc.Status),
			)
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if len(res.Missing) > 0 {
		fmt.Fprintf(&b, "Chybí: %s", format.MissingSummary(res.Missing))
	}
	return strings.TrimRight(b.String(), "\n")
}
