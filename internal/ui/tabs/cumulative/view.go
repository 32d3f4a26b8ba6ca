package cumulative

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tbeek/covidnl-tui/internal/services"
	"github.com/tbeek/covidnl-tui/internal/ui/components"
	"github.com/tbeek/covidnl-tui/internal/ui/styles"
)

// View renders the cumulative tab.
func (m *Model) View() string {
	snap := m.state.Snapshot()
	if snap == nil || len(snap.Daily.Days) == 0 {
		return m.renderEmpty()
	}

	sections := []string{
		m.renderHeader(snap),
		m.renderTotals(snap),
		m.renderChart("Cumulative cases", snap.CumCases),
		m.renderChart("Cumulative hospitalizations", snap.CumHosp),
		m.renderChart("Cumulative deaths", snap.CumDeaths),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderEmpty() string {
	if m.state.IsLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Cumulative totals"),
		"",
		styles.HelpStyle.Render("No case data loaded yet."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader(snap *services.Snapshot) string {
	title := styles.TitleStyle.Render("Cumulative totals")

	days := snap.Daily.Days
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("Running totals %s → %s",
		days[0].Format("Jan 2, 2006"),
		days[len(days)-1].Format("Jan 2, 2006"),
	))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderTotals(snap *services.Snapshot) string {
	cardWidth := max(m.width-6, 40)

	last := func(s []float64) float64 {
		if len(s) == 0 {
			return 0
		}
		return s[len(s)-1]
	}

	line := fmt.Sprintf("%s %s   %s %s   %s %s",
		styles.InfoTextStyle.Render("Cases:"),
		formatCount(last(snap.CumCases)),
		styles.WarningTextStyle.Render("Hospitalized:"),
		formatCount(last(snap.CumHosp)),
		styles.ErrorTextStyle.Render("Deaths:"),
		formatCount(last(snap.CumDeaths)),
	)

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			styles.CardTitleStyle.Render("Totals to date"),
			"",
			line,
			"",
		),
	)
}

func (m *Model) renderChart(name string, series []float64) string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render(name), "")

	chartWidth := max(cardWidth-12, 30)
	chartHeight := 7

	data := series
	if m.logScale {
		data = components.LogScale(series)
	}

	chart := components.RenderLineChart(data, chartWidth, chartHeight, name)
	for _, line := range strings.Split(chart, "\n") {
		rows = append(rows, "  "+line)
	}
	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// formatCount renders a count without decimals when it is whole, which it is
// except in per-capita mode.
func formatCount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
