package rrate

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tbeek/covidnl-tui/internal/services"
	"github.com/tbeek/covidnl-tui/internal/stats"
	"github.com/tbeek/covidnl-tui/internal/ui/components"
	"github.com/tbeek/covidnl-tui/internal/ui/styles"
)

// View renders the R-rate tab.
func (m *Model) View() string {
	snap := m.state.Snapshot()
	if snap == nil || len(snap.RRates) == 0 {
		return m.renderEmpty()
	}

	sections := []string{
		m.renderHeader(snap),
		m.renderCurrent(snap),
		m.renderChart(snap),
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
		styles.TitleStyle.Render("Reproduction rate"),
		"",
		styles.HelpStyle.Render("No case data loaded yet."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader(snap *services.Snapshot) string {
	title := styles.TitleStyle.Render("Reproduction rate")

	subtitle := styles.HelpStyle.Render(
		"Estimated from the ratio of the 5-day to the 15-day average of daily cases.")

	var reliability string
	if snap.ReliableFrom > 0 && snap.ReliableFrom < len(snap.Daily.Days) {
		reliability = styles.HelpStyle.Render(fmt.Sprintf(
			"Estimates before %s are unreliable (too few cases).",
			snap.Daily.Days[snap.ReliableFrom].Format("Jan 2, 2006"),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, reliability, "")
}

func (m *Model) renderCurrent(snap *services.Snapshot) string {
	cardWidth := max(m.width-6, 40)

	r := snap.RRates[len(snap.RRates)-1]
	value := styles.GetRStyle(r).Render(fmt.Sprintf("%.2f", r))

	verdict := "shrinking"
	if r > 1 {
		verdict = "growing"
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			styles.CardTitleStyle.Render("Latest estimate"),
			"",
			fmt.Sprintf("R = %s  (epidemic %s)", value, verdict),
			"",
		),
	)
}

func (m *Model) renderChart(snap *services.Snapshot) string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("R over time"), "")

	rates := snap.RRates
	start := snap.ReliableFrom
	if m.showUnreliable || start >= len(rates) {
		start = 0
	}
	visible := rates[start:]

	below, above := stats.SplitBands(visible, 1)

	chartWidth := max(cardWidth-12, 30)
	chartHeight := 8

	chart := components.RenderBandedChart(below, above, chartWidth, chartHeight, "Reproduction rate")
	for _, line := range strings.Split(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	rows = append(rows, "", "  "+components.RenderLegend([]components.LegendItem{
		{Label: "Below 1", Color: lipgloss.Color("42")},
		{Label: "Above 1", Color: lipgloss.Color("196")},
	}))

	if !m.showUnreliable && start > 0 {
		rows = append(rows, "", "  "+styles.HelpStyle.Render(
			fmt.Sprintf("%d unreliable early days hidden, press u to show them.", start)))
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
