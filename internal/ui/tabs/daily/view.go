package daily

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tbeek/covidnl-tui/internal/config"
	"github.com/tbeek/covidnl-tui/internal/services"
	"github.com/tbeek/covidnl-tui/internal/ui/components"
	"github.com/tbeek/covidnl-tui/internal/ui/styles"
)

// View renders the daily tab.
func (m *Model) View() string {
	snap := m.state.Snapshot()
	if snap == nil || len(snap.Daily.Days) == 0 {
		return m.renderEmpty()
	}

	var sections []string
	sections = append(sections,
		m.renderHeader(snap),
		m.renderSeriesChart("Cases", snap.Daily.Cases, snap.TrendCases),
		m.renderSeriesChart("Hospitalizations", snap.Daily.Hospitalizations, snap.TrendHosp),
		m.renderSeriesChart("Deaths", snap.Daily.Deaths, snap.TrendDeaths),
	)
	if len(snap.StackLabels) > 0 {
		sections = append(sections, m.renderStacks(snap))
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
		styles.TitleStyle.Render("Daily counts"),
		"",
		styles.HelpStyle.Render("No case data loaded yet."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader(snap *services.Snapshot) string {
	title := styles.TitleStyle.Render("Daily counts")

	days := snap.Daily.Days
	dataRange := fmt.Sprintf("Data: %s → %s (%d days, %d cases)",
		days[0].Format("Jan 2, 2006"),
		days[len(days)-1].Format("Jan 2, 2006"),
		len(days),
		snap.RecordCount,
	)
	subtitle := styles.HelpStyle.Render(dataRange)

	var modes []string
	if m.logScale {
		modes = append(modes, "log scale")
	}
	if cfg := m.config(); cfg != nil {
		if cfg.PerCapita {
			modes = append(modes, "per 100k inhabitants")
		}
		if cfg.Region != "" {
			modes = append(modes, "region "+cfg.Region)
		}
		if cfg.AgeFilter != "" {
			modes = append(modes, "ages "+cfg.AgeFilter)
		}
	}
	if len(modes) > 0 {
		subtitle = lipgloss.JoinVertical(lipgloss.Left,
			subtitle,
			styles.HelpStyle.Render(strings.Join(modes, ", ")),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderSeriesChart(name string, raw, trend []float64) string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render(name), "")

	chartWidth := max(cardWidth-12, 30)
	chartHeight := 7

	plotRaw, plotTrend := raw, trend
	if m.logScale {
		plotRaw = components.LogScale(raw)
		plotTrend = components.LogScale(trend)
	}

	caption := fmt.Sprintf("%s per day", name)
	var chart string
	if len(plotTrend) > 0 {
		chart = components.RenderTrendChart(plotRaw, plotTrend, chartWidth, chartHeight, caption)
	} else {
		chart = components.RenderLineChart(plotRaw, chartWidth, chartHeight, caption)
	}
	for _, line := range strings.Split(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	if len(plotTrend) > 0 {
		rows = append(rows, "", "  "+components.RenderLegend([]components.LegendItem{
			{Label: name, Color: components.ChartHospColor},
			{Label: "Trend", Color: components.ChartDeathsColor},
		}))
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderStacks(snap *services.Snapshot) string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	dim := ""
	if cfg := m.config(); cfg != nil {
		dim = cfg.StackBy
	}
	rows = append(rows, styles.CardTitleStyle.Render("Breakdown by "+dim), "")

	totals := make([]float64, len(snap.StackRows))
	for i, row := range snap.StackRows {
		for _, v := range row {
			totals[i] += v
		}
	}

	chartWidth := max(cardWidth-12, 30)
	barChart := components.RenderBarChart(totals, snap.StackLabels, chartWidth)
	for _, line := range strings.Split(barChart, "\n") {
		rows = append(rows, "  "+line)
	}

	// Recent shape per group.
	rows = append(rows, "", "  "+styles.HelpStyle.Render("Recent trend per group:"))
	sparkWidth := min(chartWidth, 40)
	for i, label := range snap.StackLabels {
		spark := components.RenderSparkline(snap.StackRows[i], sparkWidth)
		rows = append(rows, fmt.Sprintf("  %-15s %s", label, spark))
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) config() *config.Config {
	if m.services == nil {
		return nil
	}
	return m.services.Config()
}
