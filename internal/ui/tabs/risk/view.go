package risk

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tbeek/covidnl-tui/internal/services"
	"github.com/tbeek/covidnl-tui/internal/ui/components"
	"github.com/tbeek/covidnl-tui/internal/ui/styles"
)

// levelNames follows the official four-step national ladder.
var levelNames = map[int]string{
	1: "Vigilant",
	2: "Concerning",
	3: "Severe",
	4: "Very severe",
}

// View renders the risk tab.
func (m *Model) View() string {
	snap := m.state.Snapshot()
	if snap == nil {
		return m.renderEmpty()
	}
	if snap.RiskErr != nil {
		return m.renderError(snap)
	}

	sections := []string{
		m.renderHeader(),
		m.renderLevel(snap),
		m.renderIndicators(snap),
		m.renderLadder(),
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
		styles.TitleStyle.Render("Risk level"),
		"",
		styles.HelpStyle.Render("No case data loaded yet."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderError(snap *services.Snapshot) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Risk level"),
		"",
		fmt.Sprintf("%s %v",
			styles.WarningTextStyle.Render("Cannot classify:"),
			snap.RiskErr,
		),
		"",
		styles.HelpStyle.Render("Classification needs at least two weeks of complete data."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Risk level")
	subtitle := styles.HelpStyle.Render(
		"Nationwide classification over the most recent complete week.")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderLevel(snap *services.Snapshot) string {
	cardWidth := max(m.width-6, 40)

	level := snap.Risk.Level
	badge := styles.GetRiskStyle(level).Render(
		fmt.Sprintf("Level %d: %s", level, levelNames[level]))

	return styles.RiskCardStyle.Width(cardWidth).Render(
		styles.CenterHorizontal(badge, cardWidth-6),
	)
}

func (m *Model) renderIndicators(snap *services.Snapshot) string {
	cardWidth := max(m.width-6, 40)

	rows := []string{
		styles.CardTitleStyle.Render("Weekly indicators"),
		"",
		fmt.Sprintf("  Cases per 100k inhabitants:        %7.1f", snap.Risk.CasesPer100k),
		fmt.Sprintf("  Hospital admissions per million:   %7.1f", snap.Risk.HospPerMillion),
		"",
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderLadder() string {
	cardWidth := max(m.width-6, 40)

	header := fmt.Sprintf("  %-14s %-18s %s",
		"Level", "Cases / 100k", "Admissions / million")
	lines := []string{
		styles.CardTitleStyle.Render("Thresholds"),
		"",
		styles.HelpStyle.Render(header),
		m.ladderLine(1, "< 35", "< 4"),
		m.ladderLine(2, "35 - 100", "4 - 16"),
		m.ladderLine(3, "100 - 250", "16 - 27"),
		m.ladderLine(4, "> 250", "> 27"),
		"",
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

func (m *Model) ladderLine(level int, cases, hosp string) string {
	name := styles.GetRiskStyle(level).Render(fmt.Sprintf("%d %s", level, levelNames[level]))
	pad := strings.Repeat(" ", max(14-len(fmt.Sprintf("%d %s", level, levelNames[level])), 1))
	return fmt.Sprintf("  %s%s %-18s %s", name, pad, cases, hosp)
}
