package daily

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbeek/covidnl-tui/internal/app"
	"github.com/tbeek/covidnl-tui/internal/services"
	"github.com/tbeek/covidnl-tui/internal/stats"
)

func testSnapshot() *services.Snapshot {
	day0 := time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC)
	days := make([]time.Time, 10)
	cases := make([]float64, 10)
	deaths := make([]float64, 10)
	hosp := make([]float64, 10)
	for i := range days {
		days[i] = day0.AddDate(0, 0, i)
		cases[i] = float64(10 + i)
		deaths[i] = float64(i % 3)
		hosp[i] = float64(i % 4)
	}
	return &services.Snapshot{
		Daily: stats.DailyCounts{
			Days:             days,
			Cases:            cases,
			Deaths:           deaths,
			Hospitalizations: hosp,
		},
		TrendCases:  cases,
		TrendDeaths: deaths,
		TrendHosp:   hosp,
		RecordCount: 100,
		FileDate:    days[len(days)-1],
	}
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
}

func TestModel_View_Loading(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(100, 40)

	// A fresh state is still loading, so the tab shows the spinner.
	view := m.View()
	if !strings.Contains(view, "Loading case data") {
		t.Errorf("loading view = %q, want spinner with label", view)
	}
}

func TestModel_View_Empty(t *testing.T) {
	state := app.NewState()
	state.SetLoading(false)
	m := New(state, nil)
	m.SetSize(100, 40)

	view := m.View()
	if !strings.Contains(view, "No case data") {
		t.Errorf("empty view = %q, want no-data message", view)
	}
}

func TestModel_View_WithData(t *testing.T) {
	state := app.NewState()
	state.SetSnapshot(testSnapshot())

	m := New(state, nil)
	m.SetSize(100, 40)

	view := m.View()
	if view == "" {
		t.Fatal("View returned empty")
	}
	for _, want := range []string{"Daily counts", "Cases", "Hospitalizations", "Deaths"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_View_Stacked(t *testing.T) {
	state := app.NewState()
	snap := testSnapshot()
	snap.StackLabels = []string{"Male", "Female"}
	snap.StackRows = [][]float64{
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		{2, 2, 2, 2, 2, 2, 2, 2, 2, 2},
	}
	state.SetSnapshot(snap)

	m := New(state, nil)
	m.SetSize(100, 60)

	view := m.View()
	if !strings.Contains(view, "Breakdown") {
		t.Error("stacked view missing breakdown card")
	}
}

func TestModel_ToggleLogScale(t *testing.T) {
	state := app.NewState()
	state.SetSnapshot(testSnapshot())

	m := New(state, nil)
	m.SetSize(100, 40)

	if m.logScale {
		t.Fatal("log scale should start disabled without config")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	if !m.logScale {
		t.Error("l key should enable log scale")
	}
	if m.View() == "" {
		t.Error("log scale view is empty")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	if m.logScale {
		t.Error("l key should toggle log scale back off")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
