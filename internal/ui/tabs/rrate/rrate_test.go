package rrate

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
	days := make([]time.Time, 25)
	rates := make([]float64, 25)
	for i := range days {
		days[i] = day0.AddDate(0, 0, i)
		if i < 12 {
			rates[i] = 0.9
		} else {
			rates[i] = 1.2
		}
	}
	return &services.Snapshot{
		Daily:        stats.DailyCounts{Days: days},
		RRates:       rates,
		ReliableFrom: 15,
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
	for _, want := range []string{"Reproduction rate", "Latest estimate", "1.20", "growing"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if !strings.Contains(view, "unreliable early days hidden") {
		t.Error("view missing unreliable-days note")
	}
}

func TestModel_ToggleUnreliable(t *testing.T) {
	state := app.NewState()
	state.SetSnapshot(testSnapshot())

	m := New(state, nil)
	m.SetSize(100, 40)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'u'}})
	if !m.showUnreliable {
		t.Error("u key should show unreliable estimates")
	}
	view := m.View()
	if strings.Contains(view, "unreliable early days hidden") {
		t.Error("note should disappear when unreliable estimates are shown")
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
