package components

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Loading")
	if s.label != "Loading" {
		t.Error("Spinner label mismatch")
	}
}

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Loading case data")

	if view := s.View(); !strings.Contains(view, "Loading case data") {
		t.Errorf("View = %q, want the label rendered", view)
	}

	if s.Init() == nil {
		t.Error("Init should return command")
	}

	_, cmd := s.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Update should return command for tick")
	}
}

func TestRenderSpinnerCentered(t *testing.T) {
	s := NewSpinner("Loading...")
	view := RenderSpinnerCentered(s, 20, 5)
	if view == "" {
		t.Error("RenderSpinnerCentered returned empty")
	}
}

func TestRenderLineChart(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	s := RenderLineChart(data, 20, 5, "Test")
	if s == "" {
		t.Error("RenderLineChart returned empty")
	}
}

func TestRenderLineChart_Empty(t *testing.T) {
	s := RenderLineChart(nil, 20, 5, "Test")
	if !strings.Contains(s, "No data") {
		t.Errorf("empty chart = %q, want no-data message", s)
	}
}

func TestRenderTrendChart(t *testing.T) {
	raw := []float64{1, 5, 2, 6, 3}
	trend := []float64{1, 3, 2.5, 4, 3.5}
	s := RenderTrendChart(raw, trend, 20, 5, "Cases")
	if s == "" {
		t.Error("RenderTrendChart returned empty")
	}
}

func TestRenderTrendChart_UnevenLengths(t *testing.T) {
	raw := []float64{1, 2, 3, 4, 5}
	trend := []float64{2, 3}
	s := RenderTrendChart(raw, trend, 20, 5, "")
	if s == "" {
		t.Error("RenderTrendChart returned empty for uneven series")
	}
}

func TestRenderBandedChart(t *testing.T) {
	nan := math.NaN()
	low := []float64{0.8, 0.9, nan, nan}
	high := []float64{nan, nan, 1.2, 1.4}
	s := RenderBandedChart(low, high, 20, 5, "R")
	if s == "" {
		t.Error("RenderBandedChart returned empty")
	}
}

func TestLogScale(t *testing.T) {
	out := LogScale([]float64{1, 10, 100, 0})
	if out[0] != 0 || out[1] != 1 || out[2] != 2 {
		t.Errorf("LogScale powers of ten = %v", out[:3])
	}
	if !math.IsNaN(out[3]) {
		t.Errorf("LogScale(0) = %v, want NaN", out[3])
	}
}

func TestRenderBarChart(t *testing.T) {
	values := []float64{10, 20}
	labels := []string{"A", "B"}
	s := RenderBarChart(values, labels, 20)
	if s == "" {
		t.Error("RenderBarChart returned empty")
	}
}

func TestRenderSparkline(t *testing.T) {
	data := []float64{1, 2, 3}
	s := RenderSparkline(data, 10)
	if s == "" {
		t.Error("RenderSparkline returned empty")
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{
		{Label: "Cases", Color: ChartCasesColor},
	}
	s := RenderLegend(items)
	if s == "" {
		t.Error("RenderLegend returned empty")
	}
}
