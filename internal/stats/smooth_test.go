package stats

import (
	"math"
	"reflect"
	"testing"
)

func TestSmoothConstantSeries(t *testing.T) {
	line := make([]float64, 20)
	for i := range line {
		line[i] = 42
	}

	const window = 7
	smoothed := Smooth(line, window)

	for i := 0; i < window-1; i++ {
		if smoothed[i] != 0 {
			t.Errorf("smoothed[%d] = %v, want 0 (insufficient history)", i, smoothed[i])
		}
	}
	for i := window - 1; i < len(smoothed); i++ {
		if math.Abs(smoothed[i]-42) > 1e-12 {
			t.Errorf("smoothed[%d] = %v, want 42", i, smoothed[i])
		}
	}
}

func TestSmoothAverages(t *testing.T) {
	line := []float64{1, 2, 3, 4, 5}
	smoothed := Smooth(line, 3)

	want := []float64{0, 0, 2, 3, 4}
	if !reflect.DeepEqual(smoothed, want) {
		t.Errorf("Smooth = %v, want %v", smoothed, want)
	}
}

func TestSmoothDoesNotMutateInput(t *testing.T) {
	line := []float64{5, 5, 5}
	Smooth(line, 2)
	if !reflect.DeepEqual(line, []float64{5, 5, 5}) {
		t.Errorf("input mutated: %v", line)
	}
}

func TestSmoothWindowLargerThanSeries(t *testing.T) {
	smoothed := Smooth([]float64{1, 2}, 5)
	if !reflect.DeepEqual(smoothed, []float64{0, 0}) {
		t.Errorf("Smooth = %v, want all zeros", smoothed)
	}
}
