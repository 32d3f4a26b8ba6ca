package stats

import (
	"math"
	"testing"
)

// growthSeries builds n days of counts multiplying by rate each day.
func growthSeries(n int, start, rate float64) []float64 {
	out := make([]float64, n)
	v := start
	for i := range out {
		out[i] = v
		v *= rate
	}
	return out
}

func TestEstimateRGrowth(t *testing.T) {
	cases := growthSeries(40, 200, 1.1)
	rates, _ := EstimateR(cases, false)

	// With constant growth the 5-day average always exceeds the 15-day one.
	for i := rLongWindow + rShortWindow; i < len(rates); i++ {
		if rates[i] <= 1 {
			t.Errorf("rates[%d] = %v, want > 1 for a growing series", i, rates[i])
		}
	}
}

func TestEstimateRDecline(t *testing.T) {
	cases := growthSeries(40, 10000, 0.9)
	rates, _ := EstimateR(cases, false)

	for i := rLongWindow + rShortWindow; i < len(rates); i++ {
		if rates[i] >= 1 {
			t.Errorf("rates[%d] = %v, want < 1 for a declining series", i, rates[i])
		}
	}
}

func TestEstimateRFlat(t *testing.T) {
	cases := growthSeries(40, 500, 1.0)
	rates, _ := EstimateR(cases, false)

	for i := rLongWindow + rShortWindow; i < len(rates); i++ {
		if math.Abs(rates[i]-1) > 1e-9 {
			t.Errorf("rates[%d] = %v, want ~1 for a flat series", i, rates[i])
		}
	}
}

func TestEstimateRReliabilityIndex(t *testing.T) {
	// Low counts first, then a jump well past the 150-case level.
	cases := make([]float64, 50)
	for i := range cases {
		if i < 30 {
			cases[i] = 5
		} else {
			cases[i] = 5000
		}
	}

	_, reliableFrom := EstimateR(cases, false)
	if reliableFrom <= rLongWindow {
		t.Fatalf("reliableFrom = %d, want a later index once the average catches up", reliableFrom)
	}
	longAvg := Smooth(cases, rLongWindow)
	if longAvg[reliableFrom] < 150 {
		t.Errorf("15-day average at reliableFrom = %v, want >= 150", longAvg[reliableFrom])
	}
	if longAvg[reliableFrom-1] >= 150 {
		t.Errorf("reliableFrom = %d is not the first reliable index", reliableFrom)
	}
}

func TestEstimateRReliabilityFallback(t *testing.T) {
	// The average never reaches 150: the scan start index is returned.
	cases := growthSeries(40, 3, 1.0)
	_, reliableFrom := EstimateR(cases, false)
	if reliableFrom != rLongWindow {
		t.Errorf("reliableFrom = %d, want fallback %d", reliableFrom, rLongWindow)
	}
}

func TestEstimateRShortSeries(t *testing.T) {
	rates, reliableFrom := EstimateR([]float64{10, 20, 30}, false)
	if len(rates) != 3 {
		t.Fatalf("len(rates) = %d, want 3", len(rates))
	}
	if reliableFrom != rLongWindow {
		t.Errorf("reliableFrom = %d, want %d", reliableFrom, rLongWindow)
	}
}

func TestSplitBands(t *testing.T) {
	rates := []float64{0, 0.8, 0.9, 0.95, 1.1, 1.2, 1.15, 0.97, 0.9}
	below, above := SplitBands(rates, 1)

	if len(below) != len(rates) || len(above) != len(rates) {
		t.Fatalf("band lengths %d/%d, want %d", len(below), len(above), len(rates))
	}

	// Clearly-below points stay in the below band, clearly-above in above.
	if math.IsNaN(below[1]) {
		t.Error("below band lost a sub-1 point")
	}
	if math.IsNaN(above[5]) {
		t.Error("above band lost a super-1 point")
	}
	if !math.IsNaN(above[1]) {
		t.Error("above band kept a clearly sub-1 point")
	}
	if !math.IsNaN(below[5]) {
		t.Error("below band kept a clearly super-1 point")
	}
}

func TestSplitBandsAllAbove(t *testing.T) {
	rates := []float64{1.2, 1.3, 1.4, 1.5}
	below, above := SplitBands(rates, 1)

	for i := range above {
		if math.IsNaN(above[i]) {
			t.Errorf("above[%d] masked, want full line when every point is above 1", i)
		}
	}
	// The stitching may copy isolated points; the interior stays masked.
	if !math.IsNaN(below[len(below)-1]) {
		t.Error("below band kept the final point of an all-above series")
	}
}
