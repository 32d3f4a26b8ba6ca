package stats

import (
	"math"

	"github.com/tbeek/covidnl-tui/internal/models"
)

const (
	rShortWindow = 5
	rLongWindow  = 15

	// reliableCaseLevel is the 15-day average case count below which the
	// R estimate is considered too noisy to trust.
	reliableCaseLevel = 150.0

	// bandHysteresis pads the split between the below-1 and above-1 chart
	// bands so the line does not flicker around its closest approach to 1.
	bandHysteresis = 0.025
)

// EstimateR derives a day-by-day reproduction-rate estimate from the daily
// case series: the ratio of the 5-day to the 15-day trailing average,
// smoothed with a further 5-day average. A ratio above 1 implies growth,
// below 1 decline.
//
// The second return value is the index of the first day whose estimate is
// considered reliable: the first index >= 15 where the 15-day average
// reaches 150 cases (scaled down by the population factor in per-capita
// mode). When the average never reaches that level, the scan start index 15
// is returned so callers still have a safe lower bound.
func EstimateR(cases []float64, perCapita bool) ([]float64, int) {
	shortAvg := Smooth(cases, rShortWindow)
	longAvg := Smooth(cases, rLongWindow)

	threshold := reliableCaseLevel
	if perCapita {
		threshold /= models.PerCapitaFactor()
	}

	reliableFrom := rLongWindow
	for i := rLongWindow; i < len(longAvg); i++ {
		if longAvg[i] >= threshold {
			reliableFrom = i
			break
		}
	}

	estimates := make([]float64, len(cases))
	for i := rLongWindow; i < len(cases); i++ {
		if longAvg[i] == 0 {
			continue
		}
		estimates[i] = shortAvg[i] / longAvg[i]
	}

	return Smooth(estimates, rShortWindow), reliableFrom
}

// SplitBands separates an R-rate series into a below-1 and an above-1
// sequence for two-colored rendering. Masked-out points are NaN. The split
// lines sit bandHysteresis beyond the series' closest approach to 1 from
// each side, and single-point gaps at band boundaries are stitched so the
// two lines visually connect. Purely a presentation helper; the numeric
// contract lives in EstimateR.
func SplitBands(rates []float64, start int) (below, above []float64) {
	// Closest approach to 1 from below and from above.
	maxBelow := math.Inf(-1)
	minAbove := math.Inf(1)
	for _, r := range rates {
		if r <= 1 && r > maxBelow {
			maxBelow = r
		}
		if r >= 1 && r < minAbove {
			minAbove = r
		}
	}

	below = make([]float64, len(rates))
	above = make([]float64, len(rates))
	for i, r := range rates {
		below[i] = r
		above[i] = r
		if r >= maxBelow+bandHysteresis {
			below[i] = math.NaN()
		}
		if r <= minAbove-bandHysteresis {
			above[i] = math.NaN()
		}
	}

	if start < 1 {
		start = 1
	}
	for i := start; i < len(below)-1; i++ {
		if math.IsNaN(below[i]) && !(math.IsNaN(below[i-1]) && math.IsNaN(below[i+1])) {
			below[i] = above[i]
		}
	}

	return below, above
}
