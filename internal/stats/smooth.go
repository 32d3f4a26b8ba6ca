package stats

// Smooth applies a trailing simple moving average with the given window.
// Output index i holds the mean of input indices [i-w+1, i]; indices below
// w-1 stay zero because there is not enough history. The function never pads
// or backfills; callers aligning smoothed output to a date axis own the
// w-1 (or w/2) offset. A window of 0 means "no smoothing requested" and
// should be special-cased by the caller instead of calling Smooth.
func Smooth(line []float64, window int) []float64 {
	smoothed := make([]float64, len(line))
	if window <= 0 {
		copy(smoothed, line)
		return smoothed
	}
	for end := window; end <= len(line); end++ {
		sum := 0.0
		for _, v := range line[end-window : end] {
			sum += v
		}
		smoothed[end-1] = sum / float64(window)
	}
	return smoothed
}

// SmoothedTrends smooths the case, death, and hospitalization series with a
// shared window.
func SmoothedTrends(d DailyCounts, window int) (cases, deaths, hosp []float64) {
	return Smooth(d.Cases, window), Smooth(d.Deaths, window), Smooth(d.Hospitalizations, window)
}
