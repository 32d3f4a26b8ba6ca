// Package stats implements the aggregation and derived-metric pipeline:
// per-day series, cumulative totals, stacked breakdowns, trend smoothing,
// the reproduction-rate estimate, and risk classification.
package stats

import (
	"sort"
	"time"

	"github.com/tbeek/covidnl-tui/internal/models"
)

// DailyCounts holds the per-day series produced by Aggregate. Days contains
// only dates with at least one matching case, in ascending order; the three
// count slices are aligned with it. The maps hold the same values keyed by
// day. In per-capita mode every value is a nationwide per-100k rate.
type DailyCounts struct {
	Days             []time.Time
	Cases            []float64
	Deaths           []float64
	Hospitalizations []float64

	CasesByDay  map[time.Time]float64
	DeathsByDay map[time.Time]float64
	HospByDay   map[time.Time]float64
}

// Aggregate walks the cases once, counting cases, deaths, and
// hospitalizations per day for records passing the filter. Days with no
// matching case are not represented; deaths and hospitalizations are
// back-filled with zero for every represented day. Per-capita mode divides
// every value by the total population over all regions in units of 100k,
// regardless of any region filter.
func Aggregate(cases []models.CaseRecord, filter *models.CaseFilter, perCapita bool) DailyCounts {
	casesByDay := make(map[time.Time]float64)
	deathsByDay := make(map[time.Time]float64)
	hospByDay := make(map[time.Time]float64)

	for _, c := range cases {
		if !filter.Match(c) {
			continue
		}
		casesByDay[c.Day]++
		if c.Deceased {
			deathsByDay[c.Day]++
		}
		if c.Hospitalized {
			hospByDay[c.Day]++
		}
	}

	return FromDayTotals(casesByDay, deathsByDay, hospByDay, perCapita)
}

// FromDayTotals builds DailyCounts from day-indexed totals instead of
// individual records, covering series restored from the aggregate cache.
// The day axis is taken from casesByDay; deaths and hospitalizations are
// back-filled with zero for days missing from their maps. The maps are
// retained (and rescaled in per-capita mode), not copied.
func FromDayTotals(casesByDay, deathsByDay, hospByDay map[time.Time]float64, perCapita bool) DailyCounts {
	popFactor := 1.0
	if perCapita {
		popFactor = models.PerCapitaFactor()
	}

	days := make([]time.Time, 0, len(casesByDay))
	for day := range casesByDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	d := DailyCounts{
		Days:             days,
		Cases:            make([]float64, len(days)),
		Deaths:           make([]float64, len(days)),
		Hospitalizations: make([]float64, len(days)),
		CasesByDay:       casesByDay,
		DeathsByDay:      deathsByDay,
		HospByDay:        hospByDay,
	}

	for i, day := range days {
		casesByDay[day] /= popFactor
		deathsByDay[day] /= popFactor
		hospByDay[day] /= popFactor
		d.Cases[i] = casesByDay[day]
		d.Deaths[i] = deathsByDay[day]
		d.Hospitalizations[i] = hospByDay[day]
	}

	return d
}

// Cumulative produces the running sum of a per-day series over the given
// days, seeded with the first day's own count. The result has the same
// length as days and is non-decreasing for non-negative input.
func Cumulative(days []time.Time, perDay map[time.Time]float64) []float64 {
	if len(days) == 0 {
		return nil
	}
	out := make([]float64, len(days))
	out[0] = perDay[days[0]]
	for i := 1; i < len(days); i++ {
		out[i] = out[i-1] + perDay[days[i]]
	}
	return out
}

// CumulativeCounts returns the cumulative case, death, and hospitalization
// series for an aggregation result.
func CumulativeCounts(d DailyCounts) (cases, deaths, hosp []float64) {
	return Cumulative(d.Days, d.CasesByDay),
		Cumulative(d.Days, d.DeathsByDay),
		Cumulative(d.Days, d.HospByDay)
}

// StackDimension selects the categorical dimension for a stacked breakdown.
type StackDimension string

const (
	StackRegion StackDimension = "region"
	StackSex    StackDimension = "sex"
	StackAge    StackDimension = "age"
)

// StackLabels returns the row labels for a stacking dimension: regions by
// descending population, sexes in fixed order, or age brackets in table
// order (restricted to the filter's brackets when an age filter is active).
func StackLabels(filter *models.CaseFilter, dim StackDimension) []string {
	switch dim {
	case StackRegion:
		return models.RegionsByPopulation()
	case StackSex:
		return append([]string(nil), models.SexLabels...)
	default:
		if filter != nil && filter.AgeBrackets != nil {
			return append([]string(nil), filter.AgeBrackets...)
		}
		return append([]string(nil), models.AgeBrackets...)
	}
}

// SeparateStacks re-walks the filtered cases and builds a labels × days grid
// of case counts. Cases whose stack key is not in the label set are dropped
// from the breakdown (they still count toward the unstacked totals). In
// per-capita mode, valid for the region dimension, each region's row is
// divided by that region's own population factor and each day's column is
// then rescaled so its sum matches the nationwide per-capita total for that
// day, preserving the proportions among regions.
func SeparateStacks(
	cases []models.CaseRecord,
	days []time.Time,
	dim StackDimension,
	filter *models.CaseFilter,
	perCapita bool,
) ([]string, [][]float64) {
	labels := StackLabels(filter, dim)

	labelIdx := make(map[string]int, len(labels))
	for i, label := range labels {
		labelIdx[label] = i
	}
	dayIdx := make(map[time.Time]int, len(days))
	for i, day := range days {
		dayIdx[day] = i
	}

	grid := make([][]float64, len(labels))
	for i := range grid {
		grid[i] = make([]float64, len(days))
	}

	for _, c := range cases {
		if !filter.Match(c) {
			continue
		}
		li, ok := labelIdx[stackKey(c, dim)]
		if !ok {
			continue
		}
		di, ok := dayIdx[c.Day]
		if !ok {
			continue
		}
		grid[li][di]++
	}

	if perCapita && dim == StackRegion {
		normalizeRegionColumns(labels, days, grid)
	}

	return labels, grid
}

// StackCell is one day's case count within one stack category, the shape the
// aggregate cache stores breakdowns in.
type StackCell struct {
	Day   time.Time
	Label string
	Count float64
}

// StacksFromCells builds the labels × days grid from pre-aggregated cells
// instead of individual records. Cells with labels outside the label set or
// days outside the axis are dropped, mirroring SeparateStacks.
func StacksFromCells(
	cells []StackCell,
	days []time.Time,
	dim StackDimension,
	filter *models.CaseFilter,
	perCapita bool,
) ([]string, [][]float64) {
	labels := StackLabels(filter, dim)

	labelIdx := make(map[string]int, len(labels))
	for i, label := range labels {
		labelIdx[label] = i
	}
	dayIdx := make(map[time.Time]int, len(days))
	for i, day := range days {
		dayIdx[day] = i
	}

	grid := make([][]float64, len(labels))
	for i := range grid {
		grid[i] = make([]float64, len(days))
	}

	for _, cell := range cells {
		li, ok := labelIdx[cell.Label]
		if !ok {
			continue
		}
		di, ok := dayIdx[cell.Day]
		if !ok {
			continue
		}
		grid[li][di] += cell.Count
	}

	if perCapita && dim == StackRegion {
		normalizeRegionColumns(labels, days, grid)
	}

	return labels, grid
}

func stackKey(c models.CaseRecord, dim StackDimension) string {
	switch dim {
	case StackRegion:
		return c.Region
	case StackSex:
		return c.Sex
	default:
		return c.AgeBracket
	}
}

// normalizeRegionColumns converts each region row to that region's own
// per-100k rate, then rescales every day column so its sum equals the
// nationwide per-capita total for the day. Columns that end up at zero are
// left untouched rather than divided by zero.
func normalizeRegionColumns(labels []string, days []time.Time, grid [][]float64) {
	totalPop := models.PerCapitaFactor()

	for di := range days {
		columnSum := 0.0
		for li := range labels {
			columnSum += grid[li][di]
		}
		target := columnSum / totalPop

		for li, region := range labels {
			regionPop := float64(models.RegionPopulation(region)) / 100000
			grid[li][di] /= regionPop
		}

		scaledSum := 0.0
		for li := range labels {
			scaledSum += grid[li][di]
		}
		if scaledSum == 0 {
			continue
		}
		factor := target / scaledSum
		for li := range labels {
			grid[li][di] *= factor
		}
	}
}
