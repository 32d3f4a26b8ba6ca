// Package models defines the data types for the case dataset and its filters.
package models

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// CaseRecord is one reported infection from the national dataset.
// The day is the statistics date, not the report date.
type CaseRecord struct {
	Day          time.Time
	AgeBracket   string
	Sex          string
	Region       string
	Hospitalized bool
	Deceased     bool
}

// AgeBrackets lists every age bracket the dataset can carry, in table order.
var AgeBrackets = []string{
	"Unknown",
	"0-9",
	"10-19",
	"20-29",
	"30-39",
	"40-49",
	"50-59",
	"60-69",
	"70-79",
	"80-89",
	"90+",
}

// SexLabels are the stacking labels for the sex dimension. Records with an
// unknown sex count toward totals but are dropped from the sex breakdown.
var SexLabels = []string{"Male", "Female"}

// regionPopulations holds the 12 administrative regions with their
// population counts, used for all per-capita math.
var regionPopulations = map[string]int{
	"Zuid-Holland":  3708696,
	"Noord-Holland": 2879527,
	"Noord-Brabant": 2562955,
	"Gelderland":    2085952,
	"Utrecht":       1354834,
	"Overijssel":    1162406,
	"Limburg":       1117201,
	"Friesland":     649957,
	"Groningen":     585866,
	"Drenthe":       493682,
	"Flevoland":     423021,
	"Zeeland":       383488,
}

// RegionPopulation returns the population of a region, or 0 when the name is
// not one of the 12 known regions.
func RegionPopulation(name string) int {
	return regionPopulations[name]
}

// TotalPopulation is the sum of all 12 region populations.
func TotalPopulation() int {
	total := 0
	for _, p := range regionPopulations {
		total += p
	}
	return total
}

// PerCapitaFactor is the nationwide population expressed in units of 100 000
// people. Dividing a raw count by it yields a per-100k rate.
func PerCapitaFactor() float64 {
	return float64(TotalPopulation()) / 100000
}

// RegionsByPopulation returns the region names ordered by descending
// population, the fixed row order for region-stacked charts.
func RegionsByPopulation() []string {
	names := make([]string, 0, len(regionPopulations))
	for name := range regionPopulations {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return regionPopulations[names[i]] > regionPopulations[names[j]]
	})
	return names
}

var nonWordRe = regexp.MustCompile(`\W`)

// NormalizeRegion matches a user-supplied region name against the known
// regions, correcting capitalization and punctuation. Friesland is also
// accepted under its Western Frisian name. Returns the canonical name and
// whether a match was found.
func NormalizeRegion(name string) (string, bool) {
	if _, ok := regionPopulations[name]; ok {
		return name, true
	}
	if strings.EqualFold(name, "Fryslân") {
		return "Friesland", true
	}
	stripped := strings.ToLower(nonWordRe.ReplaceAllString(name, ""))
	for region := range regionPopulations {
		if strings.ToLower(nonWordRe.ReplaceAllString(region, "")) == stripped {
			return region, true
		}
	}
	return "", false
}
