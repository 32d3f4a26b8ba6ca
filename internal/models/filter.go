package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidAgeFilter is returned when an age filter string cannot be parsed
// or describes an empty range. It is a configuration error: callers should
// print AgeFilterSyntax and abort rather than continue with a partial filter.
var ErrInvalidAgeFilter = errors.New("invalid age filter")

// AgeFilterSyntax explains the accepted age filter format to the user.
const AgeFilterSyntax = `Valid filter: <age-from>[-<age-to>] where:
	age-from: an integer >= 0 or "90+",
	age-to: an integer >= 0 or "90+" and >= age-from
Note: the data contains age in ranges of 10, so age-from is rounded down to
the bracket containing it and age-to is rounded up to the end of its bracket.`

// ageRange maps a bracket label to the inclusive ages it covers.
type ageRange struct {
	label    string
	from, to int
}

// ageRanges excludes "Unknown"; a numeric filter can never select it.
var ageRanges = []ageRange{
	{"0-9", 0, 9},
	{"10-19", 10, 19},
	{"20-29", 20, 29},
	{"30-39", 30, 39},
	{"40-49", 40, 49},
	{"50-59", 50, 59},
	{"60-69", 60, 69},
	{"70-79", 70, 79},
	{"80-89", 80, 89},
	{"90+", 90, 999},
}

// CaseFilter is a composable predicate over case records. A zero-criteria
// filter accepts every record.
type CaseFilter struct {
	Region      string    // empty means any region
	AgeBrackets []string  // nil means any age
	FromDate    time.Time // zero means no lower bound; records on the date pass
	CutoffDate  time.Time // zero means no upper bound; records on the date pass

	preds []func(CaseRecord) bool
}

// NewCaseFilter builds a filter from the configured criteria. The region must
// already be normalized; ageFilter is the raw "A" or "A-B" string, empty for
// none. Construction fails on an invalid age filter.
func NewCaseFilter(region, ageFilter string, fromDate, cutoffDate time.Time) (*CaseFilter, error) {
	f := &CaseFilter{
		Region:     region,
		FromDate:   fromDate,
		CutoffDate: cutoffDate,
	}

	if ageFilter != "" {
		brackets, err := ResolveAgeFilter(ageFilter)
		if err != nil {
			return nil, err
		}
		f.AgeBrackets = brackets
	}

	if !f.CutoffDate.IsZero() {
		cutoff := f.CutoffDate
		f.preds = append(f.preds, func(c CaseRecord) bool { return !c.Day.After(cutoff) })
	}
	if !f.FromDate.IsZero() {
		from := f.FromDate
		f.preds = append(f.preds, func(c CaseRecord) bool { return !c.Day.Before(from) })
	}
	if f.Region != "" {
		region := f.Region
		f.preds = append(f.preds, func(c CaseRecord) bool { return c.Region == region })
	}
	if f.AgeBrackets != nil {
		brackets := f.AgeBrackets
		f.preds = append(f.preds, func(c CaseRecord) bool {
			for _, b := range brackets {
				if c.AgeBracket == b {
					return true
				}
			}
			return false
		})
	}

	return f, nil
}

// Match reports whether the record passes every configured criterion. A nil
// filter has no criteria and accepts every record.
func (f *CaseFilter) Match(c CaseRecord) bool {
	if f == nil {
		return true
	}
	for _, pred := range f.preds {
		if !pred(c) {
			return false
		}
	}
	return true
}

// ResolveAgeFilter parses an age filter string and resolves it to the bracket
// labels it covers. The start age rounds down to the bracket containing it
// and the end age rounds up; a single age selects one bracket, and a
// trailing "+" extends the range through the oldest bracket. Ages above 90
// saturate to 90.
func ResolveAgeFilter(s string) ([]string, error) {
	from, to, hasTo, err := parseAgeFilter(s)
	if err != nil {
		return nil, err
	}
	return resolveAgeRange(from, to, hasTo)
}

func parseAgeFilter(s string) (from, to int, hasTo bool, err error) {
	if open := strings.TrimSuffix(s, "+"); open != s && !strings.Contains(open, "-") {
		from, err = parseAge(open)
		if err != nil {
			return 0, 0, false, fmt.Errorf("%w: %q", ErrInvalidAgeFilter, s)
		}
		return from, 90, true, nil
	}

	parts := strings.Split(s, "-")
	if len(parts) > 2 {
		return 0, 0, false, fmt.Errorf("%w: %q", ErrInvalidAgeFilter, s)
	}

	from, err = parseAge(parts[0])
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: %q", ErrInvalidAgeFilter, s)
	}

	if len(parts) == 2 {
		to, err = parseAge(parts[1])
		if err != nil {
			return 0, 0, false, fmt.Errorf("%w: %q", ErrInvalidAgeFilter, s)
		}
		if to < from {
			return 0, 0, false, fmt.Errorf("%w: end of range %q before start", ErrInvalidAgeFilter, s)
		}
		hasTo = true
	}

	return from, to, hasTo, nil
}

// parseAge accepts a non-negative integer or the literal "90+", saturating
// anything above 90 to 90.
func parseAge(s string) (int, error) {
	if s == "90+" {
		return 90, nil
	}
	age, err := strconv.Atoi(s)
	if err != nil || age < 0 {
		return 0, fmt.Errorf("not an age: %q", s)
	}
	if age > 90 {
		age = 90
	}
	return age, nil
}

func resolveAgeRange(from, to int, hasTo bool) ([]string, error) {
	firstIdx, lastIdx := -1, -1
	for i, r := range ageRanges {
		if r.from <= from && from <= r.to {
			firstIdx = i
		}
		if hasTo && r.from <= to && to <= r.to {
			lastIdx = i
		}
	}
	if !hasTo {
		lastIdx = firstIdx
	}
	if firstIdx == -1 || lastIdx == -1 || lastIdx < firstIdx {
		return nil, fmt.Errorf("%w: range %d-%d matches no brackets", ErrInvalidAgeFilter, from, to)
	}

	labels := make([]string, 0, lastIdx-firstIdx+1)
	for _, r := range ageRanges[firstIdx : lastIdx+1] {
		labels = append(labels, r.label)
	}
	return labels, nil
}
