package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDateFilter is returned for date filters that are neither an ISO
// date nor a relative window like "3w".
var ErrInvalidDateFilter = errors.New(
	"date filter must be an ISO date (2020-10-01) or a relative window like 10d, 3w, 6m or 1y")

var relativeDateRe = regexp.MustCompile(`^(\d+)([dwmy])$`)

// ParseDateFilter resolves a date filter string to the first day that should
// be included. Relative windows count back from anchor.
func ParseDateFilter(s string, anchor time.Time) (time.Time, error) {
	if date, err := time.Parse("2006-01-02", s); err == nil {
		return date, nil
	}

	match := relativeDateRe.FindStringSubmatch(s)
	if match == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFilter, s)
	}

	n, err := strconv.Atoi(match[1])
	if err != nil || n == 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFilter, s)
	}

	anchor = anchor.Truncate(24 * time.Hour)
	switch match[2] {
	case "d":
		return anchor.AddDate(0, 0, -n), nil
	case "w":
		return anchor.AddDate(0, 0, -7*n), nil
	case "m":
		return monthsBack(anchor, n), nil
	default: // y
		return monthsBack(anchor, 12*n), nil
	}
}

// monthsBack steps n calendar months back, clamping the day of month so that
// stepping back from e.g. March 31 lands on the last day of the shorter month
// instead of spilling into the next one.
func monthsBack(t time.Time, n int) time.Time {
	year, month := t.Year(), int(t.Month())-n
	for month < 1 {
		month += 12
		year--
	}

	day := t.Day()
	if last := daysInMonth(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
