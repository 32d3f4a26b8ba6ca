package stats

import (
	"errors"
	"fmt"

	"github.com/tbeek/covidnl-tui/internal/models"
)

// ErrInsufficientHistory is returned when the daily series is too short for
// the requested classification windows.
var ErrInsufficientHistory = errors.New("insufficient history")

// Classification thresholds. The case and hospitalization ladders compare
// trailing-week sums; the daily ladder is a peak detector over the trailing
// 14 days.
var (
	caseThresholds      = []float64{35, 100, 250} // weekly cases per 100k
	hospWeekThresholds  = []float64{4, 16, 27}    // weekly hospitalizations per million
	hospDailyThresholds = []float64{12, 40, 80}   // single-day admissions
)

const (
	weekWindow      = 7
	dailyPeakWindow = 14
)

// RiskAssessment is the discrete risk classification for the most recent
// complete week of data.
type RiskAssessment struct {
	Level          int // 1 (lowest) to 4 (highest)
	CasesPer100k   float64
	HospPerMillion float64
}

// ClassifyRisk maps trailing-week case and hospitalization volumes to a risk
// level. The windows end cutoff days before the end of the series, skipping
// the most recent incomplete days. Three sub-scores are taken (weekly cases
// per 100k, weekly hospitalizations per million, and the daily
// hospitalization peak over the trailing 14 days) and the final level is
// their maximum.
//
// The series must cover at least cutoff+14 days; shorter input returns
// ErrInsufficientHistory instead of silently classifying a partial window.
func ClassifyRisk(caseCounts, hospCounts []float64, cutoff int) (RiskAssessment, error) {
	if cutoff < 0 {
		return RiskAssessment{}, fmt.Errorf("negative cutoff %d", cutoff)
	}
	required := cutoff + dailyPeakWindow
	if len(caseCounts) < required || len(hospCounts) < required {
		return RiskAssessment{}, fmt.Errorf("%w: need %d days, have %d cases / %d hospitalizations",
			ErrInsufficientHistory, required, len(caseCounts), len(hospCounts))
	}

	population := models.PerCapitaFactor()

	weekCases := sum(caseCounts[len(caseCounts)-cutoff-weekWindow : len(caseCounts)-cutoff])
	casesPer100k := weekCases / population
	levelByCases := ladderLevel(casesPer100k, caseThresholds)

	weekHosp := sum(hospCounts[len(hospCounts)-cutoff-weekWindow : len(hospCounts)-cutoff])
	hospPerMillion := weekHosp * 10 / population
	levelByHospWeek := ladderLevel(hospPerMillion, hospWeekThresholds)

	peakPeriod := hospCounts[len(hospCounts)-cutoff-dailyPeakWindow : len(hospCounts)-cutoff]
	levelByHospDaily := peakLevel(peakPeriod, hospDailyThresholds)

	level := levelByCases
	if levelByHospWeek > level {
		level = levelByHospWeek
	}
	if levelByHospDaily > level {
		level = levelByHospDaily
	}

	return RiskAssessment{
		Level:          level,
		CasesPer100k:   casesPer100k,
		HospPerMillion: hospPerMillion,
	}, nil
}

// ladderLevel climbs one level per threshold the value reaches.
func ladderLevel(value float64, thresholds []float64) int {
	level := 1
	for _, t := range thresholds {
		if value >= t {
			level++
		}
	}
	return level
}

// peakLevel climbs one level per threshold that any single value reaches.
func peakLevel(values []float64, thresholds []float64) int {
	level := 1
	for _, t := range thresholds {
		for _, v := range values {
			if v >= t {
				level++
				break
			}
		}
	}
	return level
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
