package db

import (
	"testing"
	"time"

	"github.com/tbeek/covidnl-tui/internal/models"
)

func testDay(n int) time.Time {
	return time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func testRecords() []models.CaseRecord {
	return []models.CaseRecord{
		{Day: testDay(0), Region: "Utrecht", AgeBracket: "20-29", Sex: "Male"},
		{Day: testDay(0), Region: "Utrecht", AgeBracket: "20-29", Sex: "Male", Hospitalized: true},
		{Day: testDay(0), Region: "Groningen", AgeBracket: "80-89", Sex: "Female", Deceased: true},
		{Day: testDay(1), Region: "Utrecht", AgeBracket: "50-59", Sex: "Female"},
		{Day: testDay(2), Region: "Groningen", AgeBracket: "20-29", Sex: "Male"},
	}
}

func refreshedTestDB(t *testing.T) *DB {
	t.Helper()
	db := newTestDB(t)
	t.Cleanup(func() { _ = db.Close() })

	if err := db.RefreshCases(testRecords(), testDay(3)); err != nil {
		t.Fatalf("RefreshCases() failed: %v", err)
	}
	return db
}

func TestRefreshCases_AggregatesCounts(t *testing.T) {
	db := refreshedTestDB(t)

	rows, err := db.DailyTotals(nil)
	if err != nil {
		t.Fatalf("DailyTotals() failed: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected 3 days, got %d", len(rows))
	}

	first := rows[0]
	if !first.Day.Equal(testDay(0)) {
		t.Errorf("Expected first day %v, got %v", testDay(0), first.Day)
	}
	if first.Cases != 3 || first.Deaths != 1 || first.Hosp != 1 {
		t.Errorf("Expected day 0 counts 3/1/1, got %v/%v/%v", first.Cases, first.Deaths, first.Hosp)
	}
}

func TestRefreshCases_ReplacesPreviousData(t *testing.T) {
	db := refreshedTestDB(t)

	// A second refresh with a single record must wipe the old rows.
	records := []models.CaseRecord{
		{Day: testDay(5), Region: "Drenthe", AgeBracket: "0-9", Sex: "Male"},
	}
	if err := db.RefreshCases(records, testDay(6)); err != nil {
		t.Fatalf("RefreshCases() failed: %v", err)
	}

	rows, err := db.DailyTotals(nil)
	if err != nil {
		t.Fatalf("DailyTotals() failed: %v", err)
	}
	if len(rows) != 1 || !rows[0].Day.Equal(testDay(5)) {
		t.Errorf("Expected only the refreshed day, got %v", rows)
	}
}

func TestDailyTotals_WithFilter(t *testing.T) {
	db := refreshedTestDB(t)

	filter, err := models.NewCaseFilter("Utrecht", "", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("NewCaseFilter() failed: %v", err)
	}

	rows, err := db.DailyTotals(filter)
	if err != nil {
		t.Fatalf("DailyTotals() failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected 2 Utrecht days, got %d", len(rows))
	}
	if rows[0].Cases != 2 {
		t.Errorf("Expected 2 Utrecht cases on day 0, got %v", rows[0].Cases)
	}
}

func TestDailyTotals_DateBoundsInclusive(t *testing.T) {
	db := refreshedTestDB(t)

	filter, err := models.NewCaseFilter("", "", testDay(1), testDay(2))
	if err != nil {
		t.Fatalf("NewCaseFilter() failed: %v", err)
	}

	rows, err := db.DailyTotals(filter)
	if err != nil {
		t.Fatalf("DailyTotals() failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected 2 days inside the window, got %d", len(rows))
	}
	if !rows[0].Day.Equal(testDay(1)) || !rows[1].Day.Equal(testDay(2)) {
		t.Errorf("Window days wrong: %v, %v", rows[0].Day, rows[1].Day)
	}
}

func TestDailyTotals_AgeFilter(t *testing.T) {
	db := refreshedTestDB(t)

	filter, err := models.NewCaseFilter("", "20-29", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("NewCaseFilter() failed: %v", err)
	}

	rows, err := db.DailyTotals(filter)
	if err != nil {
		t.Fatalf("DailyTotals() failed: %v", err)
	}

	var total float64
	for _, row := range rows {
		total += row.Cases
	}
	if total != 3 {
		t.Errorf("Expected 3 cases in bracket 20-29, got %v", total)
	}
}

func TestStackedDaily(t *testing.T) {
	db := refreshedTestDB(t)

	rows, err := db.StackedDaily(nil, "region")
	if err != nil {
		t.Fatalf("StackedDaily() failed: %v", err)
	}

	byKey := make(map[string]float64)
	for _, row := range rows {
		byKey[row.Day.Format("2006-01-02")+"/"+row.Label] = row.Cases
	}

	if byKey["2020-10-01/Utrecht"] != 2 {
		t.Errorf("Expected 2 Utrecht cases on day 0, got %v", byKey["2020-10-01/Utrecht"])
	}
	if byKey["2020-10-01/Groningen"] != 1 {
		t.Errorf("Expected 1 Groningen case on day 0, got %v", byKey["2020-10-01/Groningen"])
	}
}

func TestStackedDaily_UnknownDimension(t *testing.T) {
	db := refreshedTestDB(t)

	if _, err := db.StackedDaily(nil, "province"); err == nil {
		t.Error("Expected error for unknown stack dimension")
	}
}

func TestFileDate(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	// Empty cache reports the zero time.
	date, err := db.FileDate()
	if err != nil {
		t.Fatalf("FileDate() failed: %v", err)
	}
	if !date.IsZero() {
		t.Errorf("Expected zero time for empty cache, got %v", date)
	}

	if err := db.RefreshCases(testRecords(), testDay(3)); err != nil {
		t.Fatalf("RefreshCases() failed: %v", err)
	}

	date, err = db.FileDate()
	if err != nil {
		t.Fatalf("FileDate() failed: %v", err)
	}
	if !date.Equal(testDay(3)) {
		t.Errorf("Expected file date %v, got %v", testDay(3), date)
	}
}
