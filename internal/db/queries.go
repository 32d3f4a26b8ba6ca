package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tbeek/covidnl-tui/internal/models"
)

// DailyRow holds the aggregated counts for a single calendar day.
type DailyRow struct {
	Day    time.Time
	Cases  float64
	Deaths float64
	Hosp   float64
}

// StackedRow holds the case count for one day within one stack category.
type StackedRow struct {
	Day   time.Time
	Label string
	Cases float64
}

// filterClause translates the in-memory case filter into a WHERE clause over
// the cases table. An empty filter yields no clause at all.
func filterClause(filter *models.CaseFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []any

	if !filter.FromDate.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, filter.FromDate.Format(dateFormat))
	}
	if !filter.CutoffDate.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, filter.CutoffDate.Format(dateFormat))
	}
	if filter.Region != "" {
		conds = append(conds, "region = ?")
		args = append(args, filter.Region)
	}
	if filter.AgeBrackets != nil {
		placeholders := strings.Repeat("?, ", len(filter.AgeBrackets))
		conds = append(conds, fmt.Sprintf("age_group IN (%s)", placeholders[:len(placeholders)-2]))
		for _, bracket := range filter.AgeBrackets {
			args = append(args, bracket)
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// DailyTotals returns per-day case, death and hospitalization counts matching
// the filter, oldest day first. Days without matching cases are absent.
func (db *DB) DailyTotals(filter *models.CaseFilter) ([]DailyRow, error) {
	where, args := filterClause(filter)
	query := fmt.Sprintf(`
		SELECT date, SUM(case_count), SUM(death_count), SUM(hosp_count)
		FROM cases
		%s
		GROUP BY date
		ORDER BY date
	`, where)

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []DailyRow
	for rows.Next() {
		var row DailyRow
		var date string
		if err := rows.Scan(&date, &row.Cases, &row.Deaths, &row.Hosp); err != nil {
			return nil, fmt.Errorf("failed to scan daily totals: %w", err)
		}
		row.Day, err = time.Parse(dateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cached date: %w", err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// StackedDaily returns per-day case counts broken down along one stack
// dimension, ordered by day then label.
func (db *DB) StackedDaily(filter *models.CaseFilter, dim string) ([]StackedRow, error) {
	var column string
	switch dim {
	case "region":
		column = "region"
	case "sex":
		column = "sex"
	case "age":
		column = "age_group"
	default:
		return nil, fmt.Errorf("unknown stack dimension %q", dim)
	}

	where, args := filterClause(filter)
	query := fmt.Sprintf(`
		SELECT date, %s, SUM(case_count)
		FROM cases
		%s
		GROUP BY date, %s
		ORDER BY date, %s
	`, column, where, column, column)

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stacked daily counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []StackedRow
	for rows.Next() {
		var row StackedRow
		var date string
		if err := rows.Scan(&date, &row.Label, &row.Cases); err != nil {
			return nil, fmt.Errorf("failed to scan stacked row: %w", err)
		}
		row.Day, err = time.Parse(dateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cached date: %w", err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}
