package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tbeek/covidnl-tui/internal/models"
)

const dateFormat = "2006-01-02"

type caseKey struct {
	date   string
	region string
	age    string
	sex    string
}

type caseCounts struct {
	cases  int
	deaths int
	hosp   int
}

// RefreshCases rebuilds the cases table from the parsed dataset. The table is
// replaced wholesale inside a single transaction so readers never observe a
// partially loaded dataset.
func (db *DB) RefreshCases(records []models.CaseRecord, fileDate time.Time) error {
	grouped := make(map[caseKey]caseCounts)
	for _, rec := range records {
		key := caseKey{
			date:   rec.Day.Format(dateFormat),
			region: rec.Region,
			age:    rec.AgeBracket,
			sex:    rec.Sex,
		}
		counts := grouped[key]
		counts.cases++
		if rec.Deceased {
			counts.deaths++
		}
		if rec.Hospitalized {
			counts.hosp++
		}
		grouped[key] = counts
	}

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin refresh transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cases"); err != nil {
		return fmt.Errorf("failed to clear cases table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cases (date, region, age_group, sex, case_count, death_count, hosp_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for key, counts := range grouped {
		_, err := stmt.ExecContext(ctx, key.date, key.region, key.age, key.sex,
			counts.cases, counts.deaths, counts.hosp)
		if err != nil {
			return fmt.Errorf("failed to insert case row: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO dataset_meta (key, value) VALUES ('file_date', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, fileDate.Format(dateFormat)); err != nil {
		return fmt.Errorf("failed to record file date: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit refresh: %w", err)
	}

	return nil
}

// FileDate returns the publication date of the cached dataset, or the zero
// time when the cache has never been filled.
func (db *DB) FileDate() (time.Time, error) {
	var value string
	err := db.QueryRowContext(context.Background(),
		"SELECT value FROM dataset_meta WHERE key = 'file_date'").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read file date: %w", err)
	}

	date, err := time.Parse(dateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse cached file date: %w", err)
	}
	return date, nil
}
