// Package dataset downloads and parses the national case dataset, keeping a
// local file cache that is refreshed only when the published file is newer.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbeek/covidnl-tui/internal/logger"
	"github.com/tbeek/covidnl-tui/internal/models"
)

// ErrEmptyDataset is returned when the dataset file decodes to no usable records.
var ErrEmptyDataset = errors.New("dataset contains no usable records")

// Dataset is one parsed snapshot of the case file. FileDate is the
// publication date taken from the dataset itself; every record in a snapshot
// shares it, and all cutoff computations anchor on it.
type Dataset struct {
	Records  []models.CaseRecord
	FileDate time.Time
}

// rawRecord mirrors one entry of the upstream JSON file.
type rawRecord struct {
	DateStatistics    string `json:"Date_statistics"`
	AgeGroup          string `json:"Agegroup"`
	Sex               string `json:"Sex"`
	Province          string `json:"Province"`
	HospitalAdmission string `json:"Hospital_admission"`
	Deceased          string `json:"Deceased"`
	DateFile          string `json:"Date_file"`
}

const dayLayout = "2006-01-02"

// fileDateLayouts covers the publication date-time formats the upstream file
// has used over time.
var fileDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	dayLayout,
}

// Load fetches the dataset if the cached copy is stale (or force is set) and
// parses it. When the fetch fails but a cached file exists, the cache is used
// with a logged warning.
func Load(ctx context.Context, client *http.Client, url, cachePath string, force bool) (*Dataset, error) {
	downloaded, err := fetch(ctx, client, url, cachePath, force)
	if err != nil {
		if _, statErr := os.Stat(cachePath); statErr != nil {
			return nil, fmt.Errorf("download dataset: %w", err)
		}
		logger.Warn("dataset download failed, using cached file", "error", err, "path", cachePath)
	} else if downloaded {
		logger.Info("dataset downloaded", "path", cachePath)
	} else {
		logger.Info("cached dataset is up to date", "path", cachePath)
	}

	ds, err := LoadFile(cachePath)
	if err != nil && !downloaded {
		// A corrupt cache can be fixed by re-downloading once.
		logger.Warn("cached dataset unreadable, forcing download", "error", err)
		if _, err := fetch(ctx, client, url, cachePath, true); err != nil {
			return nil, fmt.Errorf("re-download dataset: %w", err)
		}
		return LoadFile(cachePath)
	}
	return ds, err
}

// fetch downloads the file to cachePath when the upstream Last-Modified date
// is newer than the cached file (or the cache is missing, or force is set).
// Returns whether a download happened.
func fetch(ctx context.Context, client *http.Client, url, cachePath string, force bool) (bool, error) {
	if client == nil {
		client = http.DefaultClient
	}

	if !force {
		fresh, err := cacheIsFresh(ctx, client, url, cachePath)
		if err != nil {
			return false, err
		}
		if fresh {
			return false, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(cachePath), "dataset-*.json")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return false, fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	return true, os.Rename(tmp.Name(), cachePath)
}

// cacheIsFresh reports whether the cached file is at least as new as the
// upstream Last-Modified date. A missing cache is never fresh; when the
// header is absent or malformed the upstream is assumed to be an hour old.
func cacheIsFresh(ctx context.Context, client *http.Client, url, cachePath string) (bool, error) {
	info, err := os.Stat(cachePath)
	if err != nil {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	lastModified := clock.Now().Add(-time.Hour)
	if header := resp.Header.Get("Last-Modified"); header != "" {
		if parsed, err := http.ParseTime(header); err == nil {
			lastModified = parsed
		}
	}

	return info.ModTime().After(lastModified), nil
}

// LoadFile parses a dataset file from disk. Record decoding is fanned out
// over a worker pool; malformed records are skipped with a warning.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if _, err := dec.Token(); err != nil { // opening '['
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	raws := make(chan rawRecord, 256)
	results := make(chan models.CaseRecord, 256)

	var wg sync.WaitGroup
	var skipped atomic.Int64
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range raws {
				rec, err := parseRecord(raw)
				if err != nil {
					skipped.Add(1)
					continue
				}
				results <- rec
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var fileDate time.Time
	var decodeErr error
	go func() {
		defer close(raws)
		first := true
		for dec.More() {
			var raw rawRecord
			if err := dec.Decode(&raw); err != nil {
				decodeErr = fmt.Errorf("decode dataset: %w", err)
				return
			}
			if first {
				fileDate = parseFileDate(raw.DateFile)
				first = false
			}
			raws <- raw
		}
	}()

	records := make([]models.CaseRecord, 0, 4096)
	for rec := range results {
		records = append(records, rec)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	if n := skipped.Load(); n > 0 {
		logger.Warn("skipped malformed records", "count", n)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	if fileDate.IsZero() {
		if info, err := os.Stat(path); err == nil {
			fileDate = info.ModTime()
		}
	}

	logger.Info("dataset loaded", "records", len(records), "file_date", fileDate.Format(dayLayout))

	return &Dataset{Records: records, FileDate: fileDate}, nil
}

func parseRecord(raw rawRecord) (models.CaseRecord, error) {
	day, err := time.Parse(dayLayout, raw.DateStatistics)
	if err != nil {
		return models.CaseRecord{}, fmt.Errorf("bad statistics date %q: %w", raw.DateStatistics, err)
	}
	return models.CaseRecord{
		Day:          day,
		AgeBracket:   raw.AgeGroup,
		Sex:          raw.Sex,
		Region:       raw.Province,
		Hospitalized: raw.HospitalAdmission == "Yes",
		Deceased:     raw.Deceased == "Yes",
	}, nil
}

func parseFileDate(s string) time.Time {
	for _, layout := range fileDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
