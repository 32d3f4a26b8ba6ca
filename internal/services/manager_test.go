package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tbeek/covidnl-tui/internal/config"
)

// sampleDataset renders a JSON dataset with one case per province per day
// over the given number of days ending at fileDate.
func sampleDataset(days int, fileDate time.Time) string {
	regions := []string{"Utrecht", "Groningen", "Zuid-Holland"}

	var sb strings.Builder
	sb.WriteString("[")
	first := true
	for d := 0; d < days; d++ {
		day := fileDate.AddDate(0, 0, d-days+1)
		for _, region := range regions {
			if !first {
				sb.WriteString(",")
			}
			first = false
			fmt.Fprintf(&sb,
				`{"Date_file":%q,"Date_statistics":%q,"Agegroup":"30-39","Sex":"Male","Province":%q,"Hospital_admission":"No","Deceased":"No"}`,
				fileDate.Format("2006-01-02 15:04:05"), day.Format("2006-01-02"), region)
		}
	}
	sb.WriteString("]")
	return sb.String()
}

func testManager(t *testing.T, datasetURL string) *Manager {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := &config.Config{
		DatasetURL:      datasetURL,
		CachePath:       filepath.Join(tmpDir, "covid-latest.json"),
		DatabasePath:    filepath.Join(tmpDir, "covidnl.db"),
		SmoothingWindow: 3,
		CutoffDays:      0,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config invalid: %v", err)
	}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestRefresh_PublishesSnapshot(t *testing.T) {
	fileDate := time.Date(2020, 10, 21, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleDataset(21, fileDate)))
	}))
	defer srv.Close()

	m := testManager(t, srv.URL)

	ch, _ := m.Subscribe()
	m.Refresh(context.Background(), false)

	var snapshot *Snapshot
	deadline := time.After(2 * time.Second)
	for snapshot == nil {
		select {
		case event := <-ch:
			switch ev := event.(type) {
			case SnapshotEvent:
				snapshot = ev.Snapshot
			case ErrorEvent:
				t.Fatalf("Unexpected error event from %s: %v", ev.Stage, ev.Error)
			}
		case <-deadline:
			t.Fatal("Timed out waiting for snapshot event")
		}
	}

	if len(snapshot.Daily.Days) != 21 {
		t.Errorf("Expected 21 days, got %d", len(snapshot.Daily.Days))
	}
	if snapshot.Daily.Cases[0] != 3 {
		t.Errorf("Expected 3 cases on the first day, got %v", snapshot.Daily.Cases[0])
	}
	if !snapshot.FileDate.Equal(fileDate) {
		t.Errorf("FileDate = %v, want %v", snapshot.FileDate, fileDate)
	}
	if snapshot.RiskErr != nil {
		t.Errorf("Unexpected risk error: %v", snapshot.RiskErr)
	}
	if snapshot.Risk.Level < 1 || snapshot.Risk.Level > 4 {
		t.Errorf("Risk level %d out of range", snapshot.Risk.Level)
	}
	if len(snapshot.RRates) != 21 {
		t.Errorf("Expected 21 reproduction estimates, got %d", len(snapshot.RRates))
	}

	if m.Snapshot() != snapshot {
		t.Error("Snapshot() should return the published snapshot")
	}
}

func TestRefresh_StackedSnapshot(t *testing.T) {
	fileDate := time.Date(2020, 10, 21, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleDataset(21, fileDate)))
	}))
	defer srv.Close()

	m := testManager(t, srv.URL)
	m.cfg.StackBy = "region"

	m.Refresh(context.Background(), false)

	snapshot := m.Snapshot()
	if snapshot == nil {
		t.Fatal("Expected a snapshot after refresh")
	}
	if len(snapshot.StackLabels) == 0 {
		t.Fatal("Expected stack labels for region stacking")
	}
	if len(snapshot.StackRows) != len(snapshot.StackLabels) {
		t.Errorf("Rows/labels mismatch: %d vs %d", len(snapshot.StackRows), len(snapshot.StackLabels))
	}
}

func TestRefresh_DownloadErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := testManager(t, srv.URL)

	ch, _ := m.Subscribe()
	m.Refresh(context.Background(), true)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-ch:
			if ev, ok := event.(ErrorEvent); ok {
				if ev.Stage != "download" {
					t.Errorf("Error stage = %q, want download", ev.Stage)
				}
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for error event")
		}
	}
}

func TestLoadCached_RestoresSnapshot(t *testing.T) {
	fileDate := time.Date(2020, 10, 21, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleDataset(21, fileDate)))
	}))

	tmpDir := t.TempDir()
	cfg := &config.Config{
		DatasetURL:      srv.URL,
		CachePath:       filepath.Join(tmpDir, "covid-latest.json"),
		DatabasePath:    filepath.Join(tmpDir, "covidnl.db"),
		SmoothingWindow: 3,
		StackBy:         "region",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config invalid: %v", err)
	}

	seed, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	seed.Refresh(context.Background(), false)
	want := seed.Snapshot()
	if want == nil {
		t.Fatal("Expected a snapshot from the seeding refresh")
	}
	if err := seed.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	srv.Close()

	// A fresh manager with the dataset unreachable must serve the sqlite
	// cache instead.
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })

	ok, err := m.LoadCached()
	if err != nil {
		t.Fatalf("LoadCached() failed: %v", err)
	}
	if !ok {
		t.Fatal("LoadCached() reported an empty cache")
	}

	snap := m.Snapshot()
	if snap == nil {
		t.Fatal("Snapshot() should return the restored snapshot")
	}
	if !reflect.DeepEqual(snap.Daily, want.Daily) {
		t.Errorf("restored daily counts diverge: %v vs %v", snap.Daily, want.Daily)
	}
	if !snap.FileDate.Equal(want.FileDate) {
		t.Errorf("FileDate = %v, want %v", snap.FileDate, want.FileDate)
	}
	if snap.RecordCount != want.RecordCount {
		t.Errorf("RecordCount = %d, want %d", snap.RecordCount, want.RecordCount)
	}
	if snap.Risk.Level != want.Risk.Level {
		t.Errorf("Risk level = %d, want %d", snap.Risk.Level, want.Risk.Level)
	}
	if !reflect.DeepEqual(snap.RRates, want.RRates) {
		t.Error("restored reproduction rates diverge from the refresh path")
	}
	if !reflect.DeepEqual(snap.StackLabels, want.StackLabels) ||
		!reflect.DeepEqual(snap.StackRows, want.StackRows) {
		t.Error("restored stacked breakdown diverges from the refresh path")
	}
}

func TestLoadCached_EmptyCache(t *testing.T) {
	m := testManager(t, "http://unused.invalid")

	ok, err := m.LoadCached()
	if err != nil {
		t.Fatalf("LoadCached() failed: %v", err)
	}
	if ok {
		t.Error("LoadCached() should report false for an empty cache")
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	m := testManager(t, "http://unused.invalid")

	ch, cmd := m.Subscribe()
	if cmd == nil {
		t.Fatal("Subscribe() should return a wait command")
	}

	m.Unsubscribe(ch)

	// The channel must be closed after unsubscribing.
	select {
	case _, open := <-ch:
		if open {
			t.Error("Expected closed channel after Unsubscribe")
		}
	default:
		t.Error("Expected closed channel, got blocking read")
	}
}
