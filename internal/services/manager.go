// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/tbeek/covidnl-tui/internal/config"
	"github.com/tbeek/covidnl-tui/internal/db"
	"github.com/tbeek/covidnl-tui/internal/dataset"
	"github.com/tbeek/covidnl-tui/internal/logger"
	"github.com/tbeek/covidnl-tui/internal/models"
	"github.com/tbeek/covidnl-tui/internal/stats"
)

type (
	// RefreshStartedEvent is emitted when a dataset refresh begins.
	RefreshStartedEvent struct {
		Forced bool
	}

	// SnapshotEvent is emitted when a new statistics snapshot is available.
	SnapshotEvent struct {
		Snapshot *Snapshot
	}

	// ErrorEvent is emitted when a refresh stage fails.
	ErrorEvent struct {
		Stage string
		Error error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (RefreshStartedEvent) isServiceEvent() {}
func (SnapshotEvent) isServiceEvent()       {}
func (ErrorEvent) isServiceEvent()          {}

// Snapshot is a fully computed view of the dataset under the current
// configuration. It is immutable once published.
type Snapshot struct {
	Daily        stats.DailyCounts
	CumCases     []float64
	CumDeaths    []float64
	CumHosp      []float64
	TrendCases   []float64
	TrendDeaths  []float64
	TrendHosp    []float64
	RRates       []float64
	ReliableFrom int

	Risk    stats.RiskAssessment
	RiskErr error

	StackLabels []string
	StackRows   [][]float64

	FileDate    time.Time
	RecordCount int
	Refreshed   time.Time
}

// Manager loads the dataset and turns it into snapshots for the TUI.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	database    *db.DB
	snapshot    *Snapshot
	subscribers []chan<- ServiceEvent

	riskMu        sync.Mutex
	lastRiskLevel int

	refreshing  chan struct{} // 1-slot semaphore
	stopWatch   chan struct{}
	watchOnce   sync.Once
	closeOnce   sync.Once
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:        cfg,
		refreshing: make(chan struct{}, 1),
		stopWatch:  make(chan struct{}),
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	m.database = database

	return m, nil
}

// Refresh downloads the dataset if needed and publishes a new snapshot.
// Concurrent calls collapse into one refresh.
func (m *Manager) Refresh(ctx context.Context, force bool) {
	select {
	case m.refreshing <- struct{}{}:
	default:
		return
	}
	defer func() { <-m.refreshing }()

	m.broadcast(RefreshStartedEvent{Forced: force})

	ds, err := dataset.Load(ctx, nil, m.cfg.DatasetURL, m.cfg.CachePath, force || m.cfg.ForceDownload)
	if err != nil {
		m.broadcast(ErrorEvent{Stage: "download", Error: err})
		return
	}

	// The sqlite cache is best effort. A failed refresh only loses the
	// ability to query offline, so log and continue.
	if err := m.database.RefreshCases(ds.Records, ds.FileDate); err != nil {
		logger.Warn("failed to refresh case cache", "error", err)
	}

	snapshot, err := m.compute(ds)
	if err != nil {
		m.broadcast(ErrorEvent{Stage: "compute", Error: err})
		return
	}

	m.mu.Lock()
	m.snapshot = snapshot
	m.mu.Unlock()

	m.notifyRisk(snapshot)
	m.broadcast(SnapshotEvent{Snapshot: snapshot})
}

// compute derives every chart series from the parsed dataset.
func (m *Manager) compute(ds *dataset.Dataset) (*Snapshot, error) {
	filter, err := m.cfg.Filter(ds.FileDate)
	if err != nil {
		return nil, err
	}

	daily := stats.Aggregate(ds.Records, filter, m.cfg.PerCapita)

	// Risk classification always looks at the nationwide raw counts, so it
	// ignores the view filters and per capita scaling.
	nationwide := stats.Aggregate(ds.Records, nil, false)

	snapshot, err := m.deriveSnapshot(daily, nationwide, ds.FileDate, len(ds.Records))
	if err != nil {
		return nil, err
	}

	if m.cfg.StackBy != "" {
		snapshot.StackLabels, snapshot.StackRows = stats.SeparateStacks(
			ds.Records, daily.Days, stats.StackDimension(m.cfg.StackBy), filter, m.cfg.PerCapita)
	}

	return snapshot, nil
}

// deriveSnapshot computes the series shared by the dataset and cache paths:
// cumulative totals, smoothed trends, the reproduction-rate estimate, and
// the nationwide risk level.
func (m *Manager) deriveSnapshot(daily, nationwide stats.DailyCounts, fileDate time.Time, recordCount int) (*Snapshot, error) {
	snapshot := &Snapshot{
		Daily:       daily,
		FileDate:    fileDate,
		RecordCount: recordCount,
		Refreshed:   time.Now(),
	}

	snapshot.CumCases, snapshot.CumDeaths, snapshot.CumHosp = stats.CumulativeCounts(daily)
	snapshot.TrendCases, snapshot.TrendDeaths, snapshot.TrendHosp =
		stats.SmoothedTrends(daily, m.cfg.SmoothingWindow)
	snapshot.RRates, snapshot.ReliableFrom = stats.EstimateR(daily.Cases, m.cfg.PerCapita)

	snapshot.Risk, snapshot.RiskErr = stats.ClassifyRisk(
		nationwide.Cases, nationwide.Hospitalizations, m.cfg.CutoffDays)
	if snapshot.RiskErr != nil && !errors.Is(snapshot.RiskErr, stats.ErrInsufficientHistory) {
		return nil, snapshot.RiskErr
	}

	return snapshot, nil
}

// LoadCached rebuilds a snapshot from the sqlite aggregate cache so the UI
// has something to show before the first download completes. Reports false
// when the cache has never been filled.
func (m *Manager) LoadCached() (bool, error) {
	fileDate, err := m.database.FileDate()
	if err != nil {
		return false, err
	}
	if fileDate.IsZero() {
		return false, nil
	}

	filter, err := m.cfg.Filter(fileDate)
	if err != nil {
		return false, err
	}

	daily, recordCount, err := m.cachedCounts(filter, m.cfg.PerCapita)
	if err != nil {
		return false, err
	}
	nationwide, _, err := m.cachedCounts(nil, false)
	if err != nil {
		return false, err
	}

	snapshot, err := m.deriveSnapshot(daily, nationwide, fileDate, recordCount)
	if err != nil {
		return false, err
	}

	if m.cfg.StackBy != "" {
		rows, err := m.database.StackedDaily(filter, m.cfg.StackBy)
		if err != nil {
			return false, err
		}
		cells := make([]stats.StackCell, len(rows))
		for i, row := range rows {
			cells[i] = stats.StackCell{Day: row.Day, Label: row.Label, Count: row.Cases}
		}
		snapshot.StackLabels, snapshot.StackRows = stats.StacksFromCells(
			cells, daily.Days, stats.StackDimension(m.cfg.StackBy), filter, m.cfg.PerCapita)
	}

	m.mu.Lock()
	m.snapshot = snapshot
	m.mu.Unlock()

	m.broadcast(SnapshotEvent{Snapshot: snapshot})
	logger.Info("restored statistics from the aggregate cache",
		"days", len(daily.Days), "file_date", fileDate.Format("2006-01-02"))
	return true, nil
}

// cachedCounts reads per-day totals from the sqlite cache into the shape
// Aggregate produces from raw records.
func (m *Manager) cachedCounts(filter *models.CaseFilter, perCapita bool) (stats.DailyCounts, int, error) {
	rows, err := m.database.DailyTotals(filter)
	if err != nil {
		return stats.DailyCounts{}, 0, err
	}

	casesByDay := make(map[time.Time]float64, len(rows))
	deathsByDay := make(map[time.Time]float64, len(rows))
	hospByDay := make(map[time.Time]float64, len(rows))
	recordCount := 0
	for _, row := range rows {
		casesByDay[row.Day] = row.Cases
		deathsByDay[row.Day] = row.Deaths
		hospByDay[row.Day] = row.Hosp
		recordCount += int(row.Cases)
	}

	return stats.FromDayTotals(casesByDay, deathsByDay, hospByDay, perCapita), recordCount, nil
}

// notifyRisk sends a desktop notification when the nationwide risk level
// reaches serious or worse, or when it rises.
func (m *Manager) notifyRisk(snapshot *Snapshot) {
	if snapshot.RiskErr != nil {
		return
	}

	m.riskMu.Lock()
	previous := m.lastRiskLevel
	m.lastRiskLevel = snapshot.Risk.Level
	m.riskMu.Unlock()

	level := snapshot.Risk.Level
	if previous == 0 || level <= previous {
		return
	}
	if level < 3 {
		return
	}

	title := fmt.Sprintf("COVID risk level %d", level)
	body := fmt.Sprintf("%.1f cases per 100k, %.1f hospitalizations per million",
		snapshot.Risk.CasesPer100k, snapshot.Risk.HospPerMillion)
	if err := beeep.Notify(title, body, ""); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// Snapshot returns the most recent snapshot, or nil before the first refresh.
func (m *Manager) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Config returns the active configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() { close(m.stopWatch) })

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	if m.database != nil {
		return m.database.Close()
	}
	return nil
}
