package services

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tbeek/covidnl-tui/internal/dataset"
	"github.com/tbeek/covidnl-tui/internal/logger"
)

// watchDebounce absorbs the burst of write events a single download causes.
const watchDebounce = 500 * time.Millisecond

// Watch reloads the snapshot whenever the cached dataset file changes on
// disk, for example when another covidnl process refreshed it. It returns
// once the watcher is installed; watching stops when the manager closes.
func (m *Manager) Watch() error {
	var err error
	m.watchOnce.Do(func() {
		err = m.startWatch()
	})
	return err
}

func (m *Manager) startWatch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory. The download replaces the file via rename, which
	// would silently detach a watch on the file itself.
	dir := filepath.Dir(m.cfg.CachePath)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	go m.watchLoop(watcher)
	return nil
}

func (m *Manager) watchLoop(watcher *fsnotify.Watcher) {
	defer func() { _ = watcher.Close() }()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != m.cfg.CachePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			m.reloadFromCache()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("dataset watcher error", "error", err)

		case <-m.stopWatch:
			return
		}
	}
}

// reloadFromCache recomputes the snapshot from the on-disk dataset without
// fetching. A refresh in flight means the change was our own download.
func (m *Manager) reloadFromCache() {
	select {
	case m.refreshing <- struct{}{}:
	default:
		return
	}
	defer func() { <-m.refreshing }()

	ds, err := dataset.LoadFile(m.cfg.CachePath)
	if err != nil {
		logger.Warn("failed to reload changed dataset", "error", err)
		return
	}

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
