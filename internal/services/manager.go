// Package services provides service orchestration for both front ends.
package services

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/quota-watch-tui/internal/config"
	"github.com/j-veylop/quota-watch-tui/internal/logger"
	"github.com/j-veylop/quota-watch-tui/internal/models"
	"github.com/j-veylop/quota-watch-tui/internal/services/fetch"
	"github.com/j-veylop/quota-watch-tui/internal/services/refresh"
)

type (
	// SnapshotEvent is emitted when a new snapshot is applied.
	SnapshotEvent struct {
		Snapshot *models.Snapshot
		Warnings []models.ParseWarning
	}

	// ErrorEvent is emitted when a refresh attempt fails.
	ErrorEvent struct {
		Err error
	}

	// PhaseEvent is emitted when the scheduler changes phase.
	PhaseEvent struct {
		Phase refresh.Phase
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (SnapshotEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()    {}
func (PhaseEvent) isServiceEvent()    {}

// Manager owns the refresh scheduler and the optional file watcher,
// routes their events to subscribers and raises desktop alerts.
type Manager struct {
	mu          sync.RWMutex
	refresh     *refresh.Service
	watcher     *fetch.Watcher
	notify      bool
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	closeOnce   sync.Once

	// previous is only touched from the routing goroutine.
	previous *models.Snapshot
}

// NewSource selects the snapshot source for the configuration: the
// local file when set, the HTTP endpoint otherwise.
func NewSource(cfg *config.Config) fetch.Source {
	if cfg.File != "" {
		return fetch.NewFile(cfg.File)
	}
	return fetch.NewClient(cfg.URL, cfg.Timeout)
}

// NewManager creates a manager for the configured source. Nothing is
// fetched until Start.
func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		stopChan: make(chan struct{}),
		notify:   cfg.Notify,
	}

	m.refresh = refresh.New(NewSource(cfg), refresh.Config{
		Interval:    cfg.Interval,
		AutoRefresh: true,
	})

	if cfg.File != "" {
		watcher, err := fetch.NewWatcher(cfg.File, m.refresh.Refresh)
		if err != nil {
			// Timer polling still works without the watcher.
			logger.Warn("snapshot file watching disabled", "file", cfg.File, "error", err)
		} else {
			m.watcher = watcher
		}
	}

	return m
}

// Start begins routing events and fetching. Attach subscribers first
// so the initial snapshot is not missed.
func (m *Manager) Start() {
	go m.routeEvents()
	m.refresh.Start()
}

// routeEvents routes events from the scheduler to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.refresh.Events():
			m.handleRefreshEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleRefreshEvent converts and broadcasts scheduler events.
func (m *Manager) handleRefreshEvent(event refresh.Event) {
	switch event.Type {
	case refresh.EventSnapshot:
		m.broadcast(SnapshotEvent{
			Snapshot: event.Snapshot,
			Warnings: event.Warnings,
		})
		if event.Snapshot != nil {
			m.checkNotifications(event.Snapshot)
		}

	case refresh.EventError:
		m.broadcast(ErrorEvent{Err: event.Err})

	case refresh.EventPhase:
		m.broadcast(PhaseEvent{Phase: event.Phase})
	}
}

// checkNotifications raises desktop alerts for downward transitions
// between consecutive snapshots. The first snapshot only seeds the
// baseline, so starting the client never re-alerts existing state.
func (m *Manager) checkNotifications(next *models.Snapshot) {
	prev := m.previous
	m.previous = next

	if !m.notify || prev == nil {
		return
	}

	prevStatus := make(map[string]models.Status, len(prev.Accounts))
	for _, a := range prev.Accounts {
		prevStatus[a.ID] = a.Status
	}

	// Accounts that newly became rate-limited.
	for _, a := range next.Accounts {
		old, seen := prevStatus[a.ID]
		if !seen || old == models.StatusRateLimited {
			continue
		}
		if a.Status == models.StatusRateLimited {
			title := fmt.Sprintf("Account Rate Limited: %s", a.ID)
			_ = beeep.Notify(title, a.StatusLabel(), "")
		}
	}

	// Accounts whose lowest remaining percentage crossed below the
	// critical threshold.
	prevLow := prev.LowestByAccount()
	for id, pct := range next.LowestByAccount() {
		old, seen := prevLow[id]
		if !seen || old < models.CriticalThreshold {
			continue
		}
		if pct < models.CriticalThreshold {
			title := fmt.Sprintf("Critical Quota: %s", id)
			body := fmt.Sprintf("Lowest model quota is down to %.1f%%", pct)
			_ = beeep.Notify(title, body, "")
		}
	}
}

// broadcast sends an event to all subscribers without blocking.
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

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
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

// Refresh requests a manual fetch.
func (m *Manager) Refresh() {
	m.refresh.Refresh()
}

// ToggleAutoRefresh flips the timer gate and returns the new state.
func (m *Manager) ToggleAutoRefresh() bool {
	next := !m.refresh.AutoRefresh()
	m.refresh.SetAutoRefresh(next)
	return next
}

// AutoRefresh reports whether timed fetches are enabled.
func (m *Manager) AutoRefresh() bool {
	return m.refresh.AutoRefresh()
}

// Snapshot returns the most recent good snapshot, or nil.
func (m *Manager) Snapshot() *models.Snapshot {
	return m.refresh.Snapshot()
}

// Warnings returns the parse warnings from the most recent snapshot.
func (m *Manager) Warnings() []models.ParseWarning {
	return m.refresh.Warnings()
}

// LastError returns the failure from the most recent attempt, or nil.
func (m *Manager) LastError() error {
	return m.refresh.LastError()
}

// Phase returns the scheduler phase.
func (m *Manager) Phase() refresh.Phase {
	return m.refresh.Phase()
}

// Interval returns the configured refresh interval.
func (m *Manager) Interval() time.Duration {
	return m.refresh.Interval()
}

// Location identifies the snapshot source for display.
func (m *Manager) Location() string {
	return m.refresh.Location()
}

// Close stops routing, the watcher and the scheduler. It does not wait
// for an in-flight fetch.
func (m *Manager) Close() error {
	var err error

	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.watcher != nil {
			if werr := m.watcher.Close(); werr != nil {
				err = werr
			}
		}

		if m.refresh != nil {
			if rerr := m.refresh.Close(); rerr != nil && err == nil {
				err = rerr
			}
		}
	})

	return err
}
