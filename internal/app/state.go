// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/quota-watch-tui/internal/models"
	"github.com/j-veylop/quota-watch-tui/internal/services/refresh"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// trendCapacity bounds the in-memory trend ring. At the default
// five-second interval this covers roughly the last twenty minutes.
const trendCapacity = 240

// State is the snapshot cell shared by all tabs. Only the root model's
// Update mutates it; tabs read through the accessor methods.
type State struct {
	mu sync.RWMutex

	snapshot    *models.Snapshot
	warnings    []models.ParseWarning
	lastErr     error
	phase       refresh.Phase
	autoRefresh bool

	initialLoading bool
	lastUpdated    time.Time

	trend []models.TrendSample

	notifications   []Notification
	notificationSeq int
}

// NewState returns an empty state waiting for the first fetch.
func NewState() *State {
	return &State{
		phase:          refresh.PhaseIdle,
		autoRefresh:    true,
		initialLoading: true,
		notifications:  make([]Notification, 0),
	}
}

// SetSnapshot swaps in a freshly applied snapshot together with its
// parse warnings, clears any previous error and records a trend sample.
func (s *State) SetSnapshot(snapshot *models.Snapshot, warnings []models.ParseWarning) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = snapshot
	s.warnings = warnings
	s.lastErr = nil
	s.initialLoading = false
	s.lastUpdated = time.Now()

	if sample, ok := snapshot.Sample(); ok {
		s.trend = append(s.trend, sample)
		if len(s.trend) > trendCapacity {
			s.trend = s.trend[len(s.trend)-trendCapacity:]
		}
	}
}

// Snapshot returns the most recently applied snapshot, or nil before
// the first successful fetch.
func (s *State) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Warnings returns the parse warnings of the current snapshot.
func (s *State) Warnings() []models.ParseWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warnings
}

// SetError records a failed refresh attempt. The previous snapshot and
// its warnings stay in place.
func (s *State) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = err
	s.initialLoading = false
}

// LastError returns the failure of the most recent attempt, or nil.
func (s *State) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// SetPhase records the scheduler phase.
func (s *State) SetPhase(phase refresh.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

// Phase returns the scheduler phase as last reported.
func (s *State) Phase() refresh.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// SetAutoRefresh records whether timed fetches are enabled.
func (s *State) SetAutoRefresh(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRefresh = enabled
}

// AutoRefresh reports whether timed fetches are enabled.
func (s *State) AutoRefresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoRefresh
}

// IsInitialLoading returns true until the first fetch settles, whether
// it succeeded or failed.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialLoading
}

// TrendSamples returns a copy of the recorded trend samples, oldest
// first.
func (s *State) TrendSamples() []models.TrendSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := make([]models.TrendSample, len(s.trend))
	copy(samples, s.trend)
	return samples
}

// GetLastUpdated returns the last time a snapshot was applied.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// TimeSinceUpdate returns the duration since the last applied snapshot.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.lastUpdated)
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Clear expired inline when reading
	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  0,
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}
