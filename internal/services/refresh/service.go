// Package refresh schedules snapshot fetches and owns the current
// snapshot. All fetching happens on one goroutine, so at most one
// request is in flight and snapshot swaps have a single writer.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/j-veylop/quota-watch-tui/internal/logger"
	"github.com/j-veylop/quota-watch-tui/internal/models"
	"github.com/j-veylop/quota-watch-tui/internal/services/fetch"
)

// Phase is the scheduler state, shown in the status line.
type Phase int

const (
	// PhaseIdle: waiting for the next tick or manual trigger.
	PhaseIdle Phase = iota
	// PhaseFetching: a request is in flight.
	PhaseFetching
	// PhaseApplying: a response arrived and is being decoded.
	PhaseApplying
	// PhaseError: the last attempt failed. The previous snapshot, if
	// any, is still served.
	PhaseError
)

// String returns a short name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseApplying:
		return "applying"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// EventType defines the type of refresh event.
type EventType int

const (
	// EventSnapshot indicates a new snapshot was applied.
	EventSnapshot EventType = iota
	// EventError indicates the last fetch attempt failed.
	EventError
	// EventPhase indicates the scheduler changed phase.
	EventPhase
)

// Event represents a refresh service event.
type Event struct {
	Type     EventType
	Snapshot *models.Snapshot
	Warnings []models.ParseWarning
	Err      error
	Phase    Phase
}

// Config holds configuration for the refresh service.
type Config struct {
	// Interval between timed fetches. Zero disables the timer, so
	// only manual triggers fetch.
	Interval time.Duration
	// AutoRefresh is the initial state of the timer gate.
	AutoRefresh bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Interval:    5 * time.Second,
		AutoRefresh: true,
	}
}

// Service periodically fetches snapshots from a source and keeps the
// most recent good one.
type Service struct {
	source fetch.Source
	config Config

	eventChan   chan Event
	stopChan    chan struct{}
	triggerChan chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once

	mu          sync.RWMutex
	phase       Phase
	snapshot    *models.Snapshot
	warnings    []models.ParseWarning
	lastErr     error
	autoRefresh bool
}

// New creates a refresh service for the given source. Call Start to
// begin fetching.
func New(source fetch.Source, config Config) *Service {
	if config.Interval < 0 {
		config.Interval = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		source:      source,
		config:      config,
		eventChan:   make(chan Event, 100),
		stopChan:    make(chan struct{}),
		triggerChan: make(chan struct{}, 1),
		ctx:         ctx,
		cancel:      cancel,
		autoRefresh: config.AutoRefresh,
	}
}

// Start launches the scheduling goroutine. The first fetch happens
// immediately, before the first tick.
func (s *Service) Start() {
	go s.run()
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Refresh requests a fetch outside the timer. Triggers arriving while
// a fetch is in flight coalesce into at most one follow-up fetch.
func (s *Service) Refresh() {
	select {
	case s.triggerChan <- struct{}{}:
	default:
	}
}

// SetAutoRefresh opens or closes the timer gate. Manual triggers are
// unaffected.
func (s *Service) SetAutoRefresh(enabled bool) {
	s.mu.Lock()
	s.autoRefresh = enabled
	s.mu.Unlock()
}

// AutoRefresh reports whether timed fetches are enabled.
func (s *Service) AutoRefresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoRefresh
}

// Snapshot returns the most recent good snapshot, or nil before the
// first success. The snapshot is shared and must be treated as
// read-only.
func (s *Service) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Warnings returns the parse warnings from the most recent snapshot.
func (s *Service) Warnings() []models.ParseWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ParseWarning, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// LastError returns the failure from the most recent attempt, or nil
// if it succeeded.
func (s *Service) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Phase returns the current scheduler phase.
func (s *Service) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Interval returns the configured refresh interval.
func (s *Service) Interval() time.Duration {
	return s.config.Interval
}

// Location identifies the snapshot source.
func (s *Service) Location() string {
	return s.source.Location()
}

// run is the scheduling loop. It is the only goroutine that fetches
// and the only writer of snapshot, phase and lastErr.
func (s *Service) run() {
	s.runFetch()

	var tickC <-chan time.Time
	if s.config.Interval > 0 {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		select {
		case <-tickC:
			if s.AutoRefresh() {
				s.runFetch()
			}
		case <-s.triggerChan:
			s.runFetch()
		case <-s.stopChan:
			return
		}
	}
}

// runFetch performs one fetch-and-apply cycle.
func (s *Service) runFetch() {
	s.setPhase(PhaseFetching)

	payload, err := s.source.Fetch(s.ctx)
	if s.ctx.Err() != nil {
		// Shutting down, discard whatever came back.
		return
	}
	if err != nil {
		s.fail(err)
		return
	}

	s.setPhase(PhaseApplying)

	snapshot, warnings, err := models.BuildSnapshot(payload.Body, payload.At)
	if err != nil {
		s.fail(fetch.WrapDecode(s.source.Location(), payload.Body, err))
		return
	}

	for _, w := range warnings {
		logger.Warn("dropped snapshot entry",
			"account", w.Account,
			"model", w.Model,
			"error", w.Err)
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.warnings = warnings
	s.lastErr = nil
	s.phase = PhaseIdle
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventSnapshot, Snapshot: snapshot, Warnings: warnings})
	s.sendEvent(Event{Type: EventPhase, Phase: PhaseIdle})
}

// fail records a fetch failure. The previous snapshot is retained.
func (s *Service) fail(err error) {
	logger.Error("snapshot refresh failed",
		"source", s.source.Location(),
		"error", err)

	s.mu.Lock()
	s.lastErr = err
	s.phase = PhaseError
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventError, Err: err})
	s.sendEvent(Event{Type: EventPhase, Phase: PhaseError})
}

func (s *Service) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
	s.sendEvent(Event{Type: EventPhase, Phase: p})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the scheduler without waiting for an in-flight fetch.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.cancel()
	})
	return nil
}

// Once performs a single fetch-and-build against source, outside the
// scheduler. Used by one-shot console mode.
func Once(ctx context.Context, source fetch.Source) (*models.Snapshot, []models.ParseWarning, error) {
	payload, err := source.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}

	snapshot, warnings, err := models.BuildSnapshot(payload.Body, payload.At)
	if err != nil {
		return nil, nil, fetch.WrapDecode(source.Location(), payload.Body, err)
	}

	return snapshot, warnings, nil
}
