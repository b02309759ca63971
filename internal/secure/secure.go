// Package secure tracks whether another process holds exclusive keyboard
// capture (a password prompt, for example), during which expansions must be
// suspended.
package secure

import (
	"context"
	"sync"
	"time"

	"snipd/internal/logging"
)

// DefaultPollInterval balances detection latency against wakeup cost.
const DefaultPollInterval = time.Second

// State describes the capture holder at one poll.
type State struct {
	// Active reports whether some process holds secure input.
	Active bool
	// App names the holding process when the platform can resolve it.
	App string
	// PID is the holding process, 0 when unknown.
	PID int
}

// Prober answers the platform question "is secure input on, and who holds
// it". Implementations must be cheap to call once per poll interval.
type Prober interface {
	Probe() (State, error)
}

// EventKind tags monitor notifications.
type EventKind int

const (
	// Enabled fires once when secure input turns on or changes holder.
	Enabled EventKind = iota
	// Disabled fires once when secure input turns off.
	Disabled
)

// Event is an edge-triggered state change.
type Event struct {
	Kind EventKind
	App  string
	PID  int
}

// Monitor polls a Prober and emits one event per state edge. Repeated polls
// in the same state stay silent.
type Monitor struct {
	prober   Prober
	interval time.Duration
	events   chan Event

	mu      sync.Mutex
	last    State
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewMonitor builds a monitor over the prober.
func NewMonitor(prober Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		events:   make(chan Event, 4),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Events delivers edge notifications.
func (m *Monitor) Events() <-chan Event { return m.events }

// Start begins polling. Non-blocking.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	go m.run(ctx)
}

// Stop halts polling and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopCh)
	<-m.doneCh
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *Monitor) poll() {
	state, err := m.prober.Probe()
	if err != nil {
		logging.Secure("probe failed: %v", err)
		return
	}

	m.mu.Lock()
	prev := m.last
	m.last = state
	m.mu.Unlock()

	switch {
	case state.Active && (!prev.Active || state.PID != prev.PID):
		logging.Secure("secure input enabled by %s (pid %d)", state.App, state.PID)
		m.emit(Event{Kind: Enabled, App: state.App, PID: state.PID})
	case !state.Active && prev.Active:
		logging.Secure("secure input disabled")
		m.emit(Event{Kind: Disabled})
	}
}

func (m *Monitor) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		logging.Secure("event buffer full, dropping %v", ev.Kind)
	}
}

// NullProber reports secure input as permanently off, for platforms without
// a capture mechanism.
type NullProber struct{}

func (NullProber) Probe() (State, error) { return State{}, nil }
