package secure

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProber serves a scripted state under lock.
type fakeProber struct {
	mu    sync.Mutex
	state State
	err   error
}

func (f *fakeProber) Probe() (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.err
}

func (f *fakeProber) set(state State, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.err = err
}

func collect(m *Monitor, timeout time.Duration) []Event {
	var events []Event
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-m.Events():
			events = append(events, ev)
		case <-deadline:
			return events
		}
	}
}

func TestMonitor_EmitsOneEnabledPerHolder(t *testing.T) {
	prober := &fakeProber{}
	m := NewMonitor(prober, 10*time.Millisecond)
	m.Start(context.Background())
	defer m.Stop()

	prober.set(State{Active: true, App: "loginwindow", PID: 42}, nil)

	events := collect(m, 150*time.Millisecond)
	require.Len(t, events, 1, "the same holder must not re-trigger")
	assert.Equal(t, Enabled, events[0].Kind)
	assert.Equal(t, "loginwindow", events[0].App)
	assert.Equal(t, 42, events[0].PID)
}

func TestMonitor_HolderChangeRetriggersEnabled(t *testing.T) {
	prober := &fakeProber{}
	m := NewMonitor(prober, 10*time.Millisecond)
	m.Start(context.Background())
	defer m.Stop()

	prober.set(State{Active: true, App: "first", PID: 1}, nil)
	time.Sleep(60 * time.Millisecond)
	prober.set(State{Active: true, App: "second", PID: 2}, nil)

	events := collect(m, 150*time.Millisecond)
	require.Len(t, events, 2)
	assert.Equal(t, Enabled, events[0].Kind)
	assert.Equal(t, 1, events[0].PID)
	assert.Equal(t, Enabled, events[1].Kind)
	assert.Equal(t, 2, events[1].PID)
}

func TestMonitor_EmitsDisabledOnClear(t *testing.T) {
	prober := &fakeProber{}
	m := NewMonitor(prober, 10*time.Millisecond)
	m.Start(context.Background())
	defer m.Stop()

	prober.set(State{Active: true, App: "vault", PID: 7}, nil)
	time.Sleep(60 * time.Millisecond)
	prober.set(State{}, nil)

	events := collect(m, 150*time.Millisecond)
	require.Len(t, events, 2)
	assert.Equal(t, Enabled, events[0].Kind)
	assert.Equal(t, Disabled, events[1].Kind)
}

func TestMonitor_ProbeErrorsKeepLastState(t *testing.T) {
	prober := &fakeProber{}
	m := NewMonitor(prober, 10*time.Millisecond)
	m.Start(context.Background())
	defer m.Stop()

	prober.set(State{Active: true, PID: 3}, nil)
	time.Sleep(60 * time.Millisecond)
	prober.set(State{}, errors.New("probe unavailable"))

	events := collect(m, 150*time.Millisecond)
	require.Len(t, events, 1, "errors must not synthesize a Disabled edge")
	assert.Equal(t, Enabled, events[0].Kind)
}

func TestNullProber(t *testing.T) {
	state, err := NullProber{}.Probe()
	require.NoError(t, err)
	assert.False(t, state.Active)
}
