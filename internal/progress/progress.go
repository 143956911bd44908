// Package progress drives the perceived-progress ticker shown while a
// comparison is in flight. The store names rotate on a fixed cadence and the
// machine stays visible for a minimum floor even when sources answer fast,
// so the loading state never flickers.
package progress

import (
	"sync"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateScanning
	StateSettled
)

// DefaultMessages is the rotation shown during a scan.
var DefaultMessages = []string{
	"AutoZone Database...",
	"RockAuto API...",
	"NAPA Inventory...",
	"Amazon Automotive...",
	"VMC Chinese Parts...",
	"eBay Motors...",
}

const (
	DefaultStep  = 300 * time.Millisecond
	DefaultFloor = 2 * time.Second
)

// Status is a race-free snapshot of the machine.
type Status struct {
	State     State
	Step      int
	Message   string
	StartedAt time.Time
}

// Machine is a single query's loading indicator. One machine per submitted
// query; a superseded query's machine is aborted, never settled.
type Machine struct {
	mu       sync.Mutex
	messages []string
	step     time.Duration
	floor    time.Duration

	state       State
	idx         int
	startedAt   time.Time
	settleAsked bool
	stop        chan struct{}

	now func() time.Time // test hook
}

// Option tweaks a Machine before Start.
type Option func(*Machine)

func WithStep(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.step = d
		}
	}
}

func WithFloor(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.floor = d
		}
	}
}

func WithMessages(msgs []string) Option {
	return func(m *Machine) {
		if len(msgs) > 0 {
			m.messages = msgs
		}
	}
}

func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		messages: DefaultMessages,
		step:     DefaultStep,
		floor:    DefaultFloor,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start moves the machine to scanning and begins the message rotation.
// Calling Start twice is a no-op.
func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return
	}
	m.state = StateScanning
	m.idx = 0
	m.startedAt = m.now()
	m.stop = make(chan struct{})
	go m.run(m.stop)
}

func (m *Machine) run(stop chan struct{}) {
	ticker := time.NewTicker(m.step)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if m.tick() {
				return
			}
		}
	}
}

// tick advances the message index and reports whether the machine finished.
func (m *Machine) tick() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateScanning {
		return true
	}
	m.idx = (m.idx + 1) % len(m.messages)
	if m.settleAsked && m.now().Sub(m.startedAt) >= m.floor {
		m.state = StateSettled
		return true
	}
	return false
}

// Settle requests completion. The machine settles immediately when the floor
// has already elapsed, otherwise on the first tick past the floor.
func (m *Machine) Settle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateScanning {
		return
	}
	m.settleAsked = true
	if m.now().Sub(m.startedAt) >= m.floor {
		m.state = StateSettled
		close(m.stop)
	}
}

// Abort stops the machine without the floor wait. Used when a newer query
// supersedes this one and its indicator is no longer shown.
func (m *Machine) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateScanning {
		return
	}
	m.state = StateSettled
	close(m.stop)
}

// Status returns a snapshot.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{State: m.state, Step: m.idx, StartedAt: m.startedAt}
	if m.state == StateScanning {
		st.Message = m.messages[m.idx]
	}
	return st
}
