package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
)

// State is the connection state of a push-feed transport.
type State string

const (
	Idle         State = "IDLE"
	Connecting   State = "CONNECTING"
	Live         State = "LIVE"
	Reconnecting State = "RECONNECTING"
	Stopped      State = "STOPPED"
)

var validTransitions = map[State][]State{
	Idle:         {Connecting, Stopped},
	Connecting:   {Live, Reconnecting, Stopped},
	Live:         {Reconnecting, Stopped},
	Reconnecting: {Connecting, Stopped},
	Stopped:      {Connecting},
}

// Machine tracks and enforces feed connection state transitions.
type Machine struct {
	mu      sync.RWMutex
	source  string
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine for the named feed source, starting in Idle.
func NewMachine(source string, b *bus.Bus) *Machine {
	return &Machine{
		source:  source,
		current: Idle,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("%s: invalid transition from %s to %s", m.source, m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Publish(bus.Event{
		Kind: bus.KindConnStateChanged,
		Payload: StateChange{
			Source: m.source,
			From:   from,
			To:     to,
		},
	})
	return nil
}

// StateChange is the payload for connection state events.
type StateChange struct {
	Source string
	From   State
	To     State
}
