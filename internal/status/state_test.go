package status

import (
	"testing"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine("ws", nil)
	if m.Current() != Idle {
		t.Errorf("initial state = %s, want IDLE", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Idle, Connecting},
		{Idle, Stopped},
		{Connecting, Live},
		{Connecting, Reconnecting},
		{Live, Reconnecting},
		{Live, Stopped},
		{Reconnecting, Connecting},
		{Stopped, Connecting},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine("ws", nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine("ws", nil)
	if err := m.Transition(Live); err == nil {
		t.Error("Transition(IDLE -> LIVE) should fail; must go through CONNECTING")
	}
	if m.Current() != Idle {
		t.Errorf("state = %s, want IDLE (should not have changed)", m.Current())
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("conn.", 10)
	defer unsub()

	m := NewMachine("whatsapp", b)
	if err := m.Transition(Connecting); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindConnStateChanged {
		t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindConnStateChanged)
	}
	change, ok := evt.Payload.(StateChange)
	if !ok {
		t.Fatalf("payload type = %T, want StateChange", evt.Payload)
	}
	if change.Source != "whatsapp" || change.From != Idle || change.To != Connecting {
		t.Errorf("change = %+v, want whatsapp IDLE -> CONNECTING", change)
	}
}

// TestReconnectCycle walks the loop a dropped websocket goes through:
// LIVE -> RECONNECTING -> CONNECTING -> LIVE
func TestReconnectCycle(t *testing.T) {
	m := NewMachine("ws", nil)
	walkTo(t, m, Live)

	for _, s := range []State{Reconnecting, Connecting, Live} {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
}

func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		Idle:         {},
		Connecting:   {Connecting},
		Live:         {Connecting, Live},
		Reconnecting: {Connecting, Live, Reconnecting},
		Stopped:      {Stopped},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
