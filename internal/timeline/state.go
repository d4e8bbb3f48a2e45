package timeline

import (
	"fmt"
	"slices"
)

// State is the load state of a timeline.
type State string

const (
	Idle    State = "IDLE"
	Loading State = "LOADING"
	Ready   State = "READY"
	Error   State = "ERROR"
)

// Loading -> Loading is a superseded load starting a new generation.
var validTransitions = map[State][]State{
	Idle:    {Loading},
	Loading: {Loading, Ready, Error, Idle},
	Ready:   {Loading, Idle},
	Error:   {Loading, Idle},
}

func checkTransition(from, to State) error {
	if !slices.Contains(validTransitions[from], to) {
		return fmt.Errorf("invalid timeline transition from %s to %s", from, to)
	}
	return nil
}
