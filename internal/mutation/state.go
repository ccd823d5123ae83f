package mutation

import "fmt"

// State of a single mutation instance.
type State int

const (
	StateIdle State = iota
	StateOptimistic
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOptimistic:
		return "optimistic"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsFinal reports whether no further transition is allowed.
func (s State) IsFinal() bool {
	switch s {
	case StateCommitted, StateRolledBack:
		return true
	case StateIdle, StateOptimistic:
		return false
	default:
		return false
	}
}

var allowedTransitions = map[State][]State{
	StateIdle:       {StateOptimistic},
	StateOptimistic: {StateCommitted, StateRolledBack},
	StateCommitted:  {},
	StateRolledBack: {},
}

func canTransition(from, to State) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid mutation transition %s -> %s", e.From, e.To)
}
