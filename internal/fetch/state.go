package fetch

// State tracks a provider query's lifecycle.
type State string

const (
	StateDisabled  State = "disabled" // Known but not queried until enabled
	StateWorking   State = "working"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateAbandoned State = "abandoned"
)

// validTransitions defines allowed state transitions.
// Key is the "from" state, value is list of valid "to" states.
var validTransitions = map[State][]State{
	StateDisabled:  {StateWorking, StateAbandoned},
	StateWorking:   {StateSucceeded, StateFailed, StateAbandoned},
	StateSucceeded: {}, // terminal
	StateFailed:    {}, // terminal
	StateAbandoned: {}, // terminal
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s State) CanTransitionTo(target State) bool {
	for _, v := range validTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true once the query has finished, successfully or not.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateAbandoned
}

// IsSettled returns true if the state will not change without outside action.
// Disabled providers are settled: nothing waits on them until enabled.
func (s State) IsSettled() bool {
	return s.IsTerminal() || s == StateDisabled
}

// IsFailedOrAbandoned returns true for the unsuccessful terminal states.
func (s State) IsFailedOrAbandoned() bool {
	return s == StateFailed || s == StateAbandoned
}
