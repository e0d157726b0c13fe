package fetch

import "errors"

var (
	// ErrInvalidTransition indicates a provider tried to move to a state its
	// current state does not allow (e.g. emitting after it finished).
	ErrInvalidTransition = errors.New("invalid provider state transition")

	// ErrNotWorking indicates media was emitted by a provider that is not querying.
	ErrNotWorking = errors.New("provider is not working")
)
