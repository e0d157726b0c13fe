package store

import "errors"

var (
	// ErrNotFound indicates the requested row doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConstraint indicates a check constraint violation, such as an
	// unknown preference attribute.
	ErrConstraint = errors.New("constraint violation")

	// ErrBusy indicates another connection held the database lock. The
	// operation may succeed when retried.
	ErrBusy = errors.New("database busy")
)
