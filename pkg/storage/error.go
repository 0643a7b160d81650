package storage

import "errors"

// ErrMissingID is returned by Put for a log without an ID.
var ErrMissingID = errors.New("attack log has no id")

// NotFoundError is returned when a log doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "attack log not found"
	}

	return "attack log not found: " + e.ID
}
