package storage

import "errors"

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("node not found")

	// ErrNoTurns is returned by Head for a session with no stored turns.
	ErrNoTurns = errors.New("session has no turns")
)

// NotFoundError is returned when a node doesn't exist in the store.
type NotFoundError struct {
	Hash string
}

func (e NotFoundError) Error() string {
	if e.Hash == "" {
		return ErrNotFound.Error()
	}

	return ErrNotFound.Error() + ": " + e.Hash
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
