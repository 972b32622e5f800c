package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateUsername is returned when the store rejects a username that is already taken.
	ErrDuplicateUsername = errors.New("repository: duplicate username")
)
