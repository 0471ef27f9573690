package domain

import "errors"

var (
	// ErrNotFound is returned when the requested entity or report does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidEvent indicates an event envelope that cannot be decoded into a typed event.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrNotConfigured is returned by optional collaborators that were not wired.
	ErrNotConfigured = errors.New("not configured")
)
