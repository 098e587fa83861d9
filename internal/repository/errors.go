package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an optimistic concurrency check fails
	// or a create collides with an existing key
	ErrConflict = errors.New("conflict: entity was modified concurrently")

	// ErrUnavailable is returned when the store cannot serve the request right now.
	// Callers may retry with backoff.
	ErrUnavailable = errors.New("store unavailable")

	// ErrLimitReached is returned when a conditional counter update is refused
	ErrLimitReached = errors.New("limit reached")
)
