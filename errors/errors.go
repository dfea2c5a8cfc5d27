package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionBusy indicates that a workflow run is already in flight for
	// the requested thread
	ErrSessionBusy = errors.New("session busy")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)
