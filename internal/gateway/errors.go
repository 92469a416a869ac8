package gateway

import "errors"

var (
	// ErrUnhandledSignal is returned when a decoded signal has no dispatch entry.
	ErrUnhandledSignal = errors.New("gateway: unhandled signal")

	// ErrStopped is returned by Run or Listen on a dispatcher that has already run.
	ErrStopped = errors.New("gateway: dispatcher already ran")

	// ErrNoListener is returned by New when no transport listener is supplied.
	ErrNoListener = errors.New("gateway: listener is required")

	// ErrInvalidPolicy is returned by New for an unrecognised unknown-signal policy.
	ErrInvalidPolicy = errors.New("gateway: invalid unknown-signal policy")
)
