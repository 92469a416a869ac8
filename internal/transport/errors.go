package transport

import "errors"

var (
	// ErrClosed is returned by operations on a closed receiver, sender or queue.
	ErrClosed = errors.New("transport: closed")

	// ErrInvalidEndpoint is returned when an endpoint string cannot be parsed.
	ErrInvalidEndpoint = errors.New("transport: invalid endpoint")

	// ErrUnsupportedScheme is returned when a transport does not accept an endpoint's scheme.
	ErrUnsupportedScheme = errors.New("transport: unsupported endpoint scheme")
)
