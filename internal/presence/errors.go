package presence

import "errors"

// Protocol errors shared by the gateway and device sides.
//
// Decode failures always satisfy ErrMalformedFrame; a numeric or named signal
// with no matching variant additionally satisfies ErrInvalidSignalCode:
//
//	if errors.Is(err, presence.ErrInvalidSignalCode) {
//	    // unknown signal, frame was otherwise well formed
//	}
var (
	// ErrAlreadyOpen is returned when opening an endpoint that is already bound or connected.
	ErrAlreadyOpen = errors.New("presence: already open")

	// ErrNotOpen is returned when operating on an endpoint that is not open.
	ErrNotOpen = errors.New("presence: not open")

	// ErrTransportFailure is returned when the underlying send or receive fails.
	ErrTransportFailure = errors.New("presence: transport failure")

	// ErrClosed is returned when a blocked receive is interrupted by closing the endpoint.
	ErrClosed = errors.New("presence: endpoint closed")

	// ErrMalformedFrame is returned when a frame cannot be decoded into a Message.
	ErrMalformedFrame = errors.New("presence: malformed frame")

	// ErrInvalidSignalCode is returned when a signal code or name has no matching variant.
	ErrInvalidSignalCode = errors.New("presence: invalid signal code")
)
