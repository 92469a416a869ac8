package transport

import "context"

// Default endpoints.
const (
	// DefaultBindEndpoint is where the gateway listens: all interfaces, port 5555.
	DefaultBindEndpoint = "tcp://*:5555"

	// DefaultConnectEndpoint is where devices connect when none is configured.
	DefaultConnectEndpoint = "tcp://127.0.0.1:5555"

	// DefaultHighWaterMark is the receive queue capacity.
	DefaultHighWaterMark = 1
)

// Listener binds an endpoint for receiving frames.
type Listener interface {
	Listen(ctx context.Context, endpoint string) (Receiver, error)
}

// Receiver yields frames from every sender connected to a bound endpoint.
//
// Receive blocks until a frame arrives, ctx is done, or the receiver is
// closed. After Close, a blocked or subsequent Receive returns an error
// wrapping ErrClosed.
type Receiver interface {
	Receive(ctx context.Context) ([]byte, error)
	Close() error
	Addr() string
}

// Dialer connects to a bound endpoint for sending frames.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Sender, error)
}

// Sender writes frames to a connected endpoint.
//
// Send is not required to be safe for concurrent use; callers serialise it.
type Sender interface {
	Send(ctx context.Context, frame []byte) error
	Close() error
}
