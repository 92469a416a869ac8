package zmq

import (
	"context"
	"errors"

	"github.com/go-zeromq/zmq4"

	"github.com/nerrad567/gray-logic-presence/internal/transport"
)

// ackReply is the body of every REP acknowledgement.
const ackReply = "ok"

// ErrUnexpectedReply is returned when a REQ sender receives something other than an acknowledgement.
var ErrUnexpectedReply = errors.New("zmq: unexpected reply")

// RepListener binds a REP socket. Each request frame is queued, then acknowledged.
type RepListener struct {
	HighWaterMark int
	Logger        Logger
}

// Listen binds a REP socket at endpoint.
func (l RepListener) Listen(ctx context.Context, endpoint string) (transport.Receiver, error) {
	return listen(ctx, endpoint, l.HighWaterMark, l.Logger, zmq4.NewRep, true)
}

// ReqDialer connects REQ sockets. Send returns once the gateway has acknowledged the frame.
type ReqDialer struct{}

// Dial connects a REQ socket to endpoint.
func (ReqDialer) Dial(ctx context.Context, endpoint string) (transport.Sender, error) {
	sock, err := dial(ctx, endpoint, zmq4.NewReq)
	if err != nil {
		return nil, err
	}
	return &sender{sock: sock, awaitAck: true}, nil
}
