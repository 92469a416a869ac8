package zmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"

	"github.com/nerrad567/gray-logic-presence/internal/transport"
)

// Logger defines the logging interface used by the ZeroMQ transports.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ErrEmptyMessage is returned by a pump that receives a message with no frames.
var ErrEmptyMessage = errors.New("zmq: empty message")

// PullListener binds a PULL socket.
type PullListener struct {
	// HighWaterMark is the receive queue capacity. Zero uses transport.DefaultHighWaterMark.
	HighWaterMark int
	Logger        Logger
}

// Listen binds a PULL socket at endpoint and starts pumping frames into a queue.
func (l PullListener) Listen(ctx context.Context, endpoint string) (transport.Receiver, error) {
	return listen(ctx, endpoint, l.HighWaterMark, l.Logger, zmq4.NewPull, false)
}

// PushDialer connects PUSH sockets.
type PushDialer struct{}

// Dial connects a PUSH socket to endpoint.
func (PushDialer) Dial(ctx context.Context, endpoint string) (transport.Sender, error) {
	sock, err := dial(ctx, endpoint, zmq4.NewPush)
	if err != nil {
		return nil, err
	}
	return &sender{sock: sock}, nil
}

type socketFactory func(ctx context.Context, opts ...zmq4.Option) zmq4.Socket

// listen binds a socket and starts its pump. When reply is set each received
// frame is acknowledged on the same socket after it has been queued.
func listen(ctx context.Context, endpoint string, hwm int, logger Logger, newSocket socketFactory, reply bool) (transport.Receiver, error) {
	ep, err := transport.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if ep.Scheme != "tcp" {
		return nil, fmt.Errorf("%w: %s", transport.ErrUnsupportedScheme, ep.Scheme)
	}
	if logger == nil {
		logger = noopLogger{}
	}

	// The socket outlives the caller's ctx; Close cancels it.
	sockCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sock := newSocket(sockCtx)
	if err := sock.Listen("tcp://" + ep.HostPort()); err != nil {
		cancel()
		sock.Close() //nolint:errcheck // socket never bound
		return nil, fmt.Errorf("zmq: listen %s: %w", ep, err)
	}

	addr := ep.HostPort()
	if a := sock.Addr(); a != nil {
		addr = a.String()
	}

	p := &pump{
		sock:   sock,
		queue:  transport.NewQueue(hwm),
		ctx:    sockCtx,
		reply:  reply,
		logger: logger,
	}
	p.wg.Add(1)
	go p.run()

	logger.Info("zmq socket bound", "type", sock.Type(), "address", addr, "high_water_mark", p.queue.Cap())

	return transport.NewQueueReceiver(p.queue, addr, func() error {
		cancel()
		err := sock.Close()
		p.wg.Wait()
		return err
	}), nil
}

func dial(ctx context.Context, endpoint string, newSocket socketFactory) (zmq4.Socket, error) {
	ep, err := transport.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if ep.Scheme != "tcp" {
		return nil, fmt.Errorf("%w: %s", transport.ErrUnsupportedScheme, ep.Scheme)
	}

	sock := newSocket(context.WithoutCancel(ctx))
	if err := sock.Dial("tcp://" + ep.HostPort()); err != nil {
		sock.Close() //nolint:errcheck // socket never connected
		return nil, fmt.Errorf("zmq: dial %s: %w", ep, err)
	}
	return sock, nil
}

// pump moves frames from a bound socket into the receive queue.
type pump struct {
	sock   zmq4.Socket
	queue  *transport.Queue
	ctx    context.Context
	reply  bool
	logger Logger
	wg     sync.WaitGroup
}

func (p *pump) run() {
	defer p.wg.Done()

	for {
		msg, err := p.sock.Recv()
		if err != nil {
			if p.ctx.Err() != nil {
				p.queue.Close()
				return
			}
			p.logger.Error("zmq receive failed", "error", err)
			p.queue.CloseWithError(fmt.Errorf("zmq: receive: %w", err))
			return
		}
		if len(msg.Frames) == 0 {
			p.logger.Warn("zmq message without frames dropped", "error", ErrEmptyMessage)
			continue
		}

		if err := p.queue.Push(p.ctx, msg.Frames[0]); err != nil {
			return
		}

		if p.reply {
			if err := p.sock.Send(zmq4.NewMsgString(ackReply)); err != nil {
				p.logger.Warn("zmq acknowledgement failed", "error", err)
			}
		}
	}
}

// sender writes frames to a PUSH or REQ socket.
type sender struct {
	sock     zmq4.Socket
	awaitAck bool
}

func (s *sender) Send(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.sock.Send(zmq4.NewMsg(frame)); err != nil {
		return fmt.Errorf("zmq: send: %w", err)
	}
	if !s.awaitAck {
		return nil
	}

	reply, err := s.sock.Recv()
	if err != nil {
		return fmt.Errorf("zmq: await acknowledgement: %w", err)
	}
	if len(reply.Frames) == 0 || string(reply.Frames[0]) != ackReply {
		return fmt.Errorf("%w: %q", ErrUnexpectedReply, reply.Frames)
	}
	return nil
}

func (s *sender) Close() error {
	return s.sock.Close()
}
