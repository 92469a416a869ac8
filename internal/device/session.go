package device

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-presence/internal/presence"
	"github.com/nerrad567/gray-logic-presence/internal/transport"
)

// Logger defines the logging interface used by sessions.
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

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session is one device's connection to a gateway.
//
// All methods are safe for concurrent use.
type Session struct {
	identity presence.Identity
	dialer   transport.Dialer
	codec    presence.Codec
	logger   Logger

	// gate is a single-slot semaphore guarding sender and the send path.
	gate   chan struct{}
	sender transport.Sender
	open   atomic.Bool
}

var _ presence.SignalSender = (*Session)(nil)

// NewSession creates a closed session for identity. A nil codec uses presence.JSON.
func NewSession(identity presence.Identity, dialer transport.Dialer, codec presence.Codec, opts ...Option) *Session {
	if codec == nil {
		codec = presence.JSON
	}
	s := &Session{
		identity: identity,
		dialer:   dialer,
		codec:    codec,
		logger:   noopLogger{},
		gate:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identity returns the session's fixed identity.
func (s *Session) Identity() presence.Identity {
	return s.identity
}

// IsOpen reports whether the session is connected.
func (s *Session) IsOpen() bool {
	return s.open.Load()
}

func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) release() {
	<-s.gate
}

// Open connects to endpoint. An empty endpoint uses tcp://127.0.0.1:5555.
func (s *Session) Open(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		endpoint = transport.DefaultConnectEndpoint
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	if s.sender != nil {
		return presence.ErrAlreadyOpen
	}

	sender, err := s.dialer.Dial(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", presence.ErrTransportFailure, endpoint, err)
	}

	s.sender = sender
	s.open.Store(true)
	s.logger.Info("device connected", "host_name", s.identity.HostName, "endpoint", endpoint)
	return nil
}

// Signal sends sig for the session's identity.
//
// Concurrent calls are serialised; each frame is fully sent before the next
// caller is admitted. A failed send is returned, never retried.
//
// Parameters:
//   - ctx: Bounds both the wait for the gate and the send
//   - sig: The lifecycle signal to announce
//
// Returns:
//   - error: presence.ErrNotOpen before Open, ctx.Err() if the gate wait is
//     abandoned, or presence.ErrTransportFailure wrapping the send error
func (s *Session) Signal(ctx context.Context, sig presence.Signal) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	if s.sender == nil {
		return presence.ErrNotOpen
	}
	return s.send(ctx, sig)
}

// send must be called with the gate held.
func (s *Session) send(ctx context.Context, sig presence.Signal) error {
	frame, err := s.codec.Encode(presence.Message{Identity: s.identity, Signal: sig})
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, frame); err != nil {
		return fmt.Errorf("%w: send %s: %w", presence.ErrTransportFailure, sig, err)
	}
	s.logger.Debug("signal sent", "host_name", s.identity.HostName, "signal", sig.String())
	return nil
}

// Close sends a best-effort CLOSE and releases the connection.
//
// A failed CLOSE is logged; the connection is released regardless.
func (s *Session) Close(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	if s.sender == nil {
		return presence.ErrNotOpen
	}

	if err := s.send(ctx, presence.SignalClose); err != nil {
		s.logger.Warn("close signal not delivered", "host_name", s.identity.HostName, "error", err)
	}

	sender := s.sender
	s.sender = nil
	s.open.Store(false)

	if err := sender.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", presence.ErrTransportFailure, err)
	}
	s.logger.Info("device disconnected", "host_name", s.identity.HostName)
	return nil
}
