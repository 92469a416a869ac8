package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/presence"
	"github.com/nerrad567/gray-logic-presence/internal/registry"
	"github.com/nerrad567/gray-logic-presence/internal/transport"
)

// Unknown-signal policies, also the accepted values of
// gateway.unknown_signal_policy in the config file.
const (
	PolicyTerminate = "terminate"
	PolicySkip      = "skip"
)

// Logger defines the logging interface used by the Dispatcher.
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

// Deps holds the collaborators of a Dispatcher.
type Deps struct {
	// Listener binds the receiving endpoint. Required.
	Listener transport.Listener

	// Codec decodes frames. Defaults to presence.JSON.
	Codec presence.Codec

	// Registry is mutated by the dispatch loop. Defaults to an empty registry.
	Registry *registry.Registry

	// Logger is optional.
	Logger Logger

	// Hooks are notified after each applied signal, in order.
	Hooks []Hook

	// Policy is PolicyTerminate (default) or PolicySkip.
	Policy string

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Stats holds dispatcher counters.
type Stats struct {
	Received       uint64 `json:"received"`
	Applied        uint64 `json:"applied"`
	Skipped        uint64 `json:"skipped"`
	DecodeFailures uint64 `json:"decode_failures"`
}

// Dispatcher is the gateway's single-consumer dispatch loop.
//
// Open, Close, Stats and the accessors are safe for concurrent use. Run and
// Listen are called once from the owning goroutine.
type Dispatcher struct {
	listener transport.Listener
	codec    presence.Codec
	registry *registry.Registry
	logger   Logger
	hooks    []Hook
	policy   string
	now      func() time.Time

	mu       sync.Mutex
	rx       transport.Receiver
	endpoint string

	ran atomic.Bool

	received       atomic.Uint64
	applied        atomic.Uint64
	skipped        atomic.Uint64
	decodeFailures atomic.Uint64
}

var _ presence.SignalReceiver = (*Dispatcher)(nil)

// New creates a dispatcher. It is not bound until Open is called.
func New(deps Deps) (*Dispatcher, error) {
	if deps.Listener == nil {
		return nil, ErrNoListener
	}

	d := &Dispatcher{
		listener: deps.Listener,
		codec:    deps.Codec,
		registry: deps.Registry,
		logger:   deps.Logger,
		hooks:    deps.Hooks,
		policy:   deps.Policy,
		now:      deps.Clock,
	}
	if d.codec == nil {
		d.codec = presence.JSON
	}
	if d.registry == nil {
		d.registry = registry.New()
	}
	if d.logger == nil {
		d.logger = noopLogger{}
	}
	if d.now == nil {
		d.now = time.Now
	}

	switch d.policy {
	case "":
		d.policy = PolicyTerminate
	case PolicyTerminate, PolicySkip:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, d.policy)
	}

	return d, nil
}

// Open binds the listening endpoint. An empty endpoint binds tcp://*:5555.
//
// Parameters:
//   - ctx: Context for the bind
//   - endpoint: Address to bind, e.g. "tcp://*:5555"
//
// Returns:
//   - error: presence.ErrAlreadyOpen if bound, or presence.ErrTransportFailure
//     wrapping the bind error
func (d *Dispatcher) Open(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		endpoint = transport.DefaultBindEndpoint
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rx != nil {
		return fmt.Errorf("%w: bound at %s", presence.ErrAlreadyOpen, d.endpoint)
	}

	rx, err := d.listener.Listen(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: bind %s: %w", presence.ErrTransportFailure, endpoint, err)
	}

	d.rx = rx
	d.endpoint = endpoint
	d.logger.Info("gateway listening", "endpoint", endpoint, "addr", rx.Addr())
	return nil
}

// Close releases the bound endpoint. A Run blocked on receive returns an
// error satisfying both presence.ErrTransportFailure and presence.ErrClosed.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	rx, endpoint := d.rx, d.endpoint
	d.rx = nil
	d.mu.Unlock()

	if rx == nil {
		return presence.ErrNotOpen
	}

	if err := rx.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", presence.ErrTransportFailure, err)
	}
	d.logger.Info("gateway closed", "endpoint", endpoint)
	return nil
}

// IsOpen reports whether the dispatcher is bound.
func (d *Dispatcher) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rx != nil
}

// Addr returns the bound address, or "" when not bound.
func (d *Dispatcher) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rx == nil {
		return ""
	}
	return d.rx.Addr()
}

// Registry returns the registry the dispatcher mutates.
func (d *Dispatcher) Registry() *registry.Registry {
	return d.registry
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Received:       d.received.Load(),
		Applied:        d.applied.Load(),
		Skipped:        d.skipped.Load(),
		DecodeFailures: d.decodeFailures.Load(),
	}
}

// Run receives and applies frames until the transport fails, a frame cannot
// be handled, or ctx is done.
//
// For each frame it performs:
//  1. Decodes the frame with the configured codec
//  2. Applies the dispatch table to the registry
//  3. Notifies hooks, in order, with the resulting effect
//
// Parameters:
//   - ctx: Cancelling ctx ends the loop
//
// Returns:
//   - error: never nil; ctx.Err() on cancellation, presence.ErrNotOpen before
//     Open, ErrStopped on a second run, otherwise the transport, decode or
//     unhandled-signal failure
func (d *Dispatcher) Run(ctx context.Context) error {
	rx, err := d.start()
	if err != nil {
		return err
	}
	return d.loop(ctx, rx, d.apply)
}

// start claims the single run of the dispatcher.
func (d *Dispatcher) start() (transport.Receiver, error) {
	d.mu.Lock()
	rx := d.rx
	d.mu.Unlock()

	if !d.ran.CompareAndSwap(false, true) {
		return nil, ErrStopped
	}
	if rx == nil {
		d.ran.Store(false)
		return nil, presence.ErrNotOpen
	}
	return rx, nil
}

type handler func(ctx context.Context, msg presence.Message, at time.Time) error

func (d *Dispatcher) loop(ctx context.Context, rx transport.Receiver, handle handler) error {
	for {
		frame, err := rx.Receive(ctx)
		if err != nil {
			return d.receiveError(ctx, err)
		}
		at := d.now()
		d.received.Add(1)

		msg, err := d.codec.Decode(frame)
		if err != nil {
			if d.skip(err) {
				d.logger.Warn("skipping frame with unknown signal", "error", err)
				continue
			}
			d.decodeFailures.Add(1)
			d.logger.Warn("dispatch loop stopped on undecodable frame", "error", err)
			return err
		}

		if err := handle(ctx, msg, at); err != nil {
			if d.skip(err) {
				d.logger.Warn("skipping unhandled signal",
					"host_name", msg.Identity.HostName,
					"signal", msg.Signal.String(),
				)
				continue
			}
			d.logger.Warn("dispatch loop stopped on unhandled signal",
				"host_name", msg.Identity.HostName,
				"signal", msg.Signal.String(),
			)
			return err
		}
	}
}

func (d *Dispatcher) receiveError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, transport.ErrClosed) {
		return fmt.Errorf("%w: %w: %w", presence.ErrTransportFailure, presence.ErrClosed, err)
	}
	d.logger.Error("receive failed", "error", err)
	return fmt.Errorf("%w: %w", presence.ErrTransportFailure, err)
}

// skip reports whether err is an unknown-signal outcome the policy skips,
// counting it if so.
func (d *Dispatcher) skip(err error) bool {
	if d.policy != PolicySkip {
		return false
	}
	if !errors.Is(err, presence.ErrInvalidSignalCode) && !errors.Is(err, ErrUnhandledSignal) {
		return false
	}
	d.skipped.Add(1)
	return true
}

// apply runs the dispatch table for one message then notifies hooks.
func (d *Dispatcher) apply(ctx context.Context, msg presence.Message, at time.Time) error {
	host := msg.Identity.HostName

	var effect Effect
	switch msg.Signal {
	case presence.SignalOpen:
		if d.registry.UpsertOpen(presence.NewView(msg, at)) {
			effect = EffectRegistered
			d.logger.Info("device registered", "host_name", host, "ip_address", msg.Identity.IPAddress)
		} else {
			effect = EffectAlreadyRegistered
			d.logger.Debug("device already registered", "host_name", host)
		}
	case presence.SignalClose:
		if d.registry.Remove(host) {
			effect = EffectRemoved
			d.logger.Info("device removed", "host_name", host)
		} else {
			effect = EffectNotRegistered
			d.logger.Debug("close for unregistered device", "host_name", host)
		}
	case presence.SignalRestart,
		presence.SignalHello,
		presence.SignalReconnect,
		presence.SignalDHCPIP,
		presence.SignalReconnectNetworkInterface:
		d.registry.Touch(host, msg.Signal, at)
		effect = EffectInformational
		d.logger.Info("device signal", "host_name", host, "signal", msg.Signal.String())
	default:
		return fmt.Errorf("%w: %s from %s", ErrUnhandledSignal, msg.Signal, host)
	}

	d.applied.Add(1)
	d.notify(ctx, Event{Message: msg, Effect: effect, ReceivedAt: at})
	return nil
}

func (d *Dispatcher) notify(ctx context.Context, ev Event) {
	for _, h := range d.hooks {
		if err := h.OnSignal(ctx, ev); err != nil {
			d.logger.Warn("signal hook failed",
				"host_name", ev.Message.Identity.HostName,
				"signal", ev.Message.Signal.String(),
				"error", err,
			)
		}
	}
}
