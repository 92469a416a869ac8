package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/presence"
)

// ListenMode selects whether Listen applies the dispatch table.
type ListenMode int

const (
	// ListenAlongside applies the dispatch table and then invokes the callback.
	ListenAlongside ListenMode = iota

	// ListenInstead invokes the callback only; the registry is not touched
	// and hooks do not fire.
	ListenInstead
)

// Callback receives messages matching a Listen filter.
type Callback func(ctx context.Context, msg presence.Message)

// Listen runs the dispatch loop, invoking cb for every message whose signal
// equals filter.
//
// Only OPEN, CLOSE, RESTART and HELLO are accepted; any other signal is an
// unhandled signal and, under the terminate policy, ends the loop. Listen
// shares the single run of the dispatcher with Run.
func (d *Dispatcher) Listen(ctx context.Context, filter presence.Signal, cb Callback, mode ListenMode) error {
	if cb == nil {
		return fmt.Errorf("gateway: listen callback is required")
	}
	rx, err := d.start()
	if err != nil {
		return err
	}

	return d.loop(ctx, rx, func(ctx context.Context, msg presence.Message, at time.Time) error {
		switch msg.Signal {
		case presence.SignalOpen, presence.SignalClose, presence.SignalRestart, presence.SignalHello:
		default:
			return fmt.Errorf("%w: %s from %s", ErrUnhandledSignal, msg.Signal, msg.Identity.HostName)
		}

		if mode == ListenAlongside {
			if err := d.apply(ctx, msg, at); err != nil {
				return err
			}
		}
		if msg.Signal == filter {
			cb(ctx, msg)
		}
		return nil
	})
}
