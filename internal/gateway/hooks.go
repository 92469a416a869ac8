package gateway

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/presence"
)

// Effect describes what applying a signal did to the registry.
type Effect string

// Dispatch effects.
const (
	EffectRegistered        Effect = "registered"
	EffectAlreadyRegistered Effect = "already_registered"
	EffectRemoved           Effect = "removed"
	EffectNotRegistered     Effect = "not_registered"
	EffectInformational     Effect = "informational"
)

// Event is passed to hooks after a signal has been applied.
type Event struct {
	Message    presence.Message
	Effect     Effect
	ReceivedAt time.Time
}

// Hook observes applied signals.
//
// OnSignal runs synchronously on the dispatch goroutine, so it delays the
// next receive. A returned error is logged and does not stop the loop.
type Hook interface {
	OnSignal(ctx context.Context, ev Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, ev Event) error

// OnSignal calls f.
func (f HookFunc) OnSignal(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
