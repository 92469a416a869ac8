package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-presence/internal/presence"
)

type callbackRecorder struct {
	mu   sync.Mutex
	msgs []presence.Message
}

func (r *callbackRecorder) record(_ context.Context, msg presence.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *callbackRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestListen_AlongsideFiltersAndApplies(t *testing.T) {
	h := newHarness(t, Deps{})
	rec := &callbackRecorder{}
	done := make(chan error, 1)
	go func() {
		done <- h.d.Listen(context.Background(), presence.SignalRestart, rec.record, ListenAlongside)
	}()

	h.send("h1", presence.SignalOpen)
	h.send("h1", presence.SignalRestart)
	h.send("h1", presence.SignalHello)
	h.send("h1", presence.SignalRestart)
	waitFor(t, "two callbacks", func() bool { return rec.count() == 2 })

	if h.d.Registry().Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.d.Registry().Len())
	}
	for _, msg := range rec.msgs {
		if msg.Signal != presence.SignalRestart {
			t.Errorf("callback got %v", msg.Signal)
		}
	}

	// RECONNECT is outside the listen allow-list.
	h.send("h1", presence.SignalReconnect)
	if err := waitResult(t, done); !errors.Is(err, ErrUnhandledSignal) {
		t.Errorf("Listen() error = %v, want ErrUnhandledSignal", err)
	}
}

func TestListen_InsteadLeavesRegistryUntouched(t *testing.T) {
	hooks := &hookRecorder{}
	h := newHarness(t, Deps{Hooks: []Hook{hooks}})
	rec := &callbackRecorder{}
	go func() {
		_ = h.d.Listen(context.Background(), presence.SignalOpen, rec.record, ListenInstead)
	}()

	h.send("h1", presence.SignalOpen)
	h.send("h2", presence.SignalClose)
	h.send("h3", presence.SignalOpen)
	waitFor(t, "two callbacks", func() bool { return rec.count() == 2 })

	if h.d.Registry().Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.d.Registry().Len())
	}
	if n := len(hooks.snapshot()); n != 0 {
		t.Errorf("hooks fired %d times, want 0", n)
	}
}

func TestListen_RequiresCallback(t *testing.T) {
	h := newHarness(t, Deps{})
	if err := h.d.Listen(context.Background(), presence.SignalOpen, nil, ListenAlongside); err == nil {
		t.Error("Listen(nil callback) error = nil")
	}
	// The dispatcher has not been consumed.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
