package device

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-presence/internal/presence"
	"github.com/nerrad567/gray-logic-presence/internal/transport"
)

// Script is the lifecycle each fleet device runs.
type Script struct {
	// HoldOpen is the pause between OPEN and RESTART.
	HoldOpen time.Duration
	// HoldRestart is the pause between RESTART and close.
	HoldRestart time.Duration
}

// DefaultScript matches a device that stays up for a few seconds, restarts, then leaves.
var DefaultScript = Script{HoldOpen: 3 * time.Second, HoldRestart: 5 * time.Second}

// Run drives one session through the script: open, OPEN, hold, RESTART, hold, close.
func (sc Script) Run(ctx context.Context, s *Session, endpoint string) error {
	if err := s.Open(ctx, endpoint); err != nil {
		return err
	}

	err := sc.signals(ctx, s)

	// Close with a fresh context so a cancelled run still says goodbye.
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if closeErr := s.Close(closeCtx); err == nil {
		err = closeErr
	}
	return err
}

func (sc Script) signals(ctx context.Context, s *Session) error {
	if err := s.Signal(ctx, presence.SignalOpen); err != nil {
		return err
	}
	if err := sleep(ctx, sc.HoldOpen); err != nil {
		return err
	}
	if err := s.Signal(ctx, presence.SignalRestart); err != nil {
		return err
	}
	return sleep(ctx, sc.HoldRestart)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fleet runs the same script on many sessions concurrently.
type Fleet struct {
	Dialer   transport.Dialer
	Codec    presence.Codec
	Endpoint string
	Script   Script
	Logger   Logger

	// Identities are used in order; missing ones are generated up to Size.
	Identities []presence.Identity
	Size       int
}

// Run starts every session and waits for all of them. The first failure
// cancels the others and is returned.
func (f *Fleet) Run(ctx context.Context) error {
	if f.Dialer == nil {
		return fmt.Errorf("device: fleet dialer is required")
	}

	ids := append([]presence.Identity(nil), f.Identities...)
	if missing := f.Size - len(ids); missing > 0 {
		ids = append(ids, GenerateIdentities(missing)...)
	}

	logger := f.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		session := NewSession(id, f.Dialer, f.Codec, WithLogger(logger))
		g.Go(func() error {
			if err := f.Script.Run(gctx, session, f.Endpoint); err != nil {
				return fmt.Errorf("device %s: %w", id.HostName, err)
			}
			return nil
		})
	}

	logger.Info("fleet started", "devices", len(ids), "endpoint", f.Endpoint)
	return g.Wait()
}
