package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/gateway"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/logging"
)

// supervisor runs the dispatcher and rebuilds it after a failure when
// restart is enabled. Every dispatcher shares the same registry.
type supervisor struct {
	newDispatcher func() (*gateway.Dispatcher, error)
	endpoint      string
	restart       bool
	delay         time.Duration
	maxAttempts   int // 0 = unlimited
	log           *logging.Logger

	current atomic.Pointer[gateway.Dispatcher]
}

// run blocks until ctx is done (returning nil) or the dispatcher fails
// and may not be restarted.
func (s *supervisor) run(ctx context.Context) error {
	attempts := 0
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if !s.restart {
			return fmt.Errorf("dispatcher stopped: %w", err)
		}
		if s.maxAttempts > 0 && attempts >= s.maxAttempts {
			return fmt.Errorf("dispatcher stopped after %d restarts: %w", attempts, err)
		}
		attempts++
		s.log.Warn("dispatcher stopped, restarting",
			"error", err,
			"attempt", attempts,
			"delay", s.delay,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.delay):
		}
	}
}

func (s *supervisor) runOnce(ctx context.Context) error {
	d, err := s.newDispatcher()
	if err != nil {
		return err
	}
	if err := d.Open(ctx, s.endpoint); err != nil {
		return err
	}
	s.current.Store(d)
	defer func() {
		if d.IsOpen() {
			//nolint:errcheck // the run error is what matters
			d.Close()
		}
	}()

	return d.Run(ctx)
}

// stats returns the counters of the current dispatcher.
func (s *supervisor) stats() gateway.Stats {
	if d := s.current.Load(); d != nil {
		return d.Stats()
	}
	return gateway.Stats{}
}
