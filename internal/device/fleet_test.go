package device

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/gateway"
	"github.com/nerrad567/gray-logic-presence/internal/presence"
	"github.com/nerrad567/gray-logic-presence/internal/transport/memory"
)

func TestFleet_RunsScriptAgainstGateway(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	network := memory.NewNetwork(1)

	var mu sync.Mutex
	effects := make(map[gateway.Effect]int)
	d, err := gateway.New(gateway.Deps{
		Listener: network,
		Hooks: []gateway.Hook{gateway.HookFunc(func(_ context.Context, ev gateway.Event) error {
			mu.Lock()
			effects[ev.Effect]++
			mu.Unlock()
			return nil
		})},
	})
	if err != nil {
		t.Fatalf("gateway.New() error = %v", err)
	}
	if err := d.Open(ctx, ""); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer d.Close()
	go func() { _ = d.Run(ctx) }()

	fleet := &Fleet{
		Dialer: network,
		Size:   10,
		Script: Script{HoldOpen: 5 * time.Millisecond, HoldRestart: 5 * time.Millisecond},
	}
	if err := fleet.Run(ctx); err != nil {
		t.Fatalf("Fleet.Run() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.Stats().Applied < 30 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if effects[gateway.EffectRegistered] != 10 || effects[gateway.EffectRemoved] != 10 || effects[gateway.EffectInformational] != 10 {
		t.Errorf("effects = %v, want 10 of each", effects)
	}
	if d.Registry().Len() != 0 {
		t.Errorf("registry has %d devices after fleet closed", d.Registry().Len())
	}
}

func TestFleet_UsesGivenIdentities(t *testing.T) {
	dialer := &recordingDialer{}
	fleet := &Fleet{
		Dialer:     dialer,
		Identities: []presence.Identity{testIdentity},
		Size:       1,
	}
	if err := fleet.Run(context.Background()); err != nil {
		t.Fatalf("Fleet.Run() error = %v", err)
	}

	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	if len(dialer.frames) != 3 {
		t.Fatalf("%d frames, want 3", len(dialer.frames))
	}
	msg, err := presence.Decode(dialer.frames[0])
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if msg.Identity != testIdentity || msg.Signal != presence.SignalOpen {
		t.Errorf("first frame = %+v", msg)
	}
}

func TestFleet_DialFailureStopsRun(t *testing.T) {
	fleet := &Fleet{Dialer: memory.NewNetwork(1), Size: 3, Endpoint: "tcp://127.0.0.1:5999"}
	err := fleet.Run(context.Background())
	if !errors.Is(err, presence.ErrTransportFailure) || !errors.Is(err, memory.ErrConnectionRefused) {
		t.Errorf("Fleet.Run() error = %v", err)
	}
}

func TestScript_CancelStillCloses(t *testing.T) {
	dialer := &recordingDialer{}
	s := NewSession(testIdentity, dialer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Script{HoldOpen: time.Minute}.Run(ctx, s, "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if s.IsOpen() {
		t.Error("session still open")
	}

	got := dialer.signals(t)
	if len(got) != 2 || got[0] != presence.SignalOpen || got[1] != presence.SignalClose {
		t.Errorf("sent %v, want [OPEN CLOSE]", got)
	}
}
