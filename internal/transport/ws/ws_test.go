package ws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/transport"
)

func TestWebSocket_DeliversFrames(t *testing.T) {
	ctx := context.Background()

	rx, err := Listener{HighWaterMark: 8}.Listen(ctx, "tcp://127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer rx.Close()

	tx, err := Dialer{}.Dial(ctx, "ws://"+rx.Addr()+"/ws/")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer tx.Close()

	frames := []string{
		`{"device":{"hostname":"h1","ip":"10.0.0.1","mac":"m"},"signal":"OPEN"}`,
		`{"device":{"hostname":"h1","ip":"10.0.0.1","mac":"m"},"signal":"CLOSE"}`,
	}
	for _, f := range frames {
		if err := tx.Send(ctx, []byte(f)); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	for _, want := range frames {
		rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		got, err := rx.Receive(rctx)
		cancel()
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if string(got) != want {
			t.Errorf("Receive() = %s, want %s", got, want)
		}
	}
}

func TestWebSocket_DefaultPathFromTCPEndpoint(t *testing.T) {
	ctx := context.Background()

	rx, err := Listener{}.Listen(ctx, "tcp://127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer rx.Close()

	tx, err := Dialer{}.Dial(ctx, "tcp://"+rx.Addr())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	tx.Close()
}

func TestWebSocket_CloseUnblocksReceive(t *testing.T) {
	ctx := context.Background()

	rx, err := Listener{}.Listen(ctx, "tcp://127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	// A connected device must not keep the listener from closing.
	tx, err := Dialer{}.Dial(ctx, "ws://"+rx.Addr()+"/ws/")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer tx.Close()

	done := make(chan error, 1)
	go func() {
		_, err := rx.Receive(ctx)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	rx.Close()

	select {
	case err := <-done:
		if !errors.Is(err, transport.ErrClosed) {
			t.Errorf("Receive() error = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Receive() did not return after Close()")
	}
}

func TestWebSocket_DialWrongPath(t *testing.T) {
	ctx := context.Background()

	rx, err := Listener{}.Listen(ctx, "tcp://127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer rx.Close()

	if _, err := (Dialer{}).Dial(ctx, "ws://"+rx.Addr()+"/other/"); err == nil {
		t.Error("Dial() to unknown path succeeded")
	}
}
