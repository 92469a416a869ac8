package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/gateway"
	"github.com/nerrad567/gray-logic-presence/internal/presence"
)

type published struct {
	topic   string
	payload []byte
	qos     byte
}

type fakePublisher struct {
	got []published
	err error
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, _ bool) error {
	p.got = append(p.got, published{topic, payload, qos})
	return p.err
}

type fakeWriter struct {
	host, signal, effect string
	code                 int
	at                   time.Time
	calls                int
}

func (w *fakeWriter) WriteSignal(host, signal, effect string, code int, at time.Time) {
	w.host, w.signal, w.effect, w.code, w.at = host, signal, effect, code, at
	w.calls++
}

func testEvent(s presence.Signal, effect gateway.Effect) gateway.Event {
	return gateway.Event{
		Message: presence.Message{
			Identity: presence.Identity{HostName: "dev-1a2b3c4d", IPAddress: "10.0.0.9", MACAddress: "02:00:00:00:00:09"},
			Signal:   s,
		},
		Effect:     effect,
		ReceivedAt: time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC),
	}
}

func TestNewDeviceEvent_Presence(t *testing.T) {
	tests := []struct {
		effect  gateway.Effect
		present string
	}{
		{gateway.EffectRegistered, "true"},
		{gateway.EffectAlreadyRegistered, "true"},
		{gateway.EffectRemoved, "false"},
		{gateway.EffectNotRegistered, "false"},
		{gateway.EffectInformational, "unset"},
	}

	for _, tt := range tests {
		t.Run(string(tt.effect), func(t *testing.T) {
			ev := NewDeviceEvent(testEvent(presence.SignalOpen, tt.effect))
			got := "unset"
			if ev.Present != nil {
				got = strconv.FormatBool(*ev.Present)
			}
			if got != tt.present {
				t.Errorf("Present = %s, want %s", got, tt.present)
			}
		})
	}
}

func TestMQTT_PublishesDeviceEvent(t *testing.T) {
	pub := &fakePublisher{}
	n := &MQTT{Publisher: pub, QoS: 1}

	if err := n.OnSignal(context.Background(), testEvent(presence.SignalOpen, gateway.EffectRegistered)); err != nil {
		t.Fatalf("OnSignal() error = %v", err)
	}
	if len(pub.got) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.got))
	}

	msg := pub.got[0]
	if msg.topic != "graylogic/presence/device/dev-1a2b3c4d/event" {
		t.Errorf("topic = %q", msg.topic)
	}
	if msg.qos != 1 {
		t.Errorf("qos = %d", msg.qos)
	}

	var ev DeviceEvent
	if err := json.Unmarshal(msg.payload, &ev); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if ev.Signal != "OPEN" || ev.Code != 2 || ev.Effect != "registered" || ev.Present == nil || !*ev.Present {
		t.Errorf("event = %+v", ev)
	}
}

func TestMQTT_PublishError(t *testing.T) {
	cause := errors.New("broker down")
	n := &MQTT{Publisher: &fakePublisher{err: cause}}
	if err := n.OnSignal(context.Background(), testEvent(presence.SignalClose, gateway.EffectRemoved)); !errors.Is(err, cause) {
		t.Errorf("OnSignal() error = %v, want %v", err, cause)
	}
}

func TestTelemetry_WritesSignal(t *testing.T) {
	w := &fakeWriter{}
	tel := &Telemetry{Writer: w}

	ev := testEvent(presence.SignalRestart, gateway.EffectInformational)
	if err := tel.OnSignal(context.Background(), ev); err != nil {
		t.Fatalf("OnSignal() error = %v", err)
	}
	if w.calls != 1 {
		t.Fatalf("calls = %d", w.calls)
	}
	if w.host != "dev-1a2b3c4d" || w.signal != "RESTART" || w.effect != "informational" || w.code != 3 {
		t.Errorf("written = %+v", w)
	}
	if !w.at.Equal(ev.ReceivedAt) {
		t.Errorf("at = %v", w.at)
	}
}
