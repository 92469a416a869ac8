package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/gateway"
	infmqtt "github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
)

// Publisher is the subset of the MQTT client used for notifications.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// DeviceEvent is the JSON payload published for each applied signal.
type DeviceEvent struct {
	HostName   string    `json:"host_name"`
	IPAddress  string    `json:"ip_address"`
	MACAddress string    `json:"mac_address"`
	Signal     string    `json:"signal"`
	Code       int       `json:"code"`
	Effect     string    `json:"effect"`
	Present    *bool     `json:"present,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewDeviceEvent converts a dispatcher event to its published form.
func NewDeviceEvent(ev gateway.Event) DeviceEvent {
	// Informational signals leave present unset; they never decide membership.
	var present *bool
	switch ev.Effect {
	case gateway.EffectRegistered, gateway.EffectAlreadyRegistered:
		present = ptr(true)
	case gateway.EffectRemoved, gateway.EffectNotRegistered:
		present = ptr(false)
	}

	id := ev.Message.Identity
	return DeviceEvent{
		HostName:   id.HostName,
		IPAddress:  id.IPAddress,
		MACAddress: id.MACAddress,
		Signal:     ev.Message.Signal.String(),
		Code:       ev.Message.Signal.Code(),
		Effect:     string(ev.Effect),
		Present:    present,
		Timestamp:  ev.ReceivedAt.UTC(),
	}
}

func ptr[T any](v T) *T { return &v }

// MQTT publishes each applied signal to graylogic/presence/device/{host}/event.
type MQTT struct {
	Publisher Publisher
	QoS       byte
}

var _ gateway.Hook = (*MQTT)(nil)

// OnSignal implements gateway.Hook.
func (n *MQTT) OnSignal(_ context.Context, ev gateway.Event) error {
	payload, err := json.Marshal(NewDeviceEvent(ev))
	if err != nil {
		return fmt.Errorf("marshalling device event: %w", err)
	}
	topic := infmqtt.Topics{}.DeviceEvent(ev.Message.Identity.HostName)
	return n.Publisher.Publish(topic, payload, n.QoS, false)
}

// SignalWriter is the subset of the InfluxDB client used for telemetry.
type SignalWriter interface {
	WriteSignal(host, signal, effect string, code int, at time.Time)
}

// Telemetry records each applied signal as an InfluxDB point.
type Telemetry struct {
	Writer SignalWriter
}

var _ gateway.Hook = (*Telemetry)(nil)

// OnSignal implements gateway.Hook.
func (t *Telemetry) OnSignal(_ context.Context, ev gateway.Event) error {
	t.Writer.WriteSignal(
		ev.Message.Identity.HostName,
		ev.Message.Signal.String(),
		string(ev.Effect),
		ev.Message.Signal.Code(),
		ev.ReceivedAt,
	)
	return nil
}
