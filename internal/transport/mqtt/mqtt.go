// Package mqtt carries signal frames over an MQTT broker.
//
// Devices publish frames to a shared topic and the gateway subscribes to it.
// The broker takes the place of a bound socket, so the endpoint names a
// topic rather than an address: "mqtt://graylogic/presence/signal". Any
// other endpoint form falls back to the configured topic.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	infmqtt "github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-presence/internal/transport"
)

// Scheme is the endpoint prefix naming a topic.
const Scheme = "mqtt://"

// Broker is the subset of the MQTT client the transport needs.
// *infmqtt.Client satisfies it.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler infmqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the subset of slog.Logger used by the listener.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// TopicFor returns the topic named by endpoint, or fallback (or the default
// signal topic when fallback is empty).
func TopicFor(endpoint, fallback string) string {
	if topic, ok := strings.CutPrefix(endpoint, Scheme); ok && topic != "" {
		return topic
	}
	if fallback != "" {
		return fallback
	}
	return infmqtt.Topics{}.Signal()
}

// Listener subscribes to the signal topic.
type Listener struct {
	Broker        Broker
	Topic         string
	QoS           byte
	HighWaterMark int
	Logger        Logger
}

// Listen subscribes to the endpoint's topic and returns a Receiver fed by
// the subscription. Close unsubscribes.
func (l *Listener) Listen(ctx context.Context, endpoint string) (transport.Receiver, error) {
	if l.Broker == nil {
		return nil, fmt.Errorf("mqtt transport: %w", infmqtt.ErrNotConnected)
	}
	logger := l.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	topic := TopicFor(endpoint, l.Topic)
	q := transport.NewQueue(l.HighWaterMark)

	// Handlers run on paho's delivery goroutine; a full queue applies
	// backpressure there until the dispatcher catches up or closes.
	handler := func(_ string, payload []byte) error {
		frame := make([]byte, len(payload))
		copy(frame, payload)
		if err := q.Push(context.WithoutCancel(ctx), frame); err != nil {
			logger.Warn("dropping signal frame", "topic", topic, "error", err)
			return err
		}
		return nil
	}

	if err := l.Broker.Subscribe(topic, l.QoS, handler); err != nil {
		return nil, fmt.Errorf("mqtt transport: subscribe %s: %w", topic, err)
	}

	return transport.NewQueueReceiver(q, Scheme+topic, func() error {
		return l.Broker.Unsubscribe(topic)
	}), nil
}

// Dialer publishes to the signal topic.
type Dialer struct {
	Broker Broker
	Topic  string
	QoS    byte
}

// Dial returns a Sender publishing to the endpoint's topic.
func (d *Dialer) Dial(_ context.Context, endpoint string) (transport.Sender, error) {
	if d.Broker == nil {
		return nil, fmt.Errorf("mqtt transport: %w", infmqtt.ErrNotConnected)
	}
	return &sender{broker: d.Broker, topic: TopicFor(endpoint, d.Topic), qos: d.QoS}, nil
}

type sender struct {
	broker Broker
	topic  string
	qos    byte

	mu     sync.Mutex
	closed bool
}

func (s *sender) Send(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return transport.ErrClosed
	}
	return s.broker.Publish(s.topic, frame, s.qos, false)
}

// Close marks the sender closed. The broker connection is shared and stays up.
func (s *sender) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
