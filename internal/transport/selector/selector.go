// Package selector builds the configured transport and its matching codec.
package selector

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-presence/internal/presence"
	"github.com/nerrad567/gray-logic-presence/internal/transport"
	tmqtt "github.com/nerrad567/gray-logic-presence/internal/transport/mqtt"
	"github.com/nerrad567/gray-logic-presence/internal/transport/ws"
	"github.com/nerrad567/gray-logic-presence/internal/transport/zmq"
)

// ErrUnknownTransport is returned for an unrecognised transport kind.
var ErrUnknownTransport = errors.New("selector: unknown transport")

// ErrBrokerRequired is returned when the mqtt transport is selected without a broker.
var ErrBrokerRequired = errors.New("selector: mqtt transport requires a broker connection")

// Deps holds optional collaborators for the transports.
type Deps struct {
	// Broker is required for the mqtt transport.
	Broker tmqtt.Broker
	// QoS is the MQTT QoS for signal frames.
	QoS    byte
	Logger *slog.Logger
}

// NewListener returns the gateway side of the configured transport.
func NewListener(cfg config.TransportConfig, deps Deps) (transport.Listener, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	switch cfg.Kind {
	case config.TransportPushPull, "":
		return zmq.PullListener{HighWaterMark: cfg.HighWaterMark, Logger: logger}, nil
	case config.TransportReqRep:
		return zmq.RepListener{HighWaterMark: cfg.HighWaterMark, Logger: logger}, nil
	case config.TransportWebSocket:
		return ws.Listener{
			Path:           cfg.WebSocket.Path,
			HighWaterMark:  cfg.HighWaterMark,
			MaxMessageSize: int64(cfg.WebSocket.MaxMessageSize),
			Logger:         logger,
		}, nil
	case config.TransportMQTT:
		if deps.Broker == nil {
			return nil, ErrBrokerRequired
		}
		return &tmqtt.Listener{
			Broker:        deps.Broker,
			Topic:         cfg.MQTT.Topic,
			QoS:           deps.QoS,
			HighWaterMark: cfg.HighWaterMark,
			Logger:        logger,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Kind)
	}
}

// NewDialer returns the device side of the configured transport.
func NewDialer(cfg config.TransportConfig, deps Deps) (transport.Dialer, error) {
	switch cfg.Kind {
	case config.TransportPushPull, "":
		return zmq.PushDialer{}, nil
	case config.TransportReqRep:
		return zmq.ReqDialer{}, nil
	case config.TransportWebSocket:
		return ws.Dialer{Path: cfg.WebSocket.Path}, nil
	case config.TransportMQTT:
		if deps.Broker == nil {
			return nil, ErrBrokerRequired
		}
		return &tmqtt.Dialer{Broker: deps.Broker, Topic: cfg.MQTT.Topic, QoS: deps.QoS}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Kind)
	}
}

// CodecFor returns the codec carried by a transport kind.
//
// The socket transports use the flat JSON frame; websocket and mqtt carry
// the device envelope.
func CodecFor(kind string) presence.Codec {
	switch kind {
	case config.TransportWebSocket, config.TransportMQTT:
		return presence.Envelope
	default:
		return presence.JSON
	}
}
