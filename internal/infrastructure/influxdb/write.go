package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// SignalMeasurement is the measurement name for presence signals.
const SignalMeasurement = "device_signal"

// SignalPoint builds the point recorded for one applied signal.
func SignalPoint(host, signal, effect string, code int, at time.Time) *write.Point {
	return write.NewPoint(
		SignalMeasurement,
		map[string]string{
			"host":   host,
			"signal": signal,
			"effect": effect,
		},
		map[string]any{
			"code": code,
		},
		at,
	)
}

// WriteSignal queues one signal point. It is a no-op when disconnected.
//
// Parameters:
//   - host: Device host name (tag)
//   - signal: Signal name, e.g. "OPEN" (tag)
//   - effect: Registry effect, e.g. "registered" (tag)
//   - code: Numeric signal code (field)
//   - at: Time the gateway received the signal
func (c *Client) WriteSignal(host, signal, effect string, code int, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(SignalPoint(host, signal, effect, code, at))
}
