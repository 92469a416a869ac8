// Package influxdb records presence signals as InfluxDB time series.
//
// It wraps the influxdb-client-go v2 non-blocking write API. Every applied
// signal becomes one point:
//
//	measurement: device_signal
//	tags:        host, signal, effect
//	field:       code (the signal's wire code)
//
// Writes are batched and never block the dispatcher; failures arrive
// through the SetOnError callback.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteSignal("dev-1a2b3c4d", "OPEN", "registered", 2, time.Now())
package influxdb
