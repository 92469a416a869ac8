// Package notify fans applied signals out to MQTT and InfluxDB.
//
// Both sinks are gateway hooks. They run on the dispatch goroutine and
// never block it for long: MQTT publishes are bounded by the client's
// publish timeout and InfluxDB writes are queued.
package notify
