// Package gateway implements the collector side of the presence protocol.
//
// A Dispatcher binds one listening endpoint and runs a single consumer
// loop: receive a frame, decode it, apply the signal to the registry, then
// notify hooks. The dispatch table is a closed switch:
//
//	OPEN     register the host if absent
//	CLOSE    remove the host if present
//	RESTART, HELLO, RECONNECT, DHCP_IP, RECONNECT_NETWORK_INTERFACE
//	         informational; refresh last_signal of a present host
//	other    ErrUnhandledSignal
//
// Frames carrying an unknown signal end the loop under the default
// "terminate" policy. With the "skip" policy they are logged, counted and
// the loop continues. Structurally malformed frames always end the loop.
//
// A Dispatcher runs once. Restart means constructing a new one.
package gateway
