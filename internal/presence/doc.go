// Package presence defines the device-presence protocol shared by the gateway
// and device sides of Gray Logic Presence.
//
// Devices announce lifecycle events (signals) to a single gateway, which keeps
// a live registry of connected devices. This package holds the protocol model
// and its wire encoding; it has no transport or registry state of its own.
//
// # Key Types
//
//   - Signal: Closed enumeration of lifecycle events with fixed wire codes
//   - Identity: Host name, IPv4 address and MAC of a device
//   - Message: The unit exchanged over the wire (identity + signal)
//   - View: The registry's stored projection of a device
//   - Codec: Encodes and decodes a Message to and from a frame
//
// # Wire Format
//
// The primary codec produces a flat JSON object with the signal as its
// integer code:
//
//	{"host_name":"dev-1a2b3c4d","ip_address":"10.0.4.7","mac_address":"02:1a:2b:3c:4d:5e","signal":2}
//
// The envelope codec, used by the WebSocket and MQTT transports, nests the
// identity under "device" and carries the signal by name:
//
//	{"device":{"hostname":"dev-1a2b3c4d","ip":"10.0.4.7","mac":"02:1a:2b:3c:4d:5e"},"signal":"OPEN"}
//
// Both decoders accept the signal as either a code or a name.
//
// # Roles
//
// SignalReceiver and SignalSender name the two sides of the protocol. The
// gateway dispatcher implements SignalReceiver and a device session
// implements SignalSender.
package presence
