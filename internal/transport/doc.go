// Package transport defines the frame transport capability consumed by the
// gateway dispatcher and device sessions.
//
// A transport moves opaque frames. The gateway binds a Listener and reads
// frames from the resulting Receiver; a device dials through a Dialer and
// writes frames to the resulting Sender. Encoding is the caller's concern.
//
// # Implementations
//
//   - zmq: ZeroMQ PUSH/PULL (primary) and REQ/REP
//   - ws: WebSocket with the envelope codec
//   - mqtt: frames published on a shared MQTT topic
//   - memory: in-process, for tests and single-process simulation
//
// # Flow Control
//
// Transports that receive asynchronously hand frames to the dispatcher
// through a Queue whose capacity is the high-water mark. A full queue blocks
// the producer; there is no other flow control.
//
// # Endpoints
//
// Endpoints are written scheme://host:port. A host of "*" means all
// interfaces:
//
//	tcp://*:5555          bind all interfaces (gateway default)
//	tcp://127.0.0.1:5555  connect locally (device default)
package transport
