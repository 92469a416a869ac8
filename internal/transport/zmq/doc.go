// Package zmq implements the presence transports over ZeroMQ using the
// pure-Go github.com/go-zeromq/zmq4 sockets.
//
// PUSH/PULL is the primary pattern: every device holds a PUSH socket
// connected to the gateway's single PULL socket. REQ/REP is the alternate
// pattern, where each frame is acknowledged with "ok" once the gateway has
// queued it.
//
// Received frames are pumped by one goroutine per bound socket into a
// transport.Queue sized to the configured high-water mark.
package zmq
