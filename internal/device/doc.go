// Package device implements the sender side of the presence protocol.
//
// A Session owns one connection to a gateway for one fixed identity.
// Signal and Close pass through a single-slot gate, so concurrent callers
// on the same session never interleave frames and the gateway sees them
// in the order the gate admitted them. A Session runs no goroutines.
//
// Fleet drives many sessions through a short lifecycle script, the way a
// simulated site announces itself:
//
//	open → OPEN → hold → RESTART → hold → close
package device
