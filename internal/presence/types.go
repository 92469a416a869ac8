package presence

import (
	"context"
	"time"
)

// Identity identifies a device on the network.
//
// HostName is the registry key and must be unique among open devices.
type Identity struct {
	HostName   string `json:"host_name"`
	IPAddress  string `json:"ip_address"`
	MACAddress string `json:"mac_address"`
}

// String returns a short human-readable form for logs.
func (id Identity) String() string {
	return id.HostName + " (" + id.IPAddress + ", " + id.MACAddress + ")"
}

// Message is the unit exchanged over the wire.
type Message struct {
	Identity Identity
	Signal   Signal
}

// View is the registry's record of an open device.
type View struct {
	Identity   Identity  `json:"identity"`
	LastSignal Signal    `json:"last_signal"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
}

// NewView creates the view recorded on a device's first OPEN.
func NewView(msg Message, at time.Time) View {
	return View{
		Identity:   msg.Identity,
		LastSignal: msg.Signal,
		FirstSeen:  at,
		LastSeen:   at,
	}
}

// SignalReceiver is the gateway side of the protocol: it binds an endpoint
// and consumes messages from every device connected to it.
type SignalReceiver interface {
	Open(ctx context.Context, endpoint string) error
	Run(ctx context.Context) error
	Close() error
}

// SignalSender is the device side of the protocol: it connects to a gateway
// and emits signals for one fixed identity.
type SignalSender interface {
	Open(ctx context.Context, endpoint string) error
	Signal(ctx context.Context, s Signal) error
	Close(ctx context.Context) error
}
