// Package memory provides an in-process transport.
//
// A Network behaves like a loopback host: listeners bind a port, dialers
// connect to a bound port, and frames move through the listener's bounded
// queue. Any host in an endpoint is accepted and ignored, so a gateway bound
// at tcp://*:5555 is reachable from tcp://127.0.0.1:5555.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/nerrad567/gray-logic-presence/internal/transport"
)

// firstEphemeralPort is the first port handed out for port 0 binds.
const firstEphemeralPort = 49152

// ErrConnectionRefused is returned when dialing a port nobody is bound to.
var ErrConnectionRefused = errors.New("memory: connection refused")

// ErrAddressInUse is returned when binding a port that is already bound.
var ErrAddressInUse = errors.New("memory: address in use")

// Network is a set of bound in-process endpoints.
//
// The zero value is not usable; create one with NewNetwork.
type Network struct {
	mu       sync.Mutex
	bound    map[int]*transport.Queue
	nextPort int
	hwm      int
}

// NewNetwork creates an empty network whose receivers queue at most hwm frames.
func NewNetwork(hwm int) *Network {
	return &Network{
		bound:    make(map[int]*transport.Queue),
		nextPort: firstEphemeralPort,
		hwm:      hwm,
	}
}

// Listen binds endpoint. Port 0 picks a free port, reported by Addr.
func (n *Network) Listen(_ context.Context, endpoint string) (transport.Receiver, error) {
	ep, err := transport.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	port := ep.Port
	if port == 0 {
		for n.bound[n.nextPort] != nil {
			n.nextPort++
		}
		port = n.nextPort
		n.nextPort++
	}
	if _, ok := n.bound[port]; ok {
		return nil, fmt.Errorf("%w: port %d", ErrAddressInUse, port)
	}

	q := transport.NewQueue(n.hwm)
	n.bound[port] = q

	addr := "127.0.0.1:" + strconv.Itoa(port)
	return transport.NewQueueReceiver(q, addr, func() error {
		n.unbind(port, q)
		return nil
	}), nil
}

// Dial connects to a bound endpoint.
func (n *Network) Dial(_ context.Context, endpoint string) (transport.Sender, error) {
	ep, err := transport.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	q, ok := n.bound[ep.Port]
	n.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: port %d", ErrConnectionRefused, ep.Port)
	}
	return &sender{queue: q}, nil
}

// Bound reports whether a receiver is bound at port.
func (n *Network) Bound(port int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.bound[port]
	return ok
}

func (n *Network) unbind(port int, q *transport.Queue) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bound[port] == q {
		delete(n.bound, port)
	}
}

type sender struct {
	queue  *transport.Queue
	mu     sync.Mutex
	closed bool
}

// Send copies frame into the listener's queue, blocking at its high-water mark.
func (s *sender) Send(ctx context.Context, frame []byte) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return transport.ErrClosed
	}

	buf := make([]byte, len(frame))
	copy(buf, frame)
	return s.queue.Push(ctx, buf)
}

func (s *sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return transport.ErrClosed
	}
	s.closed = true
	return nil
}
