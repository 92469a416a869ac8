package presence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Signal is a lifecycle event a device reports to the gateway.
//
// The integer values are part of the wire contract and must never change.
type Signal int

// Signal values.
const (
	SignalBegin                     Signal = -1
	SignalClose                     Signal = 0
	SignalHello                     Signal = 1
	SignalOpen                      Signal = 2
	SignalRestart                   Signal = 3
	SignalReconnect                 Signal = 4
	SignalDHCPIP                    Signal = 5
	SignalReconnectNetworkInterface Signal = 6
)

var signalNames = map[Signal]string{
	SignalBegin:                     "BEGIN",
	SignalClose:                     "CLOSE",
	SignalHello:                     "HELLO",
	SignalOpen:                      "OPEN",
	SignalRestart:                   "RESTART",
	SignalReconnect:                 "RECONNECT",
	SignalDHCPIP:                    "DHCP_IP",
	SignalReconnectNetworkInterface: "RECONNECT_NETWORK_INTERFACE",
}

// AllSignals returns every Signal in code order.
func AllSignals() []Signal {
	return []Signal{
		SignalBegin,
		SignalClose,
		SignalHello,
		SignalOpen,
		SignalRestart,
		SignalReconnect,
		SignalDHCPIP,
		SignalReconnectNetworkInterface,
	}
}

// Code returns the wire code of the signal.
func (s Signal) Code() int {
	return int(s)
}

// Valid reports whether s is one of the defined variants.
func (s Signal) Valid() bool {
	_, ok := signalNames[s]
	return ok
}

// String returns the upper-case signal name, or SIGNAL(<code>) for unknown values.
func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SIGNAL(%d)", int(s))
}

// SignalFromCode returns the Signal for a wire code.
//
// Returns ErrInvalidSignalCode if the code has no matching variant.
func SignalFromCode(code int) (Signal, error) {
	s := Signal(code)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSignalCode, code)
	}
	return s, nil
}

// ParseSignal returns the Signal with the given name. Matching is case-insensitive.
//
// Returns ErrInvalidSignalCode if no variant has that name.
func ParseSignal(name string) (Signal, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for s, n := range signalNames {
		if n == upper {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSignalCode, name)
}

// MarshalJSON encodes the signal as its integer code.
func (s Signal) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSignalCode, int(s))
	}
	return []byte(fmt.Sprintf("%d", int(s))), nil
}

// UnmarshalJSON accepts either an integer code or a signal name.
func (s *Signal) UnmarshalJSON(data []byte) error {
	parsed, err := parseSignalJSON(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// parseSignalJSON decodes a raw JSON value holding a code or a name.
func parseSignalJSON(raw json.RawMessage) (Signal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, fmt.Errorf("%w: signal is missing", ErrMalformedFrame)
	}

	if trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return 0, fmt.Errorf("%w: signal name: %w", ErrMalformedFrame, err)
		}
		sig, err := ParseSignal(name)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
		}
		return sig, nil
	}

	var code int
	if err := json.Unmarshal(trimmed, &code); err != nil {
		return 0, fmt.Errorf("%w: signal code: %w", ErrMalformedFrame, err)
	}
	sig, err := SignalFromCode(code)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	return sig, nil
}
