package presence

import (
	"encoding/json"
	"fmt"
)

// EnvelopeCodec encodes messages as a device envelope with a named signal.
//
// This is the framing spoken by WebSocket devices. On decode the device
// object may use either the short keys (hostname, ip, mac) or the flat codec
// keys (host_name, ip_address, mac_address), and the signal may be a name or
// a code. The is_dhcp and vlan fields are accepted and ignored.
type EnvelopeCodec struct{}

type envelopeDevice struct {
	HostName string `json:"hostname"`
	IP       string `json:"ip"`
	MAC      string `json:"mac"`
	IsDHCP   bool   `json:"is_dhcp"`
	VLAN     int    `json:"vlan"`
}

type envelopeFrame struct {
	Device envelopeDevice `json:"device"`
	Signal string         `json:"signal"`
}

type envelopeInboundDevice struct {
	HostName   *string `json:"hostname"`
	IP         *string `json:"ip"`
	MAC        *string `json:"mac"`
	HostNameV2 *string `json:"host_name"`
	IPV2       *string `json:"ip_address"`
	MACV2      *string `json:"mac_address"`
}

type envelopeInbound struct {
	Device *envelopeInboundDevice `json:"device"`
	Signal json.RawMessage        `json:"signal"`
}

// Encode produces the envelope for msg.
func (EnvelopeCodec) Encode(msg Message) ([]byte, error) {
	if !msg.Signal.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSignalCode, int(msg.Signal))
	}
	return json.Marshal(envelopeFrame{
		Device: envelopeDevice{
			HostName: msg.Identity.HostName,
			IP:       msg.Identity.IPAddress,
			MAC:      msg.Identity.MACAddress,
		},
		Signal: msg.Signal.String(),
	})
}

// Decode parses an envelope frame.
func (EnvelopeCodec) Decode(frame []byte) (Message, error) {
	var in envelopeInbound
	if err := json.Unmarshal(frame, &in); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if in.Device == nil {
		return Message{}, fmt.Errorf("%w: device is missing", ErrMalformedFrame)
	}

	d := in.Device
	identity, err := requireIdentity(
		firstNonNil(d.HostName, d.HostNameV2),
		firstNonNil(d.IP, d.IPV2),
		firstNonNil(d.MAC, d.MACV2),
	)
	if err != nil {
		return Message{}, err
	}

	sig, err := parseSignalJSON(in.Signal)
	if err != nil {
		return Message{}, err
	}

	return Message{Identity: identity, Signal: sig}, nil
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
