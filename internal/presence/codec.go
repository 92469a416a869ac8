package presence

import (
	"encoding/json"
	"fmt"
)

// Codec converts between a Message and a single wire frame.
type Codec interface {
	Encode(msg Message) ([]byte, error)
	Decode(frame []byte) (Message, error)
}

// Codecs available to transports.
var (
	// JSON is the primary flat-object codec.
	JSON Codec = JSONCodec{}

	// Envelope is the alternate codec with a nested device object and a named signal.
	Envelope Codec = EnvelopeCodec{}
)

// JSONCodec encodes messages as a flat JSON object with an integer signal code.
type JSONCodec struct{}

// jsonFrame fixes the field order of an encoded frame.
type jsonFrame struct {
	HostName   string `json:"host_name"`
	IPAddress  string `json:"ip_address"`
	MACAddress string `json:"mac_address"`
	Signal     int    `json:"signal"`
}

// jsonInbound uses pointers so absent keys can be told apart from empty ones.
type jsonInbound struct {
	HostName   *string         `json:"host_name"`
	IPAddress  *string         `json:"ip_address"`
	MACAddress *string         `json:"mac_address"`
	Signal     json.RawMessage `json:"signal"`
}

// Encode produces the frame for msg.
//
// Returns ErrInvalidSignalCode if msg.Signal is not a defined variant.
func (JSONCodec) Encode(msg Message) ([]byte, error) {
	if !msg.Signal.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSignalCode, int(msg.Signal))
	}
	return json.Marshal(jsonFrame{
		HostName:   msg.Identity.HostName,
		IPAddress:  msg.Identity.IPAddress,
		MACAddress: msg.Identity.MACAddress,
		Signal:     msg.Signal.Code(),
	})
}

// Decode parses a frame produced by Encode.
func (JSONCodec) Decode(frame []byte) (Message, error) {
	var in jsonInbound
	if err := json.Unmarshal(frame, &in); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	identity, err := requireIdentity(in.HostName, in.IPAddress, in.MACAddress)
	if err != nil {
		return Message{}, err
	}

	sig, err := parseSignalJSON(in.Signal)
	if err != nil {
		return Message{}, err
	}

	return Message{Identity: identity, Signal: sig}, nil
}

// requireIdentity checks that all identity keys were present and the host name is usable.
func requireIdentity(host, ip, mac *string) (Identity, error) {
	switch {
	case host == nil:
		return Identity{}, fmt.Errorf("%w: host_name is missing", ErrMalformedFrame)
	case ip == nil:
		return Identity{}, fmt.Errorf("%w: ip_address is missing", ErrMalformedFrame)
	case mac == nil:
		return Identity{}, fmt.Errorf("%w: mac_address is missing", ErrMalformedFrame)
	case *host == "":
		return Identity{}, fmt.Errorf("%w: host_name is empty", ErrMalformedFrame)
	}
	return Identity{HostName: *host, IPAddress: *ip, MACAddress: *mac}, nil
}

// Encode encodes msg with the primary codec.
func Encode(msg Message) ([]byte, error) {
	return JSON.Encode(msg)
}

// Decode decodes frame with the primary codec.
func Decode(frame []byte) (Message, error) {
	return JSON.Decode(frame)
}
