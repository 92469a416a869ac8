package presence

import (
	"bytes"
	"errors"
	"testing"
)

func testMessage(s Signal) Message {
	return Message{
		Identity: Identity{
			HostName:   "h1",
			IPAddress:  "10.0.0.7",
			MACAddress: "02:00:5e:10:00:01",
		},
		Signal: s,
	}
}

// ============================================================================
// JSON codec
// ============================================================================

func TestJSONCodec_RoundTripAllSignals(t *testing.T) {
	for _, s := range AllSignals() {
		t.Run(s.String(), func(t *testing.T) {
			want := testMessage(s)

			frame, err := JSON.Encode(want)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := JSON.Decode(frame)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != want {
				t.Errorf("Decode(Encode(m)) = %+v, want %+v", got, want)
			}
		})
	}
}

func TestJSONCodec_EncodeIsDeterministic(t *testing.T) {
	msg := testMessage(SignalOpen)

	first, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	for range 10 {
		again, err := Encode(msg)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("Encode() not deterministic: %s vs %s", first, again)
		}
	}

	want := `{"host_name":"h1","ip_address":"10.0.0.7","mac_address":"02:00:5e:10:00:01","signal":2}`
	if string(first) != want {
		t.Errorf("Encode() = %s, want %s", first, want)
	}
}

func TestJSONCodec_EncodeRejectsUnknownSignal(t *testing.T) {
	_, err := Encode(testMessage(Signal(99)))
	if !errors.Is(err, ErrInvalidSignalCode) {
		t.Errorf("Encode(99) error = %v, want ErrInvalidSignalCode", err)
	}
}

func TestJSONCodec_DecodeErrors(t *testing.T) {
	tests := []struct {
		name        string
		frame       string
		invalidCode bool
	}{
		{"not json", `not json`, false},
		{"empty", ``, false},
		{"array", `[1,2]`, false},
		{"missing host_name", `{"ip_address":"a","mac_address":"b","signal":2}`, false},
		{"missing ip_address", `{"host_name":"h","mac_address":"b","signal":2}`, false},
		{"missing mac_address", `{"host_name":"h","ip_address":"a","signal":2}`, false},
		{"missing signal", `{"host_name":"h","ip_address":"a","mac_address":"b"}`, false},
		{"null signal", `{"host_name":"h","ip_address":"a","mac_address":"b","signal":null}`, false},
		{"empty host_name", `{"host_name":"","ip_address":"a","mac_address":"b","signal":2}`, false},
		{"fractional code", `{"host_name":"h","ip_address":"a","mac_address":"b","signal":2.5}`, false},
		{"code 99", `{"host_name":"h","ip_address":"a","mac_address":"b","signal":99}`, true},
		{"code 42", `{"host_name":"h","ip_address":"a","mac_address":"b","signal":42}`, true},
		{"code -2", `{"host_name":"h","ip_address":"a","mac_address":"b","signal":-2}`, true},
		{"unknown name", `{"host_name":"h","ip_address":"a","mac_address":"b","signal":"SHUTDOWN"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.frame))
			if !errors.Is(err, ErrMalformedFrame) {
				t.Fatalf("Decode() error = %v, want ErrMalformedFrame", err)
			}
			if got := errors.Is(err, ErrInvalidSignalCode); got != tt.invalidCode {
				t.Errorf("errors.Is(err, ErrInvalidSignalCode) = %v, want %v (err = %v)", got, tt.invalidCode, err)
			}
		})
	}
}

func TestJSONCodec_DecodeAcceptsSignalName(t *testing.T) {
	frame := `{"host_name":"h1","ip_address":"10.0.0.7","mac_address":"02:00:5e:10:00:01","signal":"restart"}`
	got, err := Decode([]byte(frame))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Signal != SignalRestart {
		t.Errorf("Signal = %v, want RESTART", got.Signal)
	}
}

func TestJSONCodec_DecodeIgnoresUnknownFields(t *testing.T) {
	frame := `{"host_name":"h1","ip_address":"","mac_address":"","signal":1,"vlan":12}`
	got, err := Decode([]byte(frame))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Identity.HostName != "h1" || got.Signal != SignalHello {
		t.Errorf("Decode() = %+v", got)
	}
}

// ============================================================================
// Envelope codec
// ============================================================================

func TestEnvelopeCodec_RoundTripAllSignals(t *testing.T) {
	for _, s := range AllSignals() {
		want := testMessage(s)
		frame, err := Envelope.Encode(want)
		if err != nil {
			t.Fatalf("Encode(%v) error = %v", s, err)
		}
		got, err := Envelope.Decode(frame)
		if err != nil {
			t.Fatalf("Decode(%v) error = %v", s, err)
		}
		if got != want {
			t.Errorf("Decode(Encode(%v)) = %+v, want %+v", s, got, want)
		}
	}
}

func TestEnvelopeCodec_EncodeUsesSignalName(t *testing.T) {
	frame, err := Envelope.Encode(testMessage(SignalOpen))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := `{"device":{"hostname":"h1","ip":"10.0.0.7","mac":"02:00:5e:10:00:01","is_dhcp":false,"vlan":0},"signal":"OPEN"}`
	if string(frame) != want {
		t.Errorf("Encode() = %s, want %s", frame, want)
	}
}

func TestEnvelopeCodec_DecodeVariants(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Signal
	}{
		{
			name:  "named signal with device fields",
			frame: `{"device":{"ip":"10.0.0.7","is_dhcp":true,"mac":"m","vlan":3,"hostname":"h1"},"signal":"OPEN"}`,
			want:  SignalOpen,
		},
		{
			name:  "numeric signal",
			frame: `{"device":{"ip":"10.0.0.7","mac":"m","hostname":"h1"},"signal":0}`,
			want:  SignalClose,
		},
		{
			name:  "lower case name",
			frame: `{"device":{"ip":"10.0.0.7","mac":"m","hostname":"h1"},"signal":"hello"}`,
			want:  SignalHello,
		},
		{
			name:  "flat identity keys",
			frame: `{"device":{"ip_address":"10.0.0.7","mac_address":"m","host_name":"h1"},"signal":"DHCP_IP"}`,
			want:  SignalDHCPIP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Envelope.Decode([]byte(tt.frame))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.Signal != tt.want {
				t.Errorf("Signal = %v, want %v", got.Signal, tt.want)
			}
			if got.Identity.HostName != "h1" || got.Identity.IPAddress != "10.0.0.7" {
				t.Errorf("Identity = %+v", got.Identity)
			}
		})
	}
}

func TestEnvelopeCodec_DecodeErrors(t *testing.T) {
	tests := []struct {
		name        string
		frame       string
		invalidCode bool
	}{
		{"no device", `{"signal":"OPEN"}`, false},
		{"no hostname", `{"device":{"ip":"a","mac":"b"},"signal":"OPEN"}`, false},
		{"no signal", `{"device":{"ip":"a","mac":"b","hostname":"h"}}`, false},
		{"unknown name", `{"device":{"ip":"a","mac":"b","hostname":"h"},"signal":"REBOOT"}`, true},
		{"unknown code", `{"device":{"ip":"a","mac":"b","hostname":"h"},"signal":42}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Envelope.Decode([]byte(tt.frame))
			if !errors.Is(err, ErrMalformedFrame) {
				t.Fatalf("Decode() error = %v, want ErrMalformedFrame", err)
			}
			if got := errors.Is(err, ErrInvalidSignalCode); got != tt.invalidCode {
				t.Errorf("errors.Is(err, ErrInvalidSignalCode) = %v, want %v", got, tt.invalidCode)
			}
		})
	}
}
