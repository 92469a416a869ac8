package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Signal", topics.Signal(), "graylogic/presence/signal"},
		{"DeviceEvent", topics.DeviceEvent("dev-1a2b3c4d"), "graylogic/presence/device/dev-1a2b3c4d/event"},
		{"AllDeviceEvents", topics.AllDeviceEvents(), "graylogic/presence/device/+/event"},
		{"SystemStatus", topics.SystemStatus(), "graylogic/presence/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestDeviceEvent_SanitisesHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"a/b", "graylogic/presence/device/a_b/event"},
		{"+", "graylogic/presence/device/_/event"},
		{"#", "graylogic/presence/device/_/event"},
		{"", "graylogic/presence/device/_/event"},
	}

	for _, tt := range tests {
		if got := (Topics{}).DeviceEvent(tt.host); got != tt.want {
			t.Errorf("DeviceEvent(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}
