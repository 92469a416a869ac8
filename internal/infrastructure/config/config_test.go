package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/gateway"
	"github.com/nerrad567/gray-logic-presence/internal/transport/memory"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
gateway:
  endpoint: "tcp://*:6000"
  unknown_signal_policy: "skip"
device:
  endpoint: "tcp://10.0.0.5:6000"
  fleet_size: 10
transport:
  kind: "req_rep"
  high_water_mark: 4
database:
  enabled: true
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.Endpoint != "tcp://*:6000" {
		t.Errorf("Gateway.Endpoint = %q, want %q", cfg.Gateway.Endpoint, "tcp://*:6000")
	}
	if cfg.Gateway.UnknownSignalPolicy != gateway.PolicySkip {
		t.Errorf("Gateway.UnknownSignalPolicy = %q, want %q", cfg.Gateway.UnknownSignalPolicy, gateway.PolicySkip)
	}
	if cfg.Device.FleetSize != 10 {
		t.Errorf("Device.FleetSize = %d, want 10", cfg.Device.FleetSize)
	}
	if cfg.Transport.Kind != TransportReqRep || cfg.Transport.HighWaterMark != 4 {
		t.Errorf("Transport = %+v", cfg.Transport)
	}
	if !cfg.Database.Enabled || cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}

	// Unset values keep their defaults.
	if cfg.Device.HoldOpenSeconds != 3 {
		t.Errorf("Device.HoldOpenSeconds = %d, want default 3", cfg.Device.HoldOpenSeconds)
	}
	if cfg.Transport.WebSocket.Path != "/ws/" {
		t.Errorf("Transport.WebSocket.Path = %q, want default /ws/", cfg.Transport.WebSocket.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoadOptional_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PRESENCE_GATEWAY_ENDPOINT", "tcp://*:7000")

	cfg, found, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOptional() error = %v", err)
	}
	if found {
		t.Error("LoadOptional() found = true for a missing file")
	}
	if cfg.Gateway.Endpoint != "tcp://*:7000" {
		t.Errorf("Gateway.Endpoint = %q, env override not applied", cfg.Gateway.Endpoint)
	}
}

func TestLoadOptional_InvalidFileIsAnError(t *testing.T) {
	_, _, err := LoadOptional(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("LoadOptional() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
gateway:
  endpoint: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty gateway.endpoint, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing gateway endpoint",
			mutate:  func(c *Config) { c.Gateway.Endpoint = "" },
			wantErr: "gateway.endpoint",
		},
		{
			name:    "unknown policy",
			mutate:  func(c *Config) { c.Gateway.UnknownSignalPolicy = "ignore" },
			wantErr: "gateway.unknown_signal_policy",
		},
		{
			name:    "empty fleet",
			mutate:  func(c *Config) { c.Device.FleetSize = 0 },
			wantErr: "device.fleet_size",
		},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Transport.Kind = "carrier_pigeon" },
			wantErr: "transport.kind",
		},
		{
			name:    "mqtt transport without mqtt",
			mutate:  func(c *Config) { c.Transport.Kind = TransportMQTT },
			wantErr: "requires mqtt.enabled",
		},
		{
			name: "mqtt transport with mqtt",
			mutate: func(c *Config) {
				c.Transport.Kind = TransportMQTT
				c.MQTT.Enabled = true
			},
		},
		{
			name:    "zero high-water mark",
			mutate:  func(c *Config) { c.Transport.HighWaterMark = 0 },
			wantErr: "transport.high_water_mark",
		},
		{
			name: "journal without path",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			wantErr: "database.path",
		},
		{
			name:   "disabled journal without path",
			mutate: func(c *Config) { c.Database.Path = "" },
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name: "api port out of range",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 70000
			},
			wantErr: "api.port",
		},
		{
			name:    "influxdb without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Gateway.Endpoint = ""
	cfg.Device.Endpoint = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration errors: ") {
		t.Errorf("error = %q, want configuration errors prefix", msg)
	}
	if !strings.Contains(msg, "gateway.endpoint") || !strings.Contains(msg, "device.endpoint") {
		t.Errorf("error = %q, want both endpoints reported", msg)
	}
}

func TestConfig_GetDurations(t *testing.T) {
	cfg := &Config{
		Gateway:  GatewayConfig{RestartDelaySeconds: 7},
		Database: DatabaseConfig{RetentionDays: 2},
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetRestartDelay(); got != 7*time.Second {
		t.Errorf("GetRestartDelay() = %v, want 7s", got)
	}
	if got := cfg.GetRetention(); got != 48*time.Hour {
		t.Errorf("GetRetention() = %v, want 48h", got)
	}
	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("PRESENCE_GATEWAY_ENDPOINT", "tcp://*:6001")
	t.Setenv("PRESENCE_DEVICE_ENDPOINT", "tcp://10.1.1.1:6001")
	t.Setenv("PRESENCE_TRANSPORT", TransportWebSocket)
	t.Setenv("PRESENCE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("PRESENCE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("PRESENCE_MQTT_PORT", "8883")
	t.Setenv("PRESENCE_MQTT_USERNAME", "testuser")
	t.Setenv("PRESENCE_MQTT_PASSWORD", "testpass")
	t.Setenv("PRESENCE_API_PORT", "9090")
	t.Setenv("PRESENCE_INFLUXDB_URL", "http://influx:8086")
	t.Setenv("PRESENCE_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("PRESENCE_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"Gateway.Endpoint", cfg.Gateway.Endpoint, "tcp://*:6001"},
		{"Device.Endpoint", cfg.Device.Endpoint, "tcp://10.1.1.1:6001"},
		{"Transport.Kind", cfg.Transport.Kind, TransportWebSocket},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Broker.Port", cfg.MQTT.Broker.Port, 8883},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Port", cfg.API.Port, 9090},
		{"InfluxDB.URL", cfg.InfluxDB.URL, "http://influx:8086"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Logging.Level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := Default()
	t.Setenv("PRESENCE_API_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want default 8080", cfg.API.Port)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Gateway.Endpoint != "tcp://*:5555" {
		t.Errorf("Default Gateway.Endpoint = %q, want tcp://*:5555", cfg.Gateway.Endpoint)
	}
	if cfg.Device.Endpoint != "tcp://127.0.0.1:5555" {
		t.Errorf("Default Device.Endpoint = %q", cfg.Device.Endpoint)
	}
	if cfg.Transport.Kind != TransportPushPull {
		t.Errorf("Default Transport.Kind = %q, want push_pull", cfg.Transport.Kind)
	}
	if cfg.Transport.HighWaterMark != 1 {
		t.Errorf("Default Transport.HighWaterMark = %d, want 1", cfg.Transport.HighWaterMark)
	}
	if cfg.Gateway.UnknownSignalPolicy != gateway.PolicyTerminate {
		t.Errorf("Default Gateway.UnknownSignalPolicy = %q", cfg.Gateway.UnknownSignalPolicy)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("Default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Database.Enabled || cfg.MQTT.Enabled || cfg.InfluxDB.Enabled || cfg.API.Enabled {
		t.Error("Default should leave journal, mqtt, influxdb and api disabled")
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gateway.Endpoint != "tcp://*:5555" {
		t.Errorf("Gateway.Endpoint = %q", cfg.Gateway.Endpoint)
	}
	if cfg.Transport.Kind != TransportPushPull {
		t.Errorf("Transport.Kind = %q", cfg.Transport.Kind)
	}
	if cfg.Device.FleetSize != 10 {
		t.Errorf("Device.FleetSize = %d, want 10", cfg.Device.FleetSize)
	}
}

// TestConfig_PolicyAcceptedByDispatcher checks every policy the config
// accepts also builds a dispatcher.
func TestConfig_PolicyAcceptedByDispatcher(t *testing.T) {
	for _, policy := range []string{gateway.PolicyTerminate, gateway.PolicySkip} {
		t.Run(policy, func(t *testing.T) {
			cfg := Default()
			cfg.Gateway.UnknownSignalPolicy = policy
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if _, err := gateway.New(gateway.Deps{
				Listener: memory.NewNetwork(1),
				Policy:   cfg.Gateway.UnknownSignalPolicy,
			}); err != nil {
				t.Errorf("gateway.New() error = %v", err)
			}
		})
	}
}
