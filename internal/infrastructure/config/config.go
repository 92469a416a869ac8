package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-presence/internal/gateway"
)

// Transport kinds selectable in transport.kind.
const (
	TransportPushPull  = "push_pull"
	TransportReqRep    = "req_rep"
	TransportWebSocket = "websocket"
	TransportMQTT      = "mqtt"
)

// Config is the root configuration structure for Gray Logic Presence.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	Device    DeviceConfig    `yaml:"device"`
	Transport TransportConfig `yaml:"transport"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GatewayConfig contains the collector's listening and supervision settings.
type GatewayConfig struct {
	// Endpoint is where the gateway binds. Default: tcp://*:5555
	Endpoint string `yaml:"endpoint"`

	// UnknownSignalPolicy is "terminate" (stop the dispatch loop) or "skip"
	// (log, count and continue). Default: terminate
	UnknownSignalPolicy string `yaml:"unknown_signal_policy"`

	// RestartOnFailure rebuilds the dispatcher after the loop ends with an error.
	RestartOnFailure bool `yaml:"restart_on_failure"`

	// RestartDelaySeconds is the wait before rebuilding. Default: 5
	RestartDelaySeconds int `yaml:"restart_delay_seconds"`

	// MaxRestartAttempts limits rebuilds. 0 means unlimited.
	MaxRestartAttempts int `yaml:"max_restart_attempts"`
}

// DeviceConfig contains settings for the device simulator.
type DeviceConfig struct {
	// Endpoint is where devices connect. Default: tcp://127.0.0.1:5555
	Endpoint string `yaml:"endpoint"`

	// FleetSize is the number of simulated devices. Default: 1
	FleetSize int `yaml:"fleet_size"`

	// Identity overrides for the first device; empty fields are generated.
	HostName   string `yaml:"host_name"`
	IPAddress  string `yaml:"ip_address"`
	MACAddress string `yaml:"mac_address"`

	// HoldOpenSeconds is the pause after OPEN before RESTART. Default: 3
	HoldOpenSeconds int `yaml:"hold_open_seconds"`

	// HoldRestartSeconds is the pause after RESTART before closing. Default: 5
	HoldRestartSeconds int `yaml:"hold_restart_seconds"`
}

// TransportConfig selects and tunes the frame transport.
type TransportConfig struct {
	Kind          string                   `yaml:"kind"`
	HighWaterMark int                      `yaml:"high_water_mark"`
	WebSocket     WebSocketTransportConfig `yaml:"websocket"`
	MQTT          MQTTTransportConfig      `yaml:"mqtt"`
}

// WebSocketTransportConfig contains WebSocket transport settings.
type WebSocketTransportConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
}

// MQTTTransportConfig contains MQTT transport settings.
type MQTTTransportConfig struct {
	// Topic carries signal frames. Empty uses graylogic/presence/signal.
	Topic string `yaml:"topic"`
}

// DatabaseConfig contains SQLite settings for the signal journal.
type DatabaseConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	WALMode       bool   `yaml:"wal_mode"`
	BusyTimeout   int    `yaml:"busy_timeout"`
	RetentionDays int    `yaml:"retention_days"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains status API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PRESENCE_SECTION_KEY
// For example: PRESENCE_GATEWAY_ENDPOINT, PRESENCE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// LoadOptional behaves like Load but falls back to defaults when the file does not exist.
//
// The second return value reports whether the file was read.
func LoadOptional(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	cfg, err = finish(Default())
	if err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with sensible defaults.
//
// Only the dispatcher and its transport are enabled; the journal, MQTT,
// InfluxDB and the status API are opt-in.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Endpoint:            "tcp://*:5555",
			UnknownSignalPolicy: gateway.PolicyTerminate,
			RestartDelaySeconds: 5,
		},
		Device: DeviceConfig{
			Endpoint:           "tcp://127.0.0.1:5555",
			FleetSize:          1,
			HoldOpenSeconds:    3,
			HoldRestartSeconds: 5,
		},
		Transport: TransportConfig{
			Kind:          TransportPushPull,
			HighWaterMark: 1,
			WebSocket: WebSocketTransportConfig{
				Path:           "/ws/",
				MaxMessageSize: 8192,
			},
		},
		Database: DatabaseConfig{
			Path:          "./data/presence.db",
			WALMode:       true,
			BusyTimeout:   5,
			RetentionDays: 30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "presence-gateway",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Org:           "graylogic",
			Bucket:        "presence",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PRESENCE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Endpoints and transport
	if v := os.Getenv("PRESENCE_GATEWAY_ENDPOINT"); v != "" {
		cfg.Gateway.Endpoint = v
	}
	if v := os.Getenv("PRESENCE_DEVICE_ENDPOINT"); v != "" {
		cfg.Device.Endpoint = v
	}
	if v := os.Getenv("PRESENCE_TRANSPORT"); v != "" {
		cfg.Transport.Kind = v
	}

	// Database
	if v := os.Getenv("PRESENCE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("PRESENCE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PRESENCE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("PRESENCE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PRESENCE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("PRESENCE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("PRESENCE_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("PRESENCE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("PRESENCE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Gateway and device
	if c.Gateway.Endpoint == "" {
		errs = append(errs, "gateway.endpoint is required")
	}
	switch c.Gateway.UnknownSignalPolicy {
	case gateway.PolicyTerminate, gateway.PolicySkip:
	default:
		errs = append(errs, fmt.Sprintf("gateway.unknown_signal_policy must be %q or %q", gateway.PolicyTerminate, gateway.PolicySkip))
	}
	if c.Gateway.RestartDelaySeconds < 0 {
		errs = append(errs, "gateway.restart_delay_seconds must not be negative")
	}
	if c.Device.Endpoint == "" {
		errs = append(errs, "device.endpoint is required")
	}
	if c.Device.FleetSize < 1 {
		errs = append(errs, "device.fleet_size must be at least 1")
	}

	// Transport
	switch c.Transport.Kind {
	case TransportPushPull, TransportReqRep, TransportWebSocket:
	case TransportMQTT:
		if !c.MQTT.Enabled {
			errs = append(errs, "transport.kind mqtt requires mqtt.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("transport.kind %q is not one of push_pull, req_rep, websocket, mqtt", c.Transport.Kind))
	}
	if c.Transport.HighWaterMark < 1 {
		errs = append(errs, "transport.high_water_mark must be at least 1")
	}

	// Database
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the journal is enabled")
	}

	// MQTT
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRestartDelay returns the dispatcher rebuild delay as a Duration.
func (c *Config) GetRestartDelay() time.Duration {
	return time.Duration(c.Gateway.RestartDelaySeconds) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetRetention returns the journal retention period as a Duration. Zero disables pruning.
func (c *Config) GetRetention() time.Duration {
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}
