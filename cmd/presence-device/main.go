// Gray Logic Presence - device simulator
//
// Runs a fleet of simulated devices against a gateway. Each device opens,
// announces OPEN, holds, announces RESTART, holds again and closes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/device"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-presence/internal/presence"
	"github.com/nerrad567/gray-logic-presence/internal/transport/selector"
)

// Version information - set at build time via ldflags
var version = "dev"

const (
	serviceName       = "presence-device"
	defaultConfigPath = "configs/config.yaml"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the fleet once. Interruption is a clean exit; each device
// still attempts its CLOSE.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	endpoint := fs.String("endpoint", "", "gateway endpoint (overrides device.endpoint)")
	size := fs.Int("n", 0, "number of devices (overrides device.fleet_size)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _, err := config.LoadOptional(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *endpoint != "" {
		cfg.Device.Endpoint = *endpoint
	}
	if *size < 0 {
		return fmt.Errorf("-n must not be negative")
	}
	if *size > 0 {
		cfg.Device.FleetSize = *size
	}

	log := logging.New(cfg.Logging, serviceName, version)

	identities, err := configuredIdentities(cfg.Device)
	if err != nil {
		return err
	}

	deps := selector.Deps{Logger: log.Component("transport").Logger}
	if cfg.Transport.Kind == config.TransportMQTT {
		// Devices share the broker config but need their own client id.
		mqttCfg := cfg.MQTT
		mqttCfg.Broker.ClientID = cfg.MQTT.Broker.ClientID + "-" + serviceName
		client, err := mqtt.Connect(mqttCfg)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer client.Close() //nolint:errcheck // shutdown
		client.SetLogger(log.Component("mqtt"))
		deps.Broker = client
		deps.QoS = client.QoS()
	}

	dialer, err := selector.NewDialer(cfg.Transport, deps)
	if err != nil {
		return fmt.Errorf("building transport: %w", err)
	}

	fleet := &device.Fleet{
		Dialer:   dialer,
		Codec:    selector.CodecFor(cfg.Transport.Kind),
		Endpoint: cfg.Device.Endpoint,
		Script: device.Script{
			HoldOpen:    time.Duration(cfg.Device.HoldOpenSeconds) * time.Second,
			HoldRestart: time.Duration(cfg.Device.HoldRestartSeconds) * time.Second,
		},
		Logger:     log.Component("device"),
		Identities: identities,
		Size:       cfg.Device.FleetSize,
	}

	err = fleet.Run(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		log.Info("interrupted, devices closed")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info("fleet finished", "devices", cfg.Device.FleetSize)
	return nil
}

// configuredIdentities returns the identity pinned by config for the first
// device, or nil when none is configured.
func configuredIdentities(cfg config.DeviceConfig) ([]presence.Identity, error) {
	if cfg.HostName == "" && cfg.IPAddress == "" && cfg.MACAddress == "" {
		return nil, nil
	}
	id, err := device.StaticIdentity(cfg.HostName, cfg.IPAddress, cfg.MACAddress)
	if err != nil {
		return nil, err
	}
	return []presence.Identity{id}, nil
}

// getConfigPath returns the configuration file path.
// Uses PRESENCE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PRESENCE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
