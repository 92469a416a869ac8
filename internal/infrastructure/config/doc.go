// Package config handles loading and validating Gray Logic Presence configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Both commands share one file. The gateway reads the gateway, transport,
// database, mqtt, influxdb and api sections; the device simulator reads the
// device and transport sections.
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, _, err := config.LoadOptional("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Gateway.Endpoint)
package config
