// Gray Logic Presence - gateway
//
// The gateway binds one endpoint, receives lifecycle signals from every
// connected device and keeps the registry of devices that are currently
// open. Optional components journal each applied signal to SQLite, announce
// it over MQTT, record it in InfluxDB and expose the registry over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/api"
	"github.com/nerrad567/gray-logic-presence/internal/gateway"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-presence/internal/journal"
	"github.com/nerrad567/gray-logic-presence/internal/notify"
	"github.com/nerrad567/gray-logic-presence/internal/registry"
	"github.com/nerrad567/gray-logic-presence/internal/transport/selector"
	"github.com/nerrad567/gray-logic-presence/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	serviceName       = "presence-gateway"
	defaultConfigPath = "configs/config.yaml"

	// pruneInterval is how often the journal drops entries past retention.
	pruneInterval = time.Hour
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	endpoint := fs.String("endpoint", "", "endpoint to bind (overrides gateway.endpoint)")
	policy := fs.String("policy", "", "unknown signal policy: terminate or skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logging.Default()
	log.Info("starting presence gateway", "version", version, "commit", commit, "build_date", date)

	configPath := getConfigPath()
	cfg, found, err := config.LoadOptional(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *endpoint != "" {
		cfg.Gateway.Endpoint = *endpoint
	}
	if *policy != "" {
		cfg.Gateway.UnknownSignalPolicy = *policy
	}

	log = logging.New(cfg.Logging, serviceName, version)
	log.Info("configuration loaded", "path", configPath, "found", found, "transport", cfg.Transport.Kind)

	reg := registry.New()
	reg.SetLogger(log.Component("registry"))

	var hooks []gateway.Hook
	checks := make(map[string]api.HealthChecker)

	// Signal journal (optional)
	var jrnl *journal.Journal
	if cfg.Database.Enabled {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("signal journal ready", "path", db.Path())

		jrnl = journal.New(db.DB)
		hooks = append(hooks, jrnl)
		checks["database"] = db

		if retention := cfg.GetRetention(); retention > 0 {
			go pruneLoop(ctx, jrnl, retention, log)
		}
	}

	// MQTT (optional, required by the mqtt transport)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		hooks = append(hooks, &notify.MQTT{Publisher: mqttClient, QoS: mqttClient.QoS()})
		checks["mqtt"] = mqttClient
	}

	// InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

		hooks = append(hooks, &notify.Telemetry{Writer: influxClient})
		checks["influxdb"] = influxClient
	}

	// Transport
	deps := selector.Deps{Logger: log.Component("transport").Logger}
	if mqttClient != nil {
		deps.Broker = mqttClient
		deps.QoS = mqttClient.QoS()
	}
	listener, err := selector.NewListener(cfg.Transport, deps)
	if err != nil {
		return fmt.Errorf("building transport: %w", err)
	}
	codec := selector.CodecFor(cfg.Transport.Kind)

	sup := &supervisor{
		endpoint:    cfg.Gateway.Endpoint,
		restart:     cfg.Gateway.RestartOnFailure,
		delay:       cfg.GetRestartDelay(),
		maxAttempts: cfg.Gateway.MaxRestartAttempts,
		log:         log,
		newDispatcher: func() (*gateway.Dispatcher, error) {
			return gateway.New(gateway.Deps{
				Listener: listener,
				Codec:    codec,
				Registry: reg,
				Logger:   log.Component("gateway"),
				Hooks:    hooks,
				Policy:   cfg.Gateway.UnknownSignalPolicy,
			})
		},
	}

	// Status API (optional)
	if cfg.API.Enabled {
		apiDeps := api.Deps{
			Config:   cfg.API,
			Logger:   log.Component("api"),
			Registry: reg,
			Stats:    sup.stats,
			Checks:   checks,
			Version:  version,
		}
		if jrnl != nil {
			apiDeps.History = jrnl
		}
		server, err := api.New(apiDeps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete", "endpoint", cfg.Gateway.Endpoint)
	if err := sup.run(ctx); err != nil {
		return err
	}

	log.Info("presence gateway stopped", "devices_open", reg.Len())
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PRESENCE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PRESENCE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// pruneLoop drops journal entries older than retention, once at startup
// and then every pruneInterval.
func pruneLoop(ctx context.Context, j *journal.Journal, retention time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		n, err := j.Prune(ctx, retention)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warn("pruning signal journal failed", "error", err)
		case n > 0:
			log.Info("pruned signal journal", "removed", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
