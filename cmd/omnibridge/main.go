// OmniBridge - HAI/Leviton controller bridge daemon
//
// This is the main entry point for the OmniBridge application.
// OmniBridge maintains persistent sessions to Omni and Lumina panels,
// mirrors their areas, zones and units into a local device registry,
// and exposes state and commands over MQTT:
//   - Persistent Omni-Link sessions with automatic reconnection
//   - Retained state topics per controller object
//   - Command topics for unit and security area control
//   - Optional InfluxDB telemetry (battery, session counters)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/stonefield-labs/omnibridge/migrations"

	"github.com/stonefield-labs/omnibridge/internal/bridge"
	"github.com/stonefield-labs/omnibridge/internal/bridges/omni"
	"github.com/stonefield-labs/omnibridge/internal/device"
	"github.com/stonefield-labs/omnibridge/internal/infrastructure/config"
	"github.com/stonefield-labs/omnibridge/internal/infrastructure/database"
	"github.com/stonefield-labs/omnibridge/internal/infrastructure/influxdb"
	"github.com/stonefield-labs/omnibridge/internal/infrastructure/logging"
	"github.com/stonefield-labs/omnibridge/internal/infrastructure/mqtt"
	"github.com/stonefield-labs/omnibridge/internal/keystore"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	simulate := flag.Bool("simulate", false, "run against an in-memory controller simulator")
	flag.Parse()

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *simulate); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context, simulate bool) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting OmniBridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise credential store and device registry
	creds := keystore.NewSQLiteStore(db.DB)

	deviceRepo := device.NewSQLiteRepository(db.DB)
	deviceRegistry := device.NewRegistry(deviceRepo)
	deviceRegistry.SetLogger(log)

	if refreshErr := deviceRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", deviceRegistry.GetDeviceCount())

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Session registry with the selected transport
	sessions := omni.NewRegistry(selectDialer(simulate, log))
	sessions.SetLogger(log)

	// Assemble the bridge
	opts := bridge.Options{
		Sessions:            sessions,
		MQTT:                mqttClient,
		Objects:             deviceRegistry,
		Logger:              log,
		Version:             version,
		UpdateInterval:      cfg.Refresh.UpdateInterval,
		FullRefreshSchedule: cfg.Refresh.FullRefreshSchedule,
		EventLogLimit:       cfg.Refresh.EventLogLimit,
	}
	if influxClient != nil {
		opts.Metrics = influxClient
	}
	b, err := bridge.New(opts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	// Register controllers. Key halves missing from the config come
	// from the credential store.
	for _, ctrl := range cfg.Controllers {
		if ctrl.KeyPart1 == "" && ctrl.KeyPart2 == "" {
			stored, credErr := creds.Get(ctx, ctrl.Address())
			if credErr != nil {
				return fmt.Errorf("credentials for %s: %w", ctrl.Address(), credErr)
			}
			ctrl.KeyPart1 = stored.KeyPart1
			ctrl.KeyPart2 = stored.KeyPart2
		}

		if _, addErr := b.AddController(ctrl); addErr != nil {
			return fmt.Errorf("adding controller %s: %w", ctrl.Address(), addErr)
		}
		log.Info("controller registered", "address", ctrl.Address())
	}

	// Start the bridge (update loop, command subscription, health reports)
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		b.Stop()
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Bridge (sessions included)
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("OmniBridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses OMNIBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("OMNIBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// errNoTransport is returned when the daemon runs without a usable
// controller transport.
var errNoTransport = errors.New("no controller transport built in; run with -simulate or embed the bridge with your own omni.Dialer")

// selectDialer picks the session transport. The binary ships with the
// in-memory simulator; a real Omni-Link connector is installed by
// embedding the bridge as a library and supplying an omni.Dialer.
func selectDialer(simulate bool, log *logging.Logger) omni.Dialer {
	if simulate {
		log.Info("simulator transport selected")
		sim := demoSimulator()
		return omni.SimulatorDialer(sim)
	}
	return func(_ omni.ConnectorConfig) (omni.Connector, error) {
		return nil, errNoTransport
	}
}

// demoSimulator seeds a small household so -simulate produces
// meaningful topics out of the box.
func demoSimulator() *omni.Simulator {
	sim := omni.NewSimulator()
	sim.SetSystemInformation(omni.SystemInformation{
		Model: 16, Major: 4, Minor: 0, Revision: 0,
	})

	sim.AddArea(1, "House", true, 30, 60)

	sim.AddZone(1, "Front Door", 1, 1, 0, 0, 100)
	sim.AddZone(2, "Back Door", 1, 1, 0, 0, 100)
	sim.AddZone(3, "Hall Motion", 3, 1, 0, 0, 85)

	sim.AddUnit(1, "Porch Light", 1, 0)
	sim.AddUnit(2, "Kitchen Lights", 1, 1)
	sim.AddUnit(3, "Garden Pump", 13, 0)
	return sim
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
