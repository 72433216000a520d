// Kiln - 3D Printer Fleet Coordinator
//
// This is the main entry point for the Kiln coordinator daemon.
// Kiln coordinates a fleet of networked 3D printers:
//   - Concurrent fleet status with bounded fan-out
//   - Optimistic state locking for conflicting controllers
//   - Capability-matched job scheduling
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/codeofaxel/Kiln-sub005/migrations"

	"github.com/codeofaxel/Kiln-sub005/internal/bridge"
	"github.com/codeofaxel/Kiln-sub005/internal/events"
	"github.com/codeofaxel/Kiln-sub005/internal/fleet"
	"github.com/codeofaxel/Kiln-sub005/internal/history"
	"github.com/codeofaxel/Kiln-sub005/internal/infrastructure/config"
	"github.com/codeofaxel/Kiln-sub005/internal/infrastructure/database"
	"github.com/codeofaxel/Kiln-sub005/internal/infrastructure/influxdb"
	"github.com/codeofaxel/Kiln-sub005/internal/infrastructure/logging"
	"github.com/codeofaxel/Kiln-sub005/internal/infrastructure/mqtt"
	"github.com/codeofaxel/Kiln-sub005/internal/statelock"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Remote shutdown commands on the system topic cancel the same context
	// as process signals.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Kiln",
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

	// Initialise the device registry
	registry := fleet.NewRegistry()
	registry.SetLogger(log)
	registry.SetQueryTimeout(cfg.QueryTimeout())
	registry.SetMaxWorkers(cfg.Fleet.MaxWorkers)
	log.Info("device registry initialised",
		"query_timeout", cfg.QueryTimeout(),
		"max_workers", cfg.Fleet.MaxWorkers,
	)

	// Initialise the state lock, with durable mirroring if configured
	lock := statelock.New()
	lock.SetLogger(log)
	if cfg.Lock.Persist {
		lock.SetStore(statelock.NewSQLiteStore(db.DB))
		if restoreErr := lock.Restore(ctx); restoreErr != nil {
			return fmt.Errorf("restoring lock records: %w", restoreErr)
		}
		log.Info("state lock restored", "devices", len(lock.List()))
	}

	// Job history feeds the scheduler's success rates. Old outcomes are
	// pruned daily to keep the table bounded.
	historyRepo := history.NewRepository(db.DB)
	go runHistoryPrune(ctx, historyRepo, log)

	// Connect to MQTT broker (optional)
	var bus *events.Bus
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
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

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// #nosec G115 -- QoS validated to 0..2 by config.Validate
		bus = events.New(mqttClient, cfg.Site.ID, byte(cfg.MQTT.QoS))
		bus.SetLogger(log)
		lock.SetEventSink(bus)

		// The bridge populates the registry from agent state reports and
		// answers dispatch requests on the bus.
		br := bridge.New(mqttClient, mqttClient, registry)
		br.SetLogger(log)
		br.SetLifecycle(bus)
		br.SetDispatch(historyRepo, cfg.Scheduler.DefaultSuccessRate)
		br.SetOnShutdown(cancel)
		// #nosec G115 -- QoS validated to 0..2 by config.Validate
		if err := br.Start(ctx, byte(cfg.MQTT.QoS)); err != nil {
			return fmt.Errorf("starting bus bridge: %w", err)
		}
	} else {
		log.Info("MQTT disabled")
	}

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

	// Periodic fleet telemetry. An interval of 0 disables the loop even
	// when sinks are configured.
	if (influxClient != nil || bus != nil) && cfg.TelemetryInterval() > 0 {
		go runTelemetry(ctx, registry, influxClient, bus, cfg.TelemetryInterval(), log)
		log.Info("telemetry loop started", "interval", cfg.TelemetryInterval())
	} else {
		log.Info("telemetry loop disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Kiln stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses KILN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("KILN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// historyRetention is how long completed job outcomes are kept.
const historyRetention = 90 * 24 * time.Hour

// runHistoryPrune deletes job outcomes older than the retention window,
// once a day.
func runHistoryPrune(ctx context.Context, repo *history.Repository, log *logging.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		deleted, err := repo.Prune(ctx, historyRetention)
		if err != nil {
			log.Warn("pruning job history failed", "error", err)
			continue
		}
		if deleted > 0 {
			log.Info("pruned job history", "deleted", deleted)
		}
	}
}

// runTelemetry periodically samples fleet status and forwards it to the
// configured sinks. Either sink may be nil.
//
// Parameters:
//   - ctx: Loop lifetime; returning when cancelled
//   - registry: Fleet registry to sample
//   - influxClient: Telemetry sink (nil if disabled)
//   - bus: Event bus for retained fleet snapshots (nil if disabled)
//   - interval: Sampling interval; non-positive returns immediately
//   - log: Logger instance
func runTelemetry(ctx context.Context, registry *fleet.Registry, influxClient *influxdb.Client, bus *events.Bus, interval time.Duration, log *logging.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		entries := registry.FleetStatus(ctx)
		if len(entries) == 0 {
			continue
		}

		if influxClient != nil {
			var idle, connected int
			for _, entry := range entries {
				influxClient.WritePrinterState(entry.Name, string(entry.State), entry.Connected)
				influxClient.WriteTemperatures(entry.Name,
					entry.ToolTempActual, entry.ToolTempTarget,
					entry.BedTempActual, entry.BedTempTarget,
				)
				if entry.Connected {
					connected++
				}
				if entry.Connected && entry.State == fleet.StateIdle {
					idle++
				}
			}
			influxClient.WriteFleetGauge("printers_total", float64(len(entries)))
			influxClient.WriteFleetGauge("printers_connected", float64(connected))
			influxClient.WriteFleetGauge("printers_idle", float64(idle))
		}

		if bus != nil {
			bus.PublishFleetStatus(entries)
		}

		log.Debug("fleet telemetry sampled", "printers", len(entries))
	}
}
