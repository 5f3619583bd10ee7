// Gray Logic Discovery - Network Device Discovery Daemon
//
// This is the main entry point for the Gray Logic discovery daemon.
// The daemon searches the local network for supported devices (cameras,
// bridges, thermostats, speakers) via multicast announce/response exchange
// and publishes each find to MQTT for the rest of the platform to consume.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-discovery/internal/announce"
	"github.com/nerrad567/gray-logic-discovery/internal/discovery"
	"github.com/nerrad567/gray-logic-discovery/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-discovery/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-discovery/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-discovery/internal/infrastructure/mqtt"
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Discovery",
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

	// Create the discovery engine. No socket is opened yet; that happens
	// when the announcer registers its first directive.
	engine := discovery.New(discovery.Config{
		Group:          cfg.Discovery.Group,
		Port:           cfg.Discovery.Port,
		BeaconInterval: cfg.GetBeaconInterval(),
		ReadTimeout:    cfg.GetReadTimeout(),
		PoolMinWorkers: cfg.Discovery.Pool.MinWorkers,
		PoolMaxWorkers: cfg.Discovery.Pool.MaxWorkers,
		PoolQueueDepth: cfg.Discovery.Pool.QueueDepth,
	})
	engine.SetLogger(log)
	defer func() {
		log.Info("shutting down discovery engine")
		engine.Shutdown()
	}()

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

	// Connect to MQTT broker (optional). Without MQTT the daemon still
	// discovers and logs devices; it just cannot announce them or take
	// commands.
	if !cfg.MQTT.Enabled {
		log.Info("MQTT disabled, running in log-only mode")
		return runLogOnly(ctx, cfg, engine, influxClient, log)
	}

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

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Start the announcer: one directive per configured device type,
	// command subscription, and periodic metrics.
	announcer := announce.New(announce.Config{
		ServiceID:       cfg.Service.ID,
		DeviceTypes:     cfg.Discovery.DeviceTypes,
		QoS:             byte(cfg.MQTT.QoS), // #nosec G115 -- validated 0-2
		MetricsInterval: cfg.GetMetricsInterval(),
	}, engine, mqttClient, metricsSink(influxClient))
	announcer.SetLogger(log)

	if err := announcer.Start(); err != nil {
		return fmt.Errorf("starting announcer: %w", err)
	}
	defer func() {
		log.Info("stopping announcer")
		if stopErr := announcer.Stop(); stopErr != nil {
			log.Error("error stopping announcer", "error", stopErr)
		}
	}()

	// Verify broker connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, discovering",
		"device_types", cfg.Discovery.DeviceTypes,
		"group", cfg.Discovery.Group,
		"port", cfg.Discovery.Port,
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Announcer (directives removed, command subscription dropped)
	// 2. MQTT (offline status published, connection closed)
	// 3. InfluxDB (pending writes flushed, if enabled)
	// 4. Engine (loops joined, socket closed, pool stopped)

	log.Info("Gray Logic Discovery stopped")
	return nil
}

// runLogOnly discovers without a broker: every find is logged, and written
// to InfluxDB when that is enabled.
func runLogOnly(ctx context.Context, cfg *config.Config, engine *discovery.Engine, influxClient *influxdb.Client, log *logging.Logger) error {
	for _, name := range cfg.Discovery.DeviceTypes {
		deviceType := discovery.DeviceType(name)
		handle, err := engine.StartDiscovery(deviceType, func(device *discovery.Device) {
			hardwareAddress := ""
			if device.HardwareAddress != nil {
				hardwareAddress = device.HardwareAddress.String()
			}
			log.Info("device discovered",
				"device_type", string(device.Type),
				"address", device.Address,
				"hardware_address", hardwareAddress,
				"port", device.Port,
			)
			if influxClient != nil {
				influxClient.WriteDiscoveredDevice(string(device.Type), device.Address, hardwareAddress, device.Port)
			}
		})
		if err != nil {
			return fmt.Errorf("starting discovery for %q: %w", name, err)
		}
		log.Info("discovery started", "device_type", name, "handle", uint32(handle))
	}

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// metricsSink converts a possibly-nil InfluxDB client into the announcer's
// sink parameter. A typed nil pointer inside a non-nil interface would defeat
// the announcer's nil checks, hence the explicit branch.
func metricsSink(client *influxdb.Client) announce.MetricsSink {
	if client == nil {
		return nil
	}
	return client
}

// getConfigPath returns the configuration file path.
// Uses GLDISC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GLDISC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies broker connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
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
