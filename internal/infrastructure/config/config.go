package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the discovery daemon.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig contains daemon identity settings.
type ServiceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DiscoveryConfig contains multicast discovery engine settings.
type DiscoveryConfig struct {
	// Group is the multicast group address requests are sent to.
	Group string `yaml:"group"`

	// Port is the multicast discovery port.
	Port int `yaml:"port"`

	// BeaconInterval is the pause between broadcast rounds, in seconds.
	BeaconInterval int `yaml:"beacon_interval"`

	// ReadTimeout bounds each socket read, in seconds.
	ReadTimeout int `yaml:"read_timeout"`

	// DeviceTypes lists the device families the daemon searches for.
	DeviceTypes []string `yaml:"device_types"`

	// Pool sizes the callback worker pool.
	Pool PoolConfig `yaml:"pool"`

	// MetricsInterval is how often engine counters are reported, in seconds.
	MetricsInterval int `yaml:"metrics_interval"`
}

// PoolConfig contains worker pool sizing.
type PoolConfig struct {
	MinWorkers int `yaml:"min_workers"`
	MaxWorkers int `yaml:"max_workers"`
	QueueDepth int `yaml:"queue_depth"`
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
	MaxAttempts  int `yaml:"max_attempts"`
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
// Environment variables follow the pattern: GLDISC_SECTION_KEY
// For example: GLDISC_MQTT_HOST, GLDISC_DISCOVERY_GROUP
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			ID:   "discovery-001",
			Name: "Gray Logic Discovery",
		},
		Discovery: DiscoveryConfig{
			Group:          "239.255.255.250",
			Port:           1900,
			BeaconInterval: 5,
			ReadTimeout:    1,
			DeviceTypes:    []string{"camera", "bridge", "thermostat", "speaker"},
			Pool: PoolConfig{
				MinWorkers: 1,
				MaxWorkers: 4,
				QueueDepth: 64,
			},
			MetricsInterval: 30,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-discovery",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GLDISC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Discovery
	if v := os.Getenv("GLDISC_DISCOVERY_GROUP"); v != "" {
		cfg.Discovery.Group = v
	}
	if v := os.Getenv("GLDISC_DISCOVERY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("GLDISC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GLDISC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GLDISC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GLDISC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Service validation
	if c.Service.ID == "" {
		errs = append(errs, "service.id is required")
	}

	// Discovery validation
	ip := net.ParseIP(c.Discovery.Group)
	if ip == nil || !ip.IsMulticast() {
		errs = append(errs, "discovery.group must be a multicast IP address")
	}
	if c.Discovery.Port < 1 || c.Discovery.Port > 65535 {
		errs = append(errs, "discovery.port must be between 1 and 65535")
	}
	if c.Discovery.BeaconInterval < 1 {
		errs = append(errs, "discovery.beacon_interval must be at least 1 second")
	}
	if len(c.Discovery.DeviceTypes) == 0 {
		errs = append(errs, "discovery.device_types must name at least one device type")
	}
	if c.Discovery.Pool.MaxWorkers != 0 && c.Discovery.Pool.MaxWorkers < c.Discovery.Pool.MinWorkers {
		errs = append(errs, "discovery.pool.max_workers must be at least min_workers")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set GLDISC_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetBeaconInterval returns the beacon interval as a Duration.
func (c *Config) GetBeaconInterval() time.Duration {
	return time.Duration(c.Discovery.BeaconInterval) * time.Second
}

// GetReadTimeout returns the listener read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Discovery.ReadTimeout) * time.Second
}

// GetMetricsInterval returns the metrics reporting interval as a Duration.
func (c *Config) GetMetricsInterval() time.Duration {
	return time.Duration(c.Discovery.MetricsInterval) * time.Second
}
