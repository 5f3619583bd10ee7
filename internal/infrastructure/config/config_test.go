package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
service:
  id: "test-discovery"
discovery:
  group: "239.255.255.250"
  port: 1900
  beacon_interval: 10
  device_types: ["camera", "bridge"]
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.ID != "test-discovery" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-discovery")
	}

	if cfg.Discovery.BeaconInterval != 10 {
		t.Errorf("Discovery.BeaconInterval = %d, want 10", cfg.Discovery.BeaconInterval)
	}

	if len(cfg.Discovery.DeviceTypes) != 2 {
		t.Errorf("Discovery.DeviceTypes = %v, want two entries", cfg.Discovery.DeviceTypes)
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
service:
  id: ""
discovery:
  group: "239.255.255.250"
  port: 1900
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty service.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	// validDiscovery satisfies every discovery constraint.
	validDiscovery := DiscoveryConfig{
		Group:          "239.255.255.250",
		Port:           1900,
		BeaconInterval: 5,
		DeviceTypes:    []string{"camera"},
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Service:   ServiceConfig{ID: "discovery-001"},
				Discovery: validDiscovery,
				MQTT:      MQTTConfig{QoS: 1},
			},
			wantErr: false,
		},
		{
			name: "missing service ID",
			config: &Config{
				Service:   ServiceConfig{ID: ""},
				Discovery: validDiscovery,
				MQTT:      MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "group not multicast",
			config: &Config{
				Service: ServiceConfig{ID: "discovery-001"},
				Discovery: DiscoveryConfig{
					Group:          "192.168.0.1",
					Port:           1900,
					BeaconInterval: 5,
					DeviceTypes:    []string{"camera"},
				},
				MQTT: MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "invalid port",
			config: &Config{
				Service: ServiceConfig{ID: "discovery-001"},
				Discovery: DiscoveryConfig{
					Group:          "239.255.255.250",
					Port:           70000,
					BeaconInterval: 5,
					DeviceTypes:    []string{"camera"},
				},
				MQTT: MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "zero beacon interval",
			config: &Config{
				Service: ServiceConfig{ID: "discovery-001"},
				Discovery: DiscoveryConfig{
					Group:       "239.255.255.250",
					Port:        1900,
					DeviceTypes: []string{"camera"},
				},
				MQTT: MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "no device types",
			config: &Config{
				Service: ServiceConfig{ID: "discovery-001"},
				Discovery: DiscoveryConfig{
					Group:          "239.255.255.250",
					Port:           1900,
					BeaconInterval: 5,
				},
				MQTT: MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "pool max below min",
			config: &Config{
				Service: ServiceConfig{ID: "discovery-001"},
				Discovery: DiscoveryConfig{
					Group:          "239.255.255.250",
					Port:           1900,
					BeaconInterval: 5,
					DeviceTypes:    []string{"camera"},
					Pool:           PoolConfig{MinWorkers: 4, MaxWorkers: 2},
				},
				MQTT: MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "invalid QoS",
			config: &Config{
				Service:   ServiceConfig{ID: "discovery-001"},
				Discovery: validDiscovery,
				MQTT:      MQTTConfig{QoS: 3},
			},
			wantErr: true,
		},
		{
			name: "influxdb enabled without token",
			config: &Config{
				Service:   ServiceConfig{ID: "discovery-001"},
				Discovery: validDiscovery,
				MQTT:      MQTTConfig{QoS: 1},
				InfluxDB:  InfluxDBConfig{Enabled: true, URL: "http://localhost:8086"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetDurations(t *testing.T) {
	cfg := &Config{
		Discovery: DiscoveryConfig{
			BeaconInterval:  10,
			ReadTimeout:     2,
			MetricsInterval: 60,
		},
	}

	if got := cfg.GetBeaconInterval().Seconds(); got != 10 {
		t.Errorf("GetBeaconInterval() = %v, want 10", got)
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 2 {
		t.Errorf("GetReadTimeout() = %v, want 2", got)
	}

	if got := cfg.GetMetricsInterval().Seconds(); got != 60 {
		t.Errorf("GetMetricsInterval() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("GLDISC_DISCOVERY_GROUP", "239.1.2.3")
	t.Setenv("GLDISC_DISCOVERY_PORT", "2900")
	t.Setenv("GLDISC_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GLDISC_MQTT_USERNAME", "testuser")
	t.Setenv("GLDISC_MQTT_PASSWORD", "testpass")
	t.Setenv("GLDISC_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Discovery.Group != "239.1.2.3" {
		t.Errorf("Discovery.Group = %q, want %q", cfg.Discovery.Group, "239.1.2.3")
	}

	if cfg.Discovery.Port != 2900 {
		t.Errorf("Discovery.Port = %d, want 2900", cfg.Discovery.Port)
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestApplyEnvOverridesIgnoresBadPort(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GLDISC_DISCOVERY_PORT", "not-a-port")
	applyEnvOverrides(cfg)

	if cfg.Discovery.Port != 1900 {
		t.Errorf("Discovery.Port = %d, want default 1900 kept", cfg.Discovery.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Service.ID == "" {
		t.Error("defaultConfig should have non-empty Service.ID")
	}

	if cfg.Discovery.Group != "239.255.255.250" {
		t.Errorf("defaultConfig Discovery.Group = %q, want 239.255.255.250", cfg.Discovery.Group)
	}

	if cfg.Discovery.Port != 1900 {
		t.Errorf("defaultConfig Discovery.Port = %d, want 1900", cfg.Discovery.Port)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate cleanly: %v", err)
	}
}
