package announce

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-discovery/internal/discovery"
	"github.com/nerrad567/gray-logic-discovery/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-discovery/internal/infrastructure/mqtt"
)

// Sentinel errors for announcer operations.
var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = fmt.Errorf("announce: already started")

	// ErrNotStarted is returned when Stop is called before Start.
	ErrNotStarted = fmt.Errorf("announce: not started")

	// ErrNoDeviceTypes is returned when Start is called with no device types configured.
	ErrNoDeviceTypes = fmt.Errorf("announce: no device types configured")
)

// Publisher is the slice of the MQTT client the announcer needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Engine is the slice of the discovery engine the announcer drives.
type Engine interface {
	StartDiscovery(deviceType discovery.DeviceType, callback discovery.Callback) (discovery.Handle, error)
	StopDiscovery(handle discovery.Handle)
	Stats() discovery.Stats
}

// MetricsSink receives device sightings and counter snapshots for time-series
// storage. Satisfied by *influxdb.Client. Optional; a nil sink disables
// time-series recording.
type MetricsSink interface {
	WriteDiscoveredDevice(deviceType, address, hardwareAddress string, port int)
	WriteEngineStats(serviceID string, stats influxdb.EngineStats)
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config holds announcer settings, taken from config.yaml.
type Config struct {
	// ServiceID identifies this daemon instance in published payloads.
	ServiceID string

	// DeviceTypes are the device families to discover (e.g. "camera").
	DeviceTypes []string

	// QoS is the publish QoS for announcements and metrics.
	QoS byte

	// MetricsInterval is the pause between counter snapshots.
	// Zero disables the metrics reporter.
	MetricsInterval time.Duration
}

// Announcer connects the discovery engine to MQTT.
//
// It registers one search directive per configured device type, publishes
// each discovered device as a retained JSON message, listens for start/stop
// commands, and periodically publishes engine counters.
//
// Thread Safety: all methods are safe for concurrent use.
type Announcer struct {
	cfg       Config
	engine    Engine
	publisher Publisher
	sink      MetricsSink
	topics    mqtt.Topics

	// mu guards handles and the started flag. Directives are keyed by device
	// type; the command handler starts and stops them individually.
	mu      sync.Mutex
	handles map[discovery.DeviceType]discovery.Handle
	started bool

	// metricsStop signals the reporter loop; created by Start when a
	// metrics interval is configured.
	metricsStop chan struct{}
	metricsWG   sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex
}

// devicePayload is the JSON shape published for each discovered device.
type devicePayload struct {
	ServiceID       string `json:"service_id"`
	DeviceType      string `json:"device_type"`
	Address         string `json:"address"`
	HardwareAddress string `json:"hardware_address,omitempty"`
	Port            int    `json:"port"`
	Location        string `json:"location,omitempty"`
	ServerBanner    string `json:"server_banner,omitempty"`
	UniqueService   string `json:"unique_service_name,omitempty"`
	DiscoveredAt    string `json:"discovered_at"`
}

// New creates an announcer. The sink may be nil to disable time-series
// recording. Nothing runs until Start.
func New(cfg Config, engine Engine, publisher Publisher, sink MetricsSink) *Announcer {
	return &Announcer{
		cfg:       cfg,
		engine:    engine,
		publisher: publisher,
		sink:      sink,
		handles:   make(map[discovery.DeviceType]discovery.Handle),
	}
}

// SetLogger sets the logger for the announcer.
func (a *Announcer) SetLogger(logger Logger) {
	a.loggerMu.Lock()
	a.logger = logger
	a.loggerMu.Unlock()
}

// Start registers a search directive for every configured device type,
// subscribes to the command topic, and starts the metrics reporter.
//
// Unsupported device types in the config fail the whole call; directives
// registered before the failure are rolled back.
func (a *Announcer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return ErrAlreadyStarted
	}
	if len(a.cfg.DeviceTypes) == 0 {
		return ErrNoDeviceTypes
	}

	for _, name := range a.cfg.DeviceTypes {
		if err := a.startDirectiveLocked(discovery.DeviceType(name)); err != nil {
			a.stopAllLocked()
			return err
		}
	}

	if err := a.publisher.Subscribe(a.topics.Command(), a.cfg.QoS, a.handleCommand); err != nil {
		a.stopAllLocked()
		return fmt.Errorf("announce: command subscription failed: %w", err)
	}

	if a.cfg.MetricsInterval > 0 {
		a.metricsStop = make(chan struct{})
		a.metricsWG.Add(1)
		go a.metricsLoop(a.metricsStop)
	}

	a.started = true
	a.logInfo("announcer started", "device_types", a.cfg.DeviceTypes)
	return nil
}

// Stop removes all directives, drops the command subscription, and stops the
// metrics reporter. The engine itself is not shut down; that belongs to the
// engine's owner.
func (a *Announcer) Stop() error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return ErrNotStarted
	}
	a.started = false

	a.stopAllLocked()

	stop := a.metricsStop
	a.metricsStop = nil
	a.mu.Unlock()

	if stop != nil {
		close(stop)
		a.metricsWG.Wait()
	}

	if err := a.publisher.Unsubscribe(a.topics.Command()); err != nil {
		a.logWarn("command unsubscribe failed", "error", err)
	}

	a.logInfo("announcer stopped")
	return nil
}

// startDirectiveLocked registers one directive. Caller holds a.mu.
func (a *Announcer) startDirectiveLocked(deviceType discovery.DeviceType) error {
	if _, exists := a.handles[deviceType]; exists {
		return nil
	}

	handle, err := a.engine.StartDiscovery(deviceType, a.onDevice)
	if err != nil {
		return fmt.Errorf("announce: directive for %q failed: %w", deviceType, err)
	}
	a.handles[deviceType] = handle
	return nil
}

// stopAllLocked removes every directive. Caller holds a.mu.
func (a *Announcer) stopAllLocked() {
	for deviceType, handle := range a.handles {
		a.engine.StopDiscovery(handle)
		delete(a.handles, deviceType)
	}
}

// onDevice publishes one discovered device. Runs on the engine's worker pool,
// so blocking on the broker here does not stall the network loops.
func (a *Announcer) onDevice(device *discovery.Device) {
	payload := devicePayload{
		ServiceID:     a.cfg.ServiceID,
		DeviceType:    string(device.Type),
		Address:       device.Address,
		Port:          device.Port,
		Location:      device.Location,
		ServerBanner:  device.ServerBanner,
		UniqueService: device.UniqueServiceName,
		DiscoveredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if device.HardwareAddress != nil {
		payload.HardwareAddress = device.HardwareAddress.String()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		a.logError("device payload marshal failed", err)
		return
	}

	topic := a.topics.Device(payload.DeviceType, payload.Address)
	if err := a.publisher.Publish(topic, data, a.cfg.QoS, true); err != nil {
		a.logError("device announcement failed", err)
		return
	}

	if a.sink != nil {
		a.sink.WriteDiscoveredDevice(payload.DeviceType, payload.Address, payload.HardwareAddress, payload.Port)
	}

	a.logInfo("device announced",
		"device_type", payload.DeviceType,
		"address", payload.Address,
		"port", payload.Port)
}

// logInfo logs an info message if logger is set.
func (a *Announcer) logInfo(msg string, keysAndValues ...any) {
	a.loggerMu.RLock()
	logger := a.logger
	a.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (a *Announcer) logWarn(msg string, keysAndValues ...any) {
	a.loggerMu.RLock()
	logger := a.logger
	a.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (a *Announcer) logError(msg string, err error) {
	a.loggerMu.RLock()
	logger := a.logger
	a.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
