package mqtt

import "fmt"

// Topic prefixes for the discovery daemon.
//
// All topics live under graylogic/discovery: device announcements use
// graylogic/discovery/{type}/{address}, control and status topics sit
// directly under the prefix.
const (
	// TopicPrefix is the base for all discovery topics.
	TopicPrefix = "graylogic/discovery"
)

// Topics provides builders for discovery MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	deviceTopic := topics.Device("camera", "192.168.0.42")
//	// Returns: "graylogic/discovery/camera/192.168.0.42"
type Topics struct{}

// Device returns the announcement topic for one discovered device.
//
// Example: graylogic/discovery/camera/192.168.0.42
func (Topics) Device(deviceType, address string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, deviceType, address)
}

// Command returns the topic the daemon listens on for start/stop commands.
//
// Example: graylogic/discovery/command
func (Topics) Command() string {
	return fmt.Sprintf("%s/command", TopicPrefix)
}

// SystemStatus returns the daemon's online/offline status topic, used for
// both the LWT and graceful shutdown messages.
//
// Example: graylogic/discovery/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefix)
}

// Metrics returns the topic for periodic engine counter snapshots.
//
// Example: graylogic/discovery/metrics
func (Topics) Metrics() string {
	return fmt.Sprintf("%s/metrics", TopicPrefix)
}

// AllDevices returns a pattern matching every device announcement.
//
// Pattern: graylogic/discovery/+/+
func (Topics) AllDevices() string {
	return fmt.Sprintf("%s/+/+", TopicPrefix)
}

// DevicesOfType returns a pattern matching announcements for one device type.
//
// Pattern: graylogic/discovery/camera/+
func (Topics) DevicesOfType(deviceType string) string {
	return fmt.Sprintf("%s/%s/+", TopicPrefix, deviceType)
}
