package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDiscoveredDevice records one device sighting.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceType: The classified device family (e.g., "camera")
//   - address: The device's IP address
//   - hardwareAddress: The resolved MAC, or "" when unknown
//   - port: The device's announced service port
//
// Example:
//
//	client.WriteDiscoveredDevice("camera", "192.168.0.42", "a4:77:33:01:02:03", 8080)
func (c *Client) WriteDiscoveredDevice(deviceType, address, hardwareAddress string, port int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"discovered_devices",
		map[string]string{
			"device_type": deviceType,
		},
		map[string]interface{}{
			"address":          address,
			"hardware_address": hardwareAddress,
			"port":             port,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// EngineStats is the counter snapshot written by WriteEngineStats.
type EngineStats struct {
	BeaconsTx        uint64
	ResponsesRx      uint64
	ParseFailures    uint64
	DevicesMatched   uint64
	DispatchDropped  uint64
	ActiveDirectives int
}

// WriteEngineStats records a periodic snapshot of engine counters.
//
// Counters are cumulative since process start; rate queries derive deltas.
func (c *Client) WriteEngineStats(serviceID string, stats EngineStats) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"discovery_engine",
		map[string]string{
			"service_id": serviceID,
		},
		map[string]interface{}{
			"beacons_tx":        stats.BeaconsTx,
			"responses_rx":      stats.ResponsesRx,
			"parse_failures":    stats.ParseFailures,
			"devices_matched":   stats.DevicesMatched,
			"dispatch_dropped":  stats.DispatchDropped,
			"active_directives": stats.ActiveDirectives,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "discovery-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
