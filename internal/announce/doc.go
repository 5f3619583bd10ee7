// Package announce connects the discovery engine to MQTT and InfluxDB.
//
// The announcer registers one search directive per configured device type and
// publishes each newly discovered device as a retained JSON message on
// graylogic/discovery/{type}/{address}. Retained messages mean a subscriber
// joining late still sees every device found so far.
//
// # Commands
//
// The daemon listens on graylogic/discovery/command for JSON commands:
//
//	{"action": "stop"}                            // stop all discovery
//	{"action": "start", "device_type": "camera"}  // resume one type
//
// Commands act only on device types named in the daemon's configuration;
// a start for an unconfigured type is rejected and logged.
//
// # Metrics
//
// When a metrics interval is configured, engine counters are published on
// graylogic/discovery/metrics and written to InfluxDB on each tick.
//
// # Lifecycle
//
// Start registers directives and the command subscription; Stop reverses
// both. The announcer never shuts the engine down itself; the engine's owner
// does that after stopping the announcer.
package announce
