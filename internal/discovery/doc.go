// Package discovery finds network-attached devices by multicast
// announce/response exchange.
//
// Callers register search directives with StartDiscovery, naming a device type
// and a callback. While at least one directive is registered the engine runs
// two background loops over one shared multicast socket: an announcer that
// periodically broadcasts one request per distinct search target, and a
// listener that parses response datagrams, classifies them, and dispatches
// first sightings to the matching callbacks via a bounded worker pool.
//
// # Device Types
//
// Four device families are supported. Cameras, bridges, and thermostats answer
// standard M-SEARCH requests and are classified by the search target echoed in
// the response (bridges by their SERVER banner, which they advertise instead
// of echoing the target). Speakers use a vendor WM-DISCOVER framing and mark
// their responses WM-NOTIFY.
//
// # Lifecycle
//
// The socket and both loops exist exactly while a directive is registered:
// the first StartDiscovery creates them, the last StopDiscovery tears them
// down. Each directive deduplicates by device address, so a callback sees any
// given device at most once per directive lifetime. A socket send or receive
// failure stops the affected loop; the next StartDiscovery restarts it.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Callbacks run on pool
// workers and may call StartDiscovery or StopDiscovery; calling Shutdown from
// a callback deadlocks, because Shutdown waits for the pool the callback is
// running on.
package discovery
