package discovery

import (
	"net"
	"strings"
)

// DeviceType identifies the family of device a search directive targets.
type DeviceType string

const (
	DeviceCamera     DeviceType = "camera"
	DeviceBridge     DeviceType = "bridge"
	DeviceThermostat DeviceType = "thermostat"
	DeviceSpeaker    DeviceType = "speaker"
	DeviceUnknown    DeviceType = "unknown"
)

// Category distinguishes the two wire framings used for discovery requests.
type Category string

const (
	// CategoryStandard devices answer UPnP M-SEARCH requests and are matched
	// against one or more search-target strings.
	CategoryStandard Category = "standard"

	// CategoryVendor devices use the WM-DISCOVER framing and are matched
	// against a single vendor service name.
	CategoryVendor Category = "vendor"
)

// Known search targets and vendor service names.
const (
	targetCameraV1   = "urn:schemas-upnp-org:device:DigitalSecurityCamera:1"
	targetCameraV2   = "urn:schemas-upnp-org:device:DigitalSecurityCamera:2"
	targetBridge     = "urn:schemas-upnp-org:device:basic:1"
	targetThermostat = "urn:schemas-upnp-org:device:thermostat:1"
	serviceSpeaker   = "WiFiSpeaker:1"

	// bridgeBannerMarker identifies bridge responses. The bridge does not echo
	// the search target it was asked for; it advertises itself in the SERVER
	// header instead (e.g. "Linux/3.14.0 UPnP/1.0 IpBridge/1.26.0").
	bridgeBannerMarker = "IpBridge"
)

// targetSet holds the wire targets broadcast for one device type.
type targetSet struct {
	category Category
	targets  []string
}

// searchTable maps each supported device type onto its search targets.
// A standard type may carry several targets; a vendor type carries exactly one
// service name.
var searchTable = map[DeviceType]targetSet{
	DeviceCamera:     {category: CategoryStandard, targets: []string{targetCameraV1, targetCameraV2}},
	DeviceBridge:     {category: CategoryStandard, targets: []string{targetBridge}},
	DeviceThermostat: {category: CategoryStandard, targets: []string{targetThermostat}},
	DeviceSpeaker:    {category: CategoryVendor, targets: []string{serviceSpeaker}},
}

// standardTargetTypes maps each known standard search target (lowercased) back
// to its device type, for response classification.
var standardTargetTypes = map[string]DeviceType{}

func init() {
	for deviceType, set := range searchTable {
		if set.category != CategoryStandard {
			continue
		}
		for _, target := range set.targets {
			standardTargetTypes[strings.ToLower(target)] = deviceType
		}
	}
}

// Device is one discovered device, parsed from a single response datagram.
// All text fields are best-effort extractions and may be empty; Address is
// the only field guaranteed non-empty for a device surfaced to a callback.
type Device struct {
	// Address is the device's IP address, taken from the announced URL.
	Address string

	// HardwareAddress is the MAC resolved from the kernel neighbour table.
	// Empty when resolution fails.
	HardwareAddress net.HardwareAddr

	// Port is the device's announced service port.
	Port int

	// Type is the classified device type, or DeviceUnknown.
	Type DeviceType

	// Raw response fields.
	SearchTarget      string
	UniqueServiceName string
	Location          string
	ServerBanner      string
	VendorService     string
}

// Clone returns a deep copy. Callbacks receive clones so the listener's read
// buffer and the original record can be reused immediately.
func (d *Device) Clone() *Device {
	clone := *d
	if d.HardwareAddress != nil {
		clone.HardwareAddress = make(net.HardwareAddr, len(d.HardwareAddress))
		copy(clone.HardwareAddress, d.HardwareAddress)
	}
	return &clone
}

// Callback is invoked asynchronously, once per newly observed device matching
// the directive it was registered with. Callbacks run on the engine's worker
// pool and may block without stalling the network loops.
type Callback func(device *Device)

// Handle references a registered search directive. Zero is never a valid
// handle; it is the sentinel returned by a failed StartDiscovery.
type Handle uint32

// directive is one caller's standing "find devices of this kind" request.
// It exists only while registered; seen and callback are owned exclusively
// by the directive and die with it.
type directive struct {
	handle     Handle
	deviceType DeviceType
	category   Category
	targets    []string
	callback   Callback

	// seen holds the addresses already reported to this directive's callback.
	// Grows monotonically for the directive's lifetime.
	seen map[string]struct{}
}
