package discovery

import "fmt"

// Wire protocol constants.
const (
	// DefaultGroup is the well-known SSDP multicast group.
	DefaultGroup = "239.255.255.250"

	// DefaultPort is the well-known SSDP discovery port.
	DefaultPort = 1900

	// responseDelayHint is the MX header value: the maximum number of seconds
	// a device may wait before answering, to spread responses out.
	responseDelayHint = 3
)

// buildSearchRequest frames a standard M-SEARCH discovery request for one
// search target.
func buildSearchRequest(target string) []byte {
	return fmt.Appendf(nil,
		"M-SEARCH * HTTP/1.1\r\n"+
			"HOST: %s:%d\r\n"+
			"MAN: \"ssdp:discover\"\r\n"+
			"MX: %d\r\n"+
			"ST: %s\r\n"+
			"\r\n",
		DefaultGroup, DefaultPort, responseDelayHint, target)
}

// buildVendorRequest frames a WM-DISCOVER request for one vendor service name.
// Vendor devices ignore M-SEARCH and answer only this framing.
func buildVendorRequest(service string) []byte {
	return fmt.Appendf(nil,
		"TYPE: WM-DISCOVER\r\n"+
			"VERSION: 1.0\r\n"+
			"\r\n"+
			"services: %s\r\n",
		service)
}
