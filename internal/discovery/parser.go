package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// AddressResolver resolves an IP address to a hardware address.
// Satisfied by *arp.Resolver; mocked in tests.
type AddressResolver interface {
	Resolve(address string) (net.HardwareAddr, error)
}

// Default ports selected by the announced URL's scheme.
const (
	defaultHTTPPort  = 80
	defaultHTTPSPort = 443
)

// responseFields holds the raw header values extracted from one datagram.
type responseFields struct {
	searchTarget      string
	uniqueServiceName string
	location          string
	serverBanner      string
	vendorService     string
	vendorNotify      bool
}

// parseResponse turns the raw text of one response datagram into a classified
// Device. The envelope is a set of newline-delimited HTTP-style header lines;
// every field except the announced address is a best-effort extraction.
//
// Returns ErrNoSourceAddress when no usable host can be extracted from the
// LOCATION/URL header. Hardware address resolution failure is not an error;
// the field is simply left empty.
func parseResponse(raw []byte, resolver AddressResolver) (*Device, error) {
	fields := parseHeaders(string(raw))

	host, port, err := parseAnnouncedURL(fields.location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSourceAddress, err)
	}

	device := &Device{
		Address:           host,
		Port:              port,
		Type:              classify(fields),
		SearchTarget:      fields.searchTarget,
		UniqueServiceName: fields.uniqueServiceName,
		Location:          fields.location,
		ServerBanner:      fields.serverBanner,
		VendorService:     fields.vendorService,
	}

	if resolver != nil {
		if mac, resolveErr := resolver.Resolve(host); resolveErr == nil {
			device.HardwareAddress = mac
		}
	}

	return device, nil
}

// parseHeaders scans the datagram's lines for the small fixed set of headers
// the classifier cares about. Header names match case-insensitively; unknown
// lines are ignored.
func parseHeaders(text string) responseFields {
	var fields responseFields

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")

		switch {
		case hasHeader(line, "ST"), hasHeader(line, "NT"):
			fields.searchTarget = headerValue(line)
		case hasHeader(line, "USN"):
			fields.uniqueServiceName = headerValue(line)
		case hasHeader(line, "LOCATION"), hasHeader(line, "URL"):
			fields.location = headerValue(line)
		case hasHeader(line, "SERVER"):
			fields.serverBanner = headerValue(line)
		case hasHeader(line, "SERVICE"):
			fields.vendorService = headerValue(line)
		case hasHeader(line, "TYPE"):
			if strings.EqualFold(headerValue(line), "WM-NOTIFY") {
				fields.vendorNotify = true
			}
		}
	}

	return fields
}

// hasHeader reports whether line starts with "name:" (case-insensitive).
func hasHeader(line, name string) bool {
	if len(line) <= len(name) || line[len(name)] != ':' {
		return false
	}
	return strings.EqualFold(line[:len(name)], name)
}

// headerValue returns the trimmed text after the first colon.
func headerValue(line string) string {
	_, value, _ := strings.Cut(line, ":")
	return strings.TrimSpace(value)
}

// classify derives the device type from the parsed fields, in order:
//
//  1. Exact (case-insensitive) match of the search target against the known
//     standard targets.
//  2. Bridge banner quirk: the bridge does not echo the requested target, so
//     its presence is inferred from the SERVER banner instead.
//  3. Vendor notify marker: a WM-NOTIFY message is the sole vendor type.
func classify(fields responseFields) DeviceType {
	if fields.searchTarget != "" {
		if deviceType, ok := standardTargetTypes[strings.ToLower(fields.searchTarget)]; ok {
			return deviceType
		}
	}

	if strings.Contains(fields.serverBanner, bridgeBannerMarker) {
		return DeviceBridge
	}

	if fields.vendorNotify {
		return DeviceSpeaker
	}

	return DeviceUnknown
}

// parseAnnouncedURL extracts host and port from the announced URL.
//
// The recognised scheme prefix selects the default port (http 80, https 443);
// a bare host with no scheme defaults to 80. The remainder splits on the
// first ':' (port) and first '/' (path), covering host:port/path, host/path,
// and bare host.
func parseAnnouncedURL(rawURL string) (host string, port int, err error) {
	rest := rawURL
	port = defaultHTTPPort

	switch {
	case cutPrefixFold(&rest, "http://"):
	case cutPrefixFold(&rest, "https://"):
		port = defaultHTTPSPort
	}

	// Drop the path, then split off an explicit port.
	rest, _, _ = strings.Cut(rest, "/")
	host, portText, hasPort := strings.Cut(rest, ":")

	if host == "" {
		return "", 0, fmt.Errorf("no host in %q", rawURL)
	}

	if hasPort {
		parsed, parseErr := strconv.Atoi(portText)
		if parseErr != nil || parsed <= 0 || parsed > 65535 {
			return "", 0, fmt.Errorf("bad port in %q", rawURL)
		}
		port = parsed
	}

	return host, port, nil
}

// cutPrefixFold strips prefix from *s case-insensitively, reporting success.
func cutPrefixFold(s *string, prefix string) bool {
	if len(*s) < len(prefix) || !strings.EqualFold((*s)[:len(prefix)], prefix) {
		return false
	}
	*s = (*s)[len(prefix):]
	return true
}
