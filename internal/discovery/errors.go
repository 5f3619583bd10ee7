package discovery

import "errors"

// Domain errors for the discovery engine.
var (
	// ErrUnsupportedType is returned when StartDiscovery is called with a
	// device type that has no search-target mapping.
	ErrUnsupportedType = errors.New("discovery: unsupported device type")

	// ErrNilCallback is returned when StartDiscovery is called without a
	// callback.
	ErrNilCallback = errors.New("discovery: callback is required")

	// ErrSocketFailed is returned when the shared multicast socket cannot be
	// created or bound. The call registers nothing.
	ErrSocketFailed = errors.New("discovery: multicast socket setup failed")

	// ErrNoSourceAddress is returned by the response parser when no usable
	// host address can be extracted from a datagram.
	ErrNoSourceAddress = errors.New("discovery: response has no source address")
)
