package arp

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// DefaultTablePath is the kernel's IPv4 neighbour table.
const DefaultTablePath = "/proc/net/arp"

// tableColumns is the field count of a well-formed neighbour table row:
// IP address, HW type, Flags, HW address, Mask, Device.
const tableColumns = 6

// flagComplete marks a neighbour entry with a resolved hardware address.
const flagComplete = "0x2"

// Domain errors for neighbour table lookups.
var (
	// ErrUnavailable is returned when the neighbour table cannot be read.
	ErrUnavailable = errors.New("arp: neighbour table unavailable")

	// ErrNotFound is returned when the address has no complete entry.
	ErrNotFound = errors.New("arp: no entry for address")
)

// Resolver resolves IP addresses to hardware addresses via the kernel
// neighbour table. The zero value is not usable; use NewResolver.
//
// Lookups re-read the table on every call: entries churn as hosts come and
// go, and a discovery response is usually what populated the entry moments
// earlier.
type Resolver struct {
	// Path is the neighbour table location, overridable for tests.
	Path string
}

// NewResolver returns a Resolver reading the default kernel table.
func NewResolver() *Resolver {
	return &Resolver{Path: DefaultTablePath}
}

// Resolve returns the hardware address for the given IP address.
// Returns ErrUnavailable if the table cannot be read, or ErrNotFound if the
// address has no complete entry.
func (r *Resolver) Resolve(address string) (net.HardwareAddr, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return lookup(string(data), address)
}

// lookup scans neighbour table text for a complete entry matching address.
//
// Table format (header line then one row per neighbour):
//
//	IP address  HW type  Flags  HW address         Mask  Device
//	192.168.0.5 0x1      0x2    a4:77:33:01:02:03  *     eth0
func lookup(table, address string) (net.HardwareAddr, error) {
	lines := strings.Split(table, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // header
	}

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < tableColumns || fields[0] != address {
			continue
		}

		// Incomplete entries carry a zeroed hardware address.
		if fields[2] != flagComplete {
			continue
		}

		mac, err := net.ParseMAC(fields[3])
		if err != nil || isZero(mac) {
			continue
		}
		return mac, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
}

// isZero reports whether the hardware address is all zeroes.
func isZero(mac net.HardwareAddr) bool {
	for _, b := range mac {
		if b != 0 {
			return false
		}
	}
	return true
}
