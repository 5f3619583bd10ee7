// Package arp resolves IP addresses to hardware addresses using the kernel's
// IPv4 neighbour table (/proc/net/arp).
//
// Discovery responses arrive over UDP, so by the time a response is parsed
// the kernel has almost always learned the sender's MAC. Resolution is
// best-effort: callers treat a missing entry as "hardware address unknown",
// not as a failure.
package arp
