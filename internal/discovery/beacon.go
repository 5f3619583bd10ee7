package discovery

import (
	"net"
	"sync"
	"time"
)

// beaconLoop broadcasts a round of discovery requests, sleeps for the
// configured interval, and repeats. A send failure stops the loop (fail-stop);
// the next StartDiscovery restarts it.
func (e *Engine) beaconLoop(conn net.PacketConn, stop chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		if !e.broadcastOnce(conn) {
			e.clearRunningFlag(&e.beaconRunning, stop)
			return
		}

		select {
		case <-stop:
			return
		case <-time.After(e.cfg.BeaconInterval):
		}
	}
}

// broadcastOnce sends one discovery request per distinct search target across
// all registered directives. The request set is snapshotted under the lock and
// sent outside it so a slow send never stalls register/unregister calls.
// Reports false on a send error.
func (e *Engine) broadcastOnce(conn net.PacketConn) bool {
	e.mu.Lock()
	sent := make(map[string]struct{})
	var messages [][]byte
	for _, d := range e.directives {
		for _, target := range d.targets {
			key := string(d.category) + "|" + target
			if _, dup := sent[key]; dup {
				continue
			}
			sent[key] = struct{}{}

			if d.category == CategoryVendor {
				messages = append(messages, buildVendorRequest(target))
			} else {
				messages = append(messages, buildSearchRequest(target))
			}
		}
	}
	e.mu.Unlock()

	for _, message := range messages {
		if _, err := conn.WriteTo(message, e.group); err != nil {
			e.logError("discovery broadcast failed, announcer stopping", err)
			return false
		}
		e.beaconsTx.Add(1)
	}

	return true
}
