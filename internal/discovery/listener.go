package discovery

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-discovery/internal/workpool"
)

// listenLoop reads response datagrams from the shared socket, parses them, and
// dispatches matches to registered callbacks. Each read is bounded by the
// configured deadline so the loop can notice the stop signal. A non-timeout
// read failure stops the loop (fail-stop); the next StartDiscovery restarts it.
func (e *Engine) listenLoop(conn net.PacketConn, stop chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	buffer := make([]byte, e.cfg.ReadBufferSize)

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(e.cfg.ReadTimeout)); err != nil {
			e.failListener(err, stop)
			return
		}

		n, _, err := conn.ReadFrom(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			select {
			case <-stop:
				return
			default:
			}

			e.failListener(err, stop)
			return
		}

		e.responsesRx.Add(1)

		device, parseErr := parseResponse(buffer[:n], e.cfg.Resolver)
		if parseErr != nil {
			e.parseFailures.Add(1)
			e.logWarn("discarded unparseable response", "error", parseErr.Error())
			continue
		}

		e.dispatch(device)
	}
}

// failListener records a fatal listener error and flips the running flag so a
// future StartDiscovery restarts the loop.
func (e *Engine) failListener(err error, stop chan struct{}) {
	e.logError("discovery listener failed, stopping", err)
	e.clearRunningFlag(&e.listenerRunning, stop)
}

// clearRunningFlag flips a loop's running flag after a fatal error, unless the
// loop's lifetime has already been torn down. The stop check keeps a dying
// loop from clobbering the flags of a successor lifetime.
func (e *Engine) clearRunningFlag(flag *bool, stop chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-stop:
	default:
		*flag = false
	}
}

// dispatch matches one parsed device against every registered directive and
// queues a callback for each first sighting. The address is marked seen only
// when the queue accepts the task, so an overflowed dispatch is retried when
// the device answers the next broadcast.
func (e *Engine) dispatch(device *Device) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, d := range e.directives {
		if d.deviceType != device.Type {
			continue
		}
		if _, dup := d.seen[device.Address]; dup {
			continue
		}

		clone := device.Clone()
		callback := d.callback
		accepted := e.ensurePoolLocked().Submit(func() { callback(clone) }, nil)
		if !accepted {
			e.dispatchDropped.Add(1)
			e.logWarn("callback queue full, dropping dispatch",
				"address", device.Address,
				"device_type", string(device.Type))
			continue
		}

		d.seen[device.Address] = struct{}{}
		e.devicesMatched.Add(1)
		e.logInfo("device matched",
			"address", device.Address,
			"device_type", string(device.Type),
			"handle", uint32(d.handle))
	}
}

// ensurePoolLocked returns the callback pool, creating it on first use.
// Caller holds mu. The pool outlives directive churn so repeated start/stop
// cycles do not pay worker startup each time.
func (e *Engine) ensurePoolLocked() *workpool.Pool {
	if e.pool == nil {
		e.pool = workpool.New(workpool.Config{
			Name:       "discovery-callbacks",
			MinWorkers: e.cfg.PoolMinWorkers,
			MaxWorkers: e.cfg.PoolMaxWorkers,
			QueueDepth: e.cfg.PoolQueueDepth,
		})

		e.loggerMu.RLock()
		logger := e.logger
		e.loggerMu.RUnlock()
		if logger != nil {
			e.pool.SetLogger(logger)
		}
	}
	return e.pool
}
