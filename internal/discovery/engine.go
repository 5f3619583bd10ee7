package discovery

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-discovery/internal/arp"
	"github.com/nerrad567/gray-logic-discovery/internal/workpool"
)

// Default engine tunables.
const (
	// defaultBeaconInterval is the pause between broadcast rounds.
	defaultBeaconInterval = 5 * time.Second

	// defaultReadTimeout bounds each socket read so the listener can recheck
	// its running flag.
	defaultReadTimeout = 1 * time.Second

	// defaultReadBufferSize fits any sane discovery response datagram.
	defaultReadBufferSize = 2048

	// Callback pool sizing.
	defaultPoolMinWorkers = 1
	defaultPoolMaxWorkers = 4
	defaultPoolQueueDepth = 64
)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config holds engine tunables. The zero value is usable: every field has a
// sensible default applied by New.
type Config struct {
	// Group is the multicast group address. Default: 239.255.255.250.
	Group string

	// Port is the discovery port. Default: 1900.
	Port int

	// BeaconInterval is the pause between broadcast rounds. Default: 5s.
	BeaconInterval time.Duration

	// ReadTimeout bounds each socket read. Default: 1s.
	ReadTimeout time.Duration

	// ReadBufferSize is the receive buffer size. Default: 2048.
	ReadBufferSize int

	// Callback pool sizing. Defaults: 1 min, 4 max, 64 queued.
	PoolMinWorkers int
	PoolMaxWorkers int
	PoolQueueDepth int

	// Resolver maps a discovered IP to a hardware address.
	// Default: the kernel neighbour table resolver.
	Resolver AddressResolver
}

// applyDefaults fills zero fields in place.
func (c *Config) applyDefaults() {
	if c.Group == "" {
		c.Group = DefaultGroup
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.BeaconInterval <= 0 {
		c.BeaconInterval = defaultBeaconInterval
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = defaultReadBufferSize
	}
	if c.PoolMinWorkers <= 0 {
		c.PoolMinWorkers = defaultPoolMinWorkers
	}
	if c.PoolMaxWorkers <= 0 {
		c.PoolMaxWorkers = defaultPoolMaxWorkers
	}
	if c.PoolQueueDepth <= 0 {
		c.PoolQueueDepth = defaultPoolQueueDepth
	}
	if c.Resolver == nil {
		c.Resolver = arp.NewResolver()
	}
}

// Stats holds operational counters.
type Stats struct {
	BeaconsTx        uint64
	ResponsesRx      uint64
	ParseFailures    uint64
	DevicesMatched   uint64
	DispatchDropped  uint64
	ActiveDirectives int
	BeaconRunning    bool
	ListenerRunning  bool
}

// Engine discovers network-attached devices via multicast announce/response
// exchange and notifies registered callbacks asynchronously.
//
// Any number of directives share one multicast socket and one pair of
// background loops; the socket and loops exist exactly while at least one
// directive is registered. Engines are independent: create several for
// isolated discovery domains or deterministic tests.
//
// Thread Safety: all methods are safe for concurrent use.
type Engine struct {
	cfg Config

	// mu guards directives, the socket lifetime fields, and both running
	// flags. The blocking syscalls themselves (send, read) run outside the
	// lock.
	//
	// conn, stop, and wg share one lifetime: all three are created when the
	// first directive opens the socket and cleared together when the last
	// directive tears it down, so a StartDiscovery racing a teardown can
	// never attach loops to a dying socket.
	mu         sync.Mutex
	directives map[Handle]*directive
	conn       net.PacketConn
	stop       chan struct{}
	wg         *sync.WaitGroup

	beaconRunning   bool
	listenerRunning bool

	// pool is created lazily on the first match and survives directive
	// churn; it never shrinks back.
	pool *workpool.Pool

	// nextHandle is monotonically increasing and never reused while the
	// engine lives, so a handle freed by one caller cannot alias another's.
	nextHandle atomic.Uint32

	group *net.UDPAddr

	// listenPacket creates the shared socket; replaced in tests.
	listenPacket func() (net.PacketConn, error)

	// Statistics (atomic for performance).
	beaconsTx       atomic.Uint64
	responsesRx     atomic.Uint64
	parseFailures   atomic.Uint64
	devicesMatched  atomic.Uint64
	dispatchDropped atomic.Uint64

	// Logger (optional).
	logger   Logger
	loggerMu sync.RWMutex
}

// New creates an idle engine. No socket is opened and no goroutines are
// started until the first StartDiscovery call.
func New(cfg Config) *Engine {
	cfg.applyDefaults()

	group := &net.UDPAddr{
		IP:   net.ParseIP(cfg.Group),
		Port: cfg.Port,
	}

	e := &Engine{
		cfg:        cfg,
		directives: make(map[Handle]*directive),
		group:      group,
	}
	e.listenPacket = func() (net.PacketConn, error) {
		return net.ListenMulticastUDP("udp4", nil, group)
	}

	return e
}

// SetLogger sets the logger for the engine and its callback pool.
func (e *Engine) SetLogger(logger Logger) {
	e.loggerMu.Lock()
	e.logger = logger
	e.loggerMu.Unlock()

	e.mu.Lock()
	pool := e.pool
	e.mu.Unlock()
	if pool != nil {
		pool.SetLogger(logger)
	}
}

// StartDiscovery registers a search directive for the given device type and
// returns its handle. The callback is invoked asynchronously, once per newly
// observed device of that type, until StopDiscovery is called with the
// returned handle.
//
// On the first directive the shared multicast socket is created and both
// background loops start. Socket setup failure aborts the call with handle 0
// and registers nothing.
func (e *Engine) StartDiscovery(deviceType DeviceType, callback Callback) (Handle, error) {
	set, ok := searchTable[deviceType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, deviceType)
	}
	if callback == nil {
		return 0, ErrNilCallback
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn == nil {
		conn, err := e.listenPacket()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrSocketFailed, err)
		}
		e.conn = conn
		e.stop = make(chan struct{})
		e.wg = &sync.WaitGroup{}
	}

	handle := Handle(e.nextHandle.Add(1))
	targets := make([]string, len(set.targets))
	copy(targets, set.targets)

	e.directives[handle] = &directive{
		handle:     handle,
		deviceType: deviceType,
		category:   set.category,
		targets:    targets,
		callback:   callback,
		seen:       make(map[string]struct{}),
	}

	if !e.listenerRunning {
		e.listenerRunning = true
		e.wg.Add(1)
		go e.listenLoop(e.conn, e.stop, e.wg)
	}
	if !e.beaconRunning {
		e.beaconRunning = true
		e.wg.Add(1)
		go e.beaconLoop(e.conn, e.stop, e.wg)
	}

	e.logInfo("directive registered",
		"handle", uint32(handle),
		"device_type", string(deviceType),
		"directives", len(e.directives))

	return handle, nil
}

// StopDiscovery removes the directive for the given handle, destroying its
// dedup set and dropping its callback. Unknown handles are a no-op.
//
// Removing the last directive tears the engine down: both loops are told to
// stop, joined, and the socket is closed. The call blocks until both loops
// have exited, so the socket is never closed under a live loop. A later
// StartDiscovery builds everything afresh.
func (e *Engine) StopDiscovery(handle Handle) {
	e.mu.Lock()

	if len(e.directives) == 0 {
		e.mu.Unlock()
		return
	}
	if _, ok := e.directives[handle]; !ok {
		e.mu.Unlock()
		return
	}
	delete(e.directives, handle)

	if len(e.directives) > 0 {
		remaining := len(e.directives)
		e.mu.Unlock()
		e.logInfo("directive removed", "handle", uint32(handle), "directives", remaining)
		return
	}

	// Last directive gone: stop both loops and close the socket. The
	// lifetime fields are cleared before dropping the lock so a concurrent
	// StartDiscovery builds a fresh socket instead of joining this one. The
	// join itself runs unlocked because the listener may hold its read
	// deadline open for up to ReadTimeout.
	e.beaconRunning = false
	e.listenerRunning = false
	close(e.stop)
	conn := e.conn
	wg := e.wg
	e.conn = nil
	e.stop = nil
	e.wg = nil
	e.mu.Unlock()

	wg.Wait()
	conn.Close()

	e.logInfo("last directive removed, engine stopped", "handle", uint32(handle))
}

// Shutdown removes every directive (tearing down socket and loops) and stops
// the callback pool. Intended for process shutdown; a plain StopDiscovery
// cycle keeps the pool warm for the next start.
func (e *Engine) Shutdown() {
	for {
		e.mu.Lock()
		var handle Handle
		found := false
		for h := range e.directives {
			handle = h
			found = true
			break
		}
		e.mu.Unlock()

		if !found {
			break
		}
		e.StopDiscovery(handle)
	}

	e.mu.Lock()
	pool := e.pool
	e.pool = nil
	e.mu.Unlock()

	if pool != nil {
		pool.Stop()
	}
}

// Stats returns current operational counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	active := len(e.directives)
	beacon := e.beaconRunning
	listener := e.listenerRunning
	e.mu.Unlock()

	return Stats{
		BeaconsTx:        e.beaconsTx.Load(),
		ResponsesRx:      e.responsesRx.Load(),
		ParseFailures:    e.parseFailures.Load(),
		DevicesMatched:   e.devicesMatched.Load(),
		DispatchDropped:  e.dispatchDropped.Load(),
		ActiveDirectives: active,
		BeaconRunning:    beacon,
		ListenerRunning:  listener,
	}
}

// logInfo logs an info message if logger is set.
func (e *Engine) logInfo(msg string, keysAndValues ...any) {
	e.loggerMu.RLock()
	logger := e.logger
	e.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (e *Engine) logWarn(msg string, keysAndValues ...any) {
	e.loggerMu.RLock()
	logger := e.logger
	e.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (e *Engine) logError(msg string, err error) {
	e.loggerMu.RLock()
	logger := e.logger
	e.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
