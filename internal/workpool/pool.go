package workpool

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Default pool sizing.
const (
	defaultMinWorkers = 1
	defaultMaxWorkers = 4
	defaultQueueDepth = 64
)

// Task is one unit of work executed on a pool worker.
type Task func()

// Cleanup is invoked for a task that was accepted but never executed
// (the pool was stopped while it sat in the queue).
type Cleanup func()

// Config holds pool sizing.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// MinWorkers is the number of workers started immediately.
	// Default: 1.
	MinWorkers int

	// MaxWorkers caps workers spawned under queue pressure.
	// Default: 4.
	MaxWorkers int

	// QueueDepth is the bounded task queue size. Submissions beyond this
	// are rejected, never blocked on. Default: 64.
	QueueDepth int
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Stats holds operational counters.
type Stats struct {
	Submitted uint64
	Completed uint64
	Rejected  uint64
	Workers   int
}

// job pairs a task with its abandonment cleanup.
type job struct {
	task    Task
	cleanup Cleanup
}

// Pool is a bounded worker pool. Submissions never block: when the queue is
// full and no more workers may be spawned, Submit reports failure and the
// caller decides what to do with the task.
//
// Thread Safety: all methods are safe for concurrent use.
type Pool struct {
	cfg   Config
	queue chan job

	// spawnMu serialises worker-growth decisions.
	spawnMu sync.Mutex
	workers int

	// Shutdown coordination (stopOnce prevents double-close panics).
	done     chan struct{}
	stopped  atomic.Bool
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Statistics (atomic for performance).
	submitted atomic.Uint64
	completed atomic.Uint64
	rejected  atomic.Uint64

	// Logger (optional).
	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a pool and starts its minimum worker count.
// Call Stop to shut down.
func New(cfg Config) *Pool {
	if cfg.MinWorkers <= 0 {
		cfg.MinWorkers = defaultMinWorkers
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = max(cfg.MinWorkers, defaultMaxWorkers)
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = defaultQueueDepth
	}

	p := &Pool{
		cfg:   cfg,
		queue: make(chan job, cfg.QueueDepth),
		done:  make(chan struct{}),
	}

	p.spawnMu.Lock()
	for i := 0; i < cfg.MinWorkers; i++ {
		p.spawnWorkerLocked()
	}
	p.spawnMu.Unlock()

	return p
}

// SetLogger sets the logger for the pool.
func (p *Pool) SetLogger(logger Logger) {
	p.loggerMu.Lock()
	p.logger = logger
	p.loggerMu.Unlock()
}

// Submit enqueues a task. It never blocks: the return value reports whether
// the task was accepted. cleanup may be nil; when non-nil it runs if the pool
// stops before the task executes.
func (p *Pool) Submit(task Task, cleanup Cleanup) bool {
	if task == nil || p.stopped.Load() {
		p.rejected.Add(1)
		return false
	}

	select {
	case p.queue <- job{task: task, cleanup: cleanup}:
		p.submitted.Add(1)
		// Stop can run to completion, drain included, between the stopped
		// check above and the enqueue. Re-check and drain so the job is
		// never stranded with neither its task nor its cleanup run.
		if p.stopped.Load() {
			p.drainQueue()
			return true
		}
		p.growIfPressured()
		return true
	default:
		p.rejected.Add(1)
		return false
	}
}

// growIfPressured spawns an extra worker when the queue is at least half full
// and the cap allows it. The pool never shrinks back.
func (p *Pool) growIfPressured() {
	if len(p.queue) < cap(p.queue)/2 {
		return
	}

	p.spawnMu.Lock()
	defer p.spawnMu.Unlock()

	if p.workers >= p.cfg.MaxWorkers || p.stopped.Load() {
		return
	}
	p.spawnWorkerLocked()
	p.logDebug("grew worker pool", "name", p.cfg.Name, "workers", p.workers)
}

// spawnWorkerLocked starts one worker. Caller holds spawnMu.
func (p *Pool) spawnWorkerLocked() {
	p.workers++
	p.wg.Add(1)
	go p.worker()
}

// worker executes queued tasks until the pool stops.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case j := <-p.queue:
			p.runTask(j.task)
		}
	}
}

// runTask executes one task with panic recovery.
func (p *Pool) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logError("task panic recovered", fmt.Errorf("%v", r))
		}
	}()

	task()
	p.completed.Add(1)
}

// Stop shuts the pool down: no further submissions are accepted, workers are
// joined, and cleanup runs for any tasks left in the queue. Safe to call
// multiple times.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.done)
		p.wg.Wait()
		p.drainQueue()
	})
}

// drainQueue abandons remaining tasks, running their cleanups.
func (p *Pool) drainQueue() {
	for {
		select {
		case j := <-p.queue:
			if j.cleanup != nil {
				j.cleanup()
			}
		default:
			return
		}
	}
}

// Stats returns current operational counters.
func (p *Pool) Stats() Stats {
	p.spawnMu.Lock()
	workers := p.workers
	p.spawnMu.Unlock()

	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Rejected:  p.rejected.Load(),
		Workers:   workers,
	}
}

// logDebug logs a debug message if logger is set.
func (p *Pool) logDebug(msg string, keysAndValues ...any) {
	p.loggerMu.RLock()
	logger := p.logger
	p.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (p *Pool) logError(msg string, err error) {
	p.loggerMu.RLock()
	logger := p.logger
	p.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
