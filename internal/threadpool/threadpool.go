// Package threadpool implements the fixed-size-but-growable worker ring
// used for background segment flush and GC scheduling: a ring of worker
// goroutines, each either IDLE or RUNNING, found (or spawned) by Submit
// and handed one function to run before reverting to IDLE. Each worker
// parks on its own sync.Cond; the ring's "find an idle worker, else
// spawn one, else block" admission control is a weighted semaphore
// sized to MaxSize.
package threadpool

import (
	"context"
	stdErrors "errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrClosed is returned by Submit once the pool has been closed.
	ErrClosed = stdErrors.New("threadpool: pool is closed")

	// ErrInvalidArgument is returned for malformed Config or a nil fn.
	ErrInvalidArgument = stdErrors.New("threadpool: invalid argument")
)

type workerState int

const (
	stateIdle workerState = iota
	stateRunning
	stateStopped
)

// worker is one ring member: a goroutine parked on its own condition
// variable between tasks.
type worker struct {
	pool *Pool
	id   int

	mu    sync.Mutex
	cond  *sync.Cond
	state workerState
	fn    func()
}

func newWorker(p *Pool, id int) *worker {
	w := &worker{pool: p, id: id, state: stateIdle}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// run waits for a function to arrive, runs it, reverts to IDLE, and
// loops. It exits only when the pool is stopped.
func (w *worker) run() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		for w.state != stateRunning && w.state != stateStopped {
			w.cond.Wait()
		}
		if w.state == stateStopped {
			return
		}

		fn := w.fn
		w.fn = nil
		w.mu.Unlock()
		fn()
		w.mu.Lock()

		// A stop that landed while fn was running must win; reverting to
		// IDLE here would strand this goroutine in the wait loop forever.
		if w.state == stateStopped {
			return
		}
		w.state = stateIdle
		w.pool.workerWentIdle(w)
	}
}

// assign hands fn to the worker and wakes it. Callers must not hold
// w.pool.mu while calling this (it only takes w.mu).
func (w *worker) assign(fn func()) {
	w.mu.Lock()
	w.state = stateRunning
	w.fn = fn
	w.cond.Signal()
	w.mu.Unlock()
}

func (w *worker) stop() {
	w.mu.Lock()
	w.state = stateStopped
	w.cond.Signal()
	w.mu.Unlock()
}

// Pool is the worker ring itself.
type Pool struct {
	mu      sync.Mutex
	workers []*worker
	idle    []*worker // subset of workers currently IDLE, used as a free list

	maxSize int
	sem     *semaphore.Weighted // admission control: at most maxSize fn's run concurrently
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool

	log *zap.SugaredLogger
}

// Config describes a pool's initial and maximum size.
type Config struct {
	// Size is the number of workers spawned eagerly at pool creation.
	Size int

	// MaxSize caps the total number of workers, including the Size
	// spawned eagerly; more are spawned on demand, up to this cap, when
	// every existing worker is busy. A MaxSize below Size is raised to
	// Size. An uncapped pool would let a burst of flush work spawn
	// goroutines without limit.
	MaxSize int

	Logger *zap.SugaredLogger
}

// New creates a pool and spawns cfg.Size workers immediately.
func New(cfg *Config) (*Pool, error) {
	if cfg == nil || cfg.Logger == nil {
		return nil, errInvalidArgument("threadpool config and logger are required")
	}
	if cfg.Size <= 0 {
		return nil, errInvalidArgument("threadpool size must be positive")
	}
	if cfg.MaxSize < cfg.Size {
		cfg.MaxSize = cfg.Size
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		maxSize: cfg.MaxSize,
		sem:     semaphore.NewWeighted(int64(cfg.MaxSize)),
		ctx:     ctx,
		cancel:  cancel,
		log:     cfg.Logger,
	}

	for i := 0; i < cfg.Size; i++ {
		w := newWorker(p, i)
		p.workers = append(p.workers, w)
		p.idle = append(p.idle, w)
	}

	cfg.Logger.Infow("threadpool started", "size", cfg.Size, "maxSize", cfg.MaxSize)
	return p, nil
}

// Submit hands fn to an idle worker, spawning a new one if none is
// idle and the pool hasn't reached MaxSize, else blocking until one
// frees up. fn runs fire-and-forget: Submit does not wait for it to
// finish.
func (p *Pool) Submit(fn func()) error {
	if fn == nil {
		return errInvalidArgument("fn must not be nil")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errClosed()
	}
	p.mu.Unlock()

	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		return errClosed()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return errClosed()
	}

	var w *worker
	if len(p.idle) > 0 {
		w = p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
	} else {
		w = newWorker(p, len(p.workers))
		p.workers = append(p.workers, w)
	}
	p.mu.Unlock()

	w.assign(fn)
	return nil
}

// workerWentIdle returns w to the free list and releases one admission
// permit, waking a Submit call blocked on capacity. Called by the
// worker's own goroutine with w.mu held, so it must not try to
// re-acquire w.mu.
func (p *Pool) workerWentIdle(w *worker) {
	p.mu.Lock()
	p.idle = append(p.idle, w)
	p.mu.Unlock()
	p.sem.Release(1)
}

// Close stops every worker. Workers already running a function are
// allowed to finish it; Close does not wait for in-flight work.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	workers := append([]*worker(nil), p.workers...)
	p.mu.Unlock()

	p.cancel()
	for _, w := range workers {
		w.stop()
	}

	p.log.Infow("threadpool stopped", "workers", len(workers))
	return nil
}

// Size reports how many workers the pool currently has spawned.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

func errInvalidArgument(msg string) error {
	return stdErrors.New("threadpool: " + msg)
}

func errClosed() error {
	return ErrClosed
}
