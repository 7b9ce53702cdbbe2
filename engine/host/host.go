// Package host runs an Engine behind an asynchronous request/response
// boundary: one worker goroutine, correlation IDs, per-request timeouts and
// restart after a worker crash.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/secondbrain/collections/engine"
	"github.com/secondbrain/collections/internal/logging"
)

// Executor is satisfied by *engine.Engine.
type Executor interface {
	Execute(ctx context.Context, op engine.Operation) (any, error)
}

type Options struct {
	// Timeout bounds reads and single-row writes.
	Timeout time.Duration
	// LongTimeout bounds imports and bulk operations.
	LongTimeout time.Duration
	QueueSize   int
	Logger      *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Timeout:     30 * time.Second,
		LongTimeout: 5 * time.Minute,
		QueueSize:   64,
		Logger:      slog.Default(),
	}
}

var longKinds = map[string]bool{
	engine.KindImportCollection: true,
	engine.KindBulkDeleteItems:  true,
	engine.KindBulkPatchItems:   true,
}

type call struct {
	id    string
	ctx   context.Context
	op    engine.Operation
	reply chan result
}

type result struct {
	data any
	err  error
}

// Host serializes operations onto a single worker.
type Host struct {
	exec Executor
	opts Options

	mu      sync.Mutex
	pending map[string]*call
	closed  bool

	queue    chan *call
	stop     chan struct{}
	stopped  chan struct{}
	once     sync.Once
	restarts atomic.Int64
}

func New(exec Executor, opts Options) *Host {
	d := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = d.Timeout
	}
	if opts.LongTimeout <= 0 {
		opts.LongTimeout = d.LongTimeout
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = d.QueueSize
	}
	if opts.Logger == nil {
		opts.Logger = d.Logger
	}
	h := &Host{
		exec:    exec,
		opts:    opts,
		pending: make(map[string]*call),
		queue:   make(chan *call, opts.QueueSize),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go h.loop()
	return h
}

// TimeoutFor returns the deadline applied to an operation kind.
func (h *Host) TimeoutFor(kind string) time.Duration {
	if longKinds[kind] {
		return h.opts.LongTimeout
	}
	return h.opts.Timeout
}

// Restarts reports how many times the worker has been restarted.
func (h *Host) Restarts() int64 { return h.restarts.Load() }

// Do submits op and waits for its result.
func (h *Host) Do(ctx context.Context, op engine.Operation) (any, error) {
	p, err := h.Submit(ctx, op)
	if err != nil {
		return nil, err
	}
	return p.Wait()
}

// Pending is a submitted request whose result has not been collected.
type Pending struct {
	h       *Host
	c       *call
	timer   *time.Timer
	timeout time.Duration
}

// Submit queues op behind every previously submitted request. It blocks
// while the queue is full. The request deadline starts now.
func (h *Host) Submit(ctx context.Context, op engine.Operation) (*Pending, error) {
	if op == nil {
		return nil, engine.ValidationError("type", "missing operation")
	}
	c := &call{id: uuid.NewString(), op: op, reply: make(chan result, 1)}
	if logging.GetRequestID(ctx) == "" {
		ctx = logging.WithRequestID(ctx, c.id)
	}
	c.ctx = ctx

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, engine.NotReadyError("host is closed")
	}
	h.pending[c.id] = c
	h.mu.Unlock()

	p := &Pending{h: h, c: c, timeout: h.TimeoutFor(op.Kind())}
	p.timer = time.NewTimer(p.timeout)

	select {
	case h.queue <- c:
		return p, nil
	case r := <-c.reply:
		// failed by a restart or Close while waiting for a queue slot
		p.timer.Stop()
		return nil, r.err
	case <-p.timer.C:
		return nil, p.expire("request timed out before it was queued")
	case <-ctx.Done():
		return nil, p.cancel()
	}
}

// Wait blocks until the result arrives, the deadline passes or the
// submitting context ends. A request that times out is failed with
// not_ready; if the worker already started it, the transaction still runs
// to commit or rollback and its result is dropped.
func (p *Pending) Wait() (any, error) {
	defer p.timer.Stop()
	select {
	case r := <-p.c.reply:
		return r.data, r.err
	case <-p.timer.C:
		return nil, p.expire("request timed out")
	case <-p.c.ctx.Done():
		return nil, p.cancel()
	}
}

func (p *Pending) expire(msg string) error {
	if r, ok := p.h.abandon(p.c); ok {
		return r.err
	}
	logging.With(p.c.ctx, p.h.opts.Logger).Warn(msg, "kind", p.c.op.Kind(), "timeout", p.timeout)
	return engine.NotReadyError(fmt.Sprintf("%s timed out after %s", p.c.op.Kind(), p.timeout))
}

func (p *Pending) cancel() error {
	p.timer.Stop()
	if r, ok := p.h.abandon(p.c); ok {
		return r.err
	}
	return engine.Wrap(engine.ErrNotReady, p.c.op.Kind()+" was abandoned", p.c.ctx.Err())
}

// Close stops the worker and fails every pending request. It waits for an
// operation already running to finish.
func (h *Host) Close() error {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.stop)
		h.mu.Unlock()
		<-h.stopped
		h.failPending("host closed")
	})
	return nil
}

// abandon drops c from the pending set. If an answer was already
// delivered it is returned instead.
func (h *Host) abandon(c *call) (result, bool) {
	h.mu.Lock()
	delete(h.pending, c.id)
	h.mu.Unlock()
	select {
	case r := <-c.reply:
		return r, true
	default:
		return result{}, false
	}
}

// take removes c from the pending set and reports whether it was still
// waiting for an answer.
func (h *Host) take(c *call) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending[c.id] != c {
		return false
	}
	delete(h.pending, c.id)
	return true
}

func (h *Host) isPending(c *call) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending[c.id] == c
}

func (h *Host) failPending(reason string) {
	h.mu.Lock()
	calls := h.pending
	h.pending = make(map[string]*call)
	h.mu.Unlock()
	for _, c := range calls {
		c.reply <- result{err: engine.NotReadyError(reason)}
	}
}

func (h *Host) loop() {
	defer close(h.stopped)
	for h.work() {
		n := h.restarts.Add(1)
		h.opts.Logger.Error("engine worker restarted", "restarts", n)
		h.failPending("engine worker restarted")
	}
}

// work processes the queue until stop is closed. It returns true when the
// worker crashed and must be restarted.
func (h *Host) work() (crashed bool) {
	var current *call
	defer func() {
		if r := recover(); r != nil {
			log := h.opts.Logger
			if current != nil {
				log = logging.With(current.ctx, log)
			}
			log.Error("engine worker crashed", "panic", fmt.Sprint(r))
			crashed = true
		}
	}()
	for {
		if h.stopping() {
			return false
		}
		select {
		case <-h.stop:
			return false
		case c := <-h.queue:
			current = c
			h.process(c)
			current = nil
		}
	}
}

func (h *Host) stopping() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}

func (h *Host) process(c *call) {
	if h.stopping() || !h.isPending(c) {
		return
	}
	// A started transaction is never cancelled.
	ctx := context.WithoutCancel(c.ctx)
	data, err := h.exec.Execute(ctx, c.op)
	if !h.take(c) {
		logging.With(ctx, h.opts.Logger).Debug("dropping late response", "kind", c.op.Kind())
		return
	}
	c.reply <- result{data: data, err: err}
}
