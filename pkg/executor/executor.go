// Package executor provides an isolated execution context for a render-dispatch loop.
//
// A Context owns a worker goroutine locked to its own OS thread that runs scheduled tasks
// in FIFO order, plus a body function running under the context's cancellation scope.
// Spawn returns only after the worker is running, so tasks scheduled immediately after
// Spawn are never lost.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
)

// ErrClosed is returned when scheduling onto a terminated context.
var ErrClosed = errors.New("execution context closed")

// Task is a unit of work run on the worker goroutine.
type Task func(ctx context.Context)

// Body is the long-running function of a context, typically the loop itself.
// When it returns the context terminates.
type Body func(ctx context.Context) error

// Context is an isolated execution context.
type Context struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	lock   bool

	mu     sync.Mutex
	queue  []Task
	closed bool
	err    error

	wake       chan struct{}
	ready      chan struct{}
	workerDone chan struct{}
	terminated chan struct{}
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithThreadLock controls whether the worker goroutine is locked to its OS thread.
// Enabled by default.
func WithThreadLock(lock bool) Option {
	return func(c *Context) {
		c.lock = lock
	}
}

// Spawn starts a new execution context and runs body on it.
// It blocks until the worker has signalled readiness or parent is cancelled.
func Spawn(parent context.Context, body Body, opts ...Option) (*Context, error) {
	if body == nil {
		return nil, errors.New("executor: nil body")
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	c := &Context{
		ctx:        ctx,
		cancel:     cancel,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		lock:       true,
		wake:       make(chan struct{}, 1),
		ready:      make(chan struct{}),
		workerDone: make(chan struct{}),
		terminated: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.work()

	select {
	case <-c.ready:
	case <-parent.Done():
		c.shutdown()
		<-c.workerDone
		close(c.terminated)
		return nil, parent.Err()
	}

	go c.run(body)
	return c, nil
}

// Ready is closed once the worker accepts tasks.
func (c *Context) Ready() <-chan struct{} {
	return c.ready
}

// Done is closed once both the body and the worker have finished.
func (c *Context) Done() <-chan struct{} {
	return c.terminated
}

// Err returns the error the body returned, if the context has terminated.
func (c *Context) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Context returns the cancellation scope shared by the body and every task.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Schedule enqueues task without blocking. Tasks run one at a time in the order they
// were scheduled. It returns ErrClosed once the context is terminating.
func (c *Context) Schedule(task Task) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.queue = append(c.queue, task)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close cancels the context and waits for the body and the worker to finish.
// It must not be called from a task. It returns the body's error, ignoring cancellation.
func (c *Context) Close() error {
	c.shutdown()
	<-c.terminated
	err := c.Err()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Context) shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

func (c *Context) run(body Body) {
	err := c.safeBody(body)

	c.mu.Lock()
	c.err = err
	c.mu.Unlock()

	c.shutdown()
	<-c.workerDone
	close(c.terminated)
}

func (c *Context) safeBody(body Body) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor: body panicked: %v", r)
		}
	}()
	return body(c.ctx)
}

func (c *Context) work() {
	if c.lock {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	defer close(c.workerDone)

	close(c.ready)
	for {
		task, ok := c.next()
		if !ok {
			c.mu.Lock()
			dropped := len(c.queue)
			c.queue = nil
			c.mu.Unlock()
			if dropped > 0 {
				c.logger.Debug("discarding pending tasks", "count", dropped)
			}
			return
		}
		c.execute(task)
	}
}

func (c *Context) next() (Task, bool) {
	for {
		if c.ctx.Err() != nil {
			return nil, false
		}
		c.mu.Lock()
		if len(c.queue) > 0 {
			task := c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return task, true
		}
		c.mu.Unlock()

		select {
		case <-c.wake:
		case <-c.ctx.Done():
			return nil, false
		}
	}
}

func (c *Context) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("task panicked", "panic", r)
		}
	}()
	task(c.ctx)
}
