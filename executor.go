package patio

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"code.hybscloud.com/iox"
	"github.com/panjf2000/ants/v2"
	"github.com/puzpuzpuz/xsync/v4"
)

const (
	// DefaultPoolSize is the capacity of an executor's worker pool.
	DefaultPoolSize = 1024

	// ExpiryDuration is the interval time to clean up expired workers.
	ExpiryDuration = 10 * time.Second
)

// Executor drives operations to completion on a bounded pool of goroutines. Each
// submitted operation is owned by one worker until it completes, so the
// single-owner rule of Operation still holds.
type Executor struct {
	pool   *ants.Pool
	log    *slog.Logger
	policy iox.SemanticPolicy
	base   time.Duration
	max    time.Duration

	submitted *xsync.Counter
	completed *xsync.Counter
	failed    *xsync.Counter
	panicked  *xsync.Counter
}

type executorOptions struct {
	size     int
	log      *slog.Logger
	policy   iox.SemanticPolicy
	base     time.Duration
	max      time.Duration
	blocking bool
}

// Option configures an Executor.
type Option func(*executorOptions)

// WithPoolSize sets the number of workers.
func WithPoolSize(n int) Option { return func(o *executorOptions) { o.size = n } }

// WithBackoff sets the base and maximum sleep between polls that would block.
func WithBackoff(base, max time.Duration) Option {
	return func(o *executorOptions) { o.base, o.max = base, max }
}

// WithLogger sets the logger for submissions and failures.
func WithLogger(l *slog.Logger) Option { return func(o *executorOptions) { o.log = l } }

// WithPolicy makes workers wait through policy instead of sleeping with a backoff.
// A policy that returns PolicyReturn ends the operation with the would-block error.
func WithPolicy(p iox.SemanticPolicy) Option { return func(o *executorOptions) { o.policy = p } }

// WithBlockingSubmit makes Go wait for a free worker instead of starting an extra
// goroutine when the pool is full.
func WithBlockingSubmit() Option { return func(o *executorOptions) { o.blocking = true } }

type antsLogger struct{ log *slog.Logger }

func (l antsLogger) Printf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

// NewExecutor creates an executor.
func NewExecutor(opts ...Option) (*Executor, error) {
	o := executorOptions{
		size: DefaultPoolSize,
		log:  slog.Default(),
		base: iox.DefaultBackoffBase,
		max:  iox.DefaultBackoffMax,
	}
	for _, opt := range opts {
		opt(&o)
	}
	e := &Executor{
		log:       o.log,
		policy:    o.policy,
		base:      o.base,
		max:       o.max,
		submitted: xsync.NewCounter(),
		completed: xsync.NewCounter(),
		failed:    xsync.NewCounter(),
		panicked:  xsync.NewCounter(),
	}
	pool, err := ants.NewPool(o.size, ants.WithOptions(ants.Options{
		ExpiryDuration: ExpiryDuration,
		Nonblocking:    !o.blocking,
		PanicHandler: func(v any) {
			o.log.Error("panic on worker", "panic", v, "stack", string(debug.Stack()))
		},
		Logger: antsLogger{log: o.log},
	}))
	if err != nil {
		return nil, err
	}
	e.pool = pool
	return e, nil
}

// Close releases the workers. Operations already running finish; later Go calls
// complete immediately with an error.
func (e *Executor) Close() { e.pool.Release() }

// Running returns the number of busy workers.
func (e *Executor) Running() int { return e.pool.Running() }

// Stats is a snapshot of an executor's counters.
type Stats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Panicked  int64
}

func (e *Executor) Stats() Stats {
	return Stats{
		Submitted: e.submitted.Value(),
		Completed: e.completed.Value(),
		Failed:    e.failed.Value(),
		Panicked:  e.panicked.Value(),
	}
}

// Future is the eventual result of an operation submitted to an Executor.
type Future[S, T any] struct {
	done  chan struct{}
	s     S
	v     T
	err   error
	panic any
}

// Done is closed when the operation has completed.
func (f *Future[S, T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the operation completes and returns its result. A panic raised
// while polling the operation is raised again here.
func (f *Future[S, T]) Wait() (S, T, error) {
	<-f.done
	if f.panic != nil {
		panic(f.panic)
	}
	return f.s, f.v, f.err
}

// Go hands op to a worker of e, which polls it until it completes or ctx is done.
func Go[S, T any](ctx context.Context, e *Executor, op Operation[S, T]) *Future[S, T] {
	f := &Future[S, T]{done: make(chan struct{})}
	e.submitted.Inc()
	task := func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				e.panicked.Inc()
				e.log.Error("operation panicked", "panic", r)
				f.panic = r
			}
		}()
		f.s, f.v, f.err = driveOn(ctx, e, op)
		e.completed.Inc()
		if f.err != nil {
			e.failed.Inc()
			e.log.Debug("operation failed", "err", f.err)
		}
	}

	err := e.pool.Submit(task)
	switch err {
	case nil:
	case ants.ErrPoolOverload:
		e.log.Warn("goroutine pool overloaded", "running", e.pool.Running())
		go task()
	default:
		e.failed.Inc()
		f.err = err
		close(f.done)
	}
	return f
}

func driveOn[S, T any](ctx context.Context, e *Executor, op Operation[S, T]) (S, T, error) {
	if e.policy == nil {
		var b iox.Backoff
		b.SetBase(e.base)
		b.SetMax(e.max)
		return awaitWith(ctx, op, b.Wait)
	}
	side := sideOf[S]()
	for {
		if err := ctx.Err(); err != nil {
			var (
				s S
				v T
			)
			return s, v, context.Cause(ctx)
		}
		s, v, err := op.Poll()
		if !IsWouldBlock(err) || e.policy.OnWouldBlock(side) != iox.PolicyRetry {
			return s, v, err
		}
		e.policy.Yield(side)
	}
}
