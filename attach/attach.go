package attach

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// AcquireFunc performs a side effect (registering a listener, opening a
// subscription) and returns the Disposable that undoes it. It is called at
// most once per launched task and must not block on ctx itself.
type AcquireFunc func(ctx context.Context) (Disposable, error)

// Scope is the slice of a structured-concurrency scope this package needs.
// *scope.Scope satisfies it.
type Scope interface {
	Context() context.Context
	Go(fn func(ctx context.Context) error)
}

// StartPolicy controls when a launched task runs its acquire step.
type StartPolicy int

const (
	// StartImmediate runs acquire as soon as the task is scheduled.
	StartImmediate StartPolicy = iota
	// StartLazy defers acquire until Handle.Start. A lazy task cancelled
	// before Start never calls acquire.
	StartLazy
	// StartSync runs acquire on the caller's goroutine before Launch
	// returns, so the side effect is in place when the caller resumes.
	StartSync
)

// State reports where a launched task is in its lifecycle.
type State int32

const (
	StateCreated   State = iota // launched, acquire not yet started
	StateAcquiring              // acquire in flight
	StateWaiting                // holding the resource, parked until cancel
	StateDisposed               // terminal: cancelled, resource released (or never acquired)
	StateFailed                 // terminal: acquire or release failed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAcquiring:
		return "acquiring"
	case StateWaiting:
		return "waiting"
	case StateDisposed:
		return "disposed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Option func(*Options)

type Options struct {
	Start  StartPolicy
	Values context.Context
}

func defaultOptions() Options { return Options{Start: StartImmediate} }

// WithStart selects the start policy. Default is StartImmediate.
func WithStart(p StartPolicy) Option { return func(o *Options) { o.Start = p } }

// WithValues supplies the context the task runs under, for value propagation
// or an alternate deadline. Cancellation of the scope still cancels the
// task. Default is to inherit the scope's context.
func WithValues(ctx context.Context) Option { return func(o *Options) { o.Values = ctx } }

// Handle is the caller's view of a launched task. It can start a lazy task,
// cancel the task individually, and observe its completion and outcome.
type Handle struct {
	cancel    context.CancelFunc
	unbind    func() bool
	done      chan struct{}
	startCh   chan struct{}
	startOnce sync.Once
	state     atomic.Int32

	mu  sync.Mutex
	err error
}

// Start begins a StartLazy task. For other policies it is a no-op.
func (h *Handle) Start() {
	h.startOnce.Do(func() { close(h.startCh) })
}

// Cancel cancels this task only, leaving siblings in the scope running.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed when the task has fully terminated, release included.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the task terminates. It returns nil when the task was
// cancelled and its resource released cleanly, a *AcquireError if acquire
// failed, or a *ReleaseError if release failed. A StartLazy task must be
// started or cancelled first or Wait blocks forever.
func (h *Handle) Wait() error {
	<-h.done
	return h.Err()
}

// Err returns the task's failure, or nil if it is still running or
// terminated cleanly.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// State reports the task's current lifecycle state.
func (h *Handle) State() State { return State(h.state.Load()) }

func (h *Handle) fail(err error) error {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	h.state.Store(int32(StateFailed))
	return err
}

// Launch starts a task in s whose entire body is: run acquire once, then
// park in AwaitCancellation with the returned resource. The resource is
// released exactly when the task is cancelled, individually via the handle
// or transitively when the scope is torn down. Clean cancellation is the
// expected exit and is not reported to the scope as a task failure.
func Launch(s Scope, acquire AcquireFunc, optFns ...Option) *Handle {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	base := s.Context()
	var ctx context.Context
	var cancel context.CancelFunc
	var unbind func() bool
	if opts.Values != nil {
		ctx, cancel = context.WithCancel(opts.Values)
		unbind = context.AfterFunc(base, cancel)
	} else {
		ctx, cancel = context.WithCancel(base)
	}

	h := &Handle{
		cancel:  cancel,
		unbind:  unbind,
		done:    make(chan struct{}),
		startCh: make(chan struct{}),
	}
	if opts.Start != StartLazy {
		h.Start()
	}

	if opts.Start == StartSync {
		h.state.Store(int32(StateAcquiring))
		d, err := acquire(ctx)
		if err != nil {
			// Reported on the handle only; the scope never saw a task.
			h.fail(&AcquireError{Err: err})
			h.teardown()
			close(h.done)
			return h
		}
		h.state.Store(int32(StateWaiting))
		s.Go(func(context.Context) error {
			defer close(h.done)
			defer h.teardown()
			return h.hold(ctx, d)
		})
		return h
	}

	s.Go(func(context.Context) error {
		defer close(h.done)
		defer h.teardown()
		return h.run(ctx, acquire)
	})
	return h
}

func (h *Handle) run(ctx context.Context, acquire AcquireFunc) error {
	select {
	case <-h.startCh:
	case <-ctx.Done():
		// Cancelled before start: acquire never runs, nothing to release.
		h.state.Store(int32(StateDisposed))
		return nil
	}

	h.state.Store(int32(StateAcquiring))
	d, err := acquire(ctx)
	if err != nil {
		return h.fail(&AcquireError{Err: err})
	}

	h.state.Store(int32(StateWaiting))
	return h.hold(ctx, d)
}

func (h *Handle) hold(ctx context.Context, d Disposable) error {
	err := AwaitCancellation(ctx, d)
	var rerr *ReleaseError
	if errors.As(err, &rerr) {
		return h.fail(err)
	}
	h.state.Store(int32(StateDisposed))
	return nil
}

func (h *Handle) teardown() {
	if h.unbind != nil {
		h.unbind()
	}
	h.cancel()
}
