package scope

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Policy selects how a scope reacts to a failing task.
type Policy int

const (
	// FailFast cancels the whole scope on the first task error.
	FailFast Policy = iota
	// Supervisor records the first error but lets siblings run on.
	Supervisor
)

type Option func(*Options)

type Options struct {
	PanicAsError   bool
	Observer       Observer
	MaxConcurrency int
}

func defaultOptions() Options { return Options{PanicAsError: true} }

func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

func WithMaxConcurrency(n int) Option { return func(o *Options) { o.MaxConcurrency = n } }

// Observer receives lifecycle events from a scope and its tasks.
type Observer interface {
	ScopeCreated(ctx context.Context)
	ScopeCancelled(ctx context.Context, cause error)
	ScopeJoined(ctx context.Context, wait time.Duration)
	TaskStarted(ctx context.Context)
	TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool)
}

// Scope owns a set of tasks, provides a join point (Wait), and propagates
// cancellation downward. It does not finish joining until every task,
// cleanup included, has returned.
type Scope struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	policy Policy
	wg     sync.WaitGroup

	mu       sync.Mutex
	firstErr error
	canceled bool

	opts Options
	obs  Observer
	lim  Limiter
}

func New(parent context.Context, policy Policy, optFns ...Option) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	s := &Scope{ctx: ctx, cancel: cancel, policy: policy, opts: defaultOptions()}
	for _, fn := range optFns {
		fn(&s.opts)
	}
	s.obs = s.opts.Observer
	if s.opts.MaxConcurrency > 0 {
		s.lim = newSemaphoreLimiter(s.opts.MaxConcurrency)
	}
	if s.obs != nil {
		s.obs.ScopeCreated(ctx)
	}
	return s
}

func (s *Scope) Context() context.Context { return s.ctx }

// Go runs fn as a task of the scope. A nil fn is ignored.
func (s *Scope) Go(fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runTask(fn)
	}()
}

func (s *Scope) runTask(fn func(ctx context.Context) error) {
	if s.lim != nil {
		if err := s.lim.Acquire(s.ctx); err != nil {
			s.fail(err)
			return
		}
		defer s.lim.Release()
	}
	defer func() {
		if r := recover(); r != nil {
			if !s.opts.PanicAsError {
				if s.obs != nil {
					s.obs.TaskFinished(s.ctx, 0, nil, true)
				}
				panic(r)
			}
			err := fmt.Errorf("panic: %v", r)
			s.fail(err)
			if s.obs != nil {
				s.obs.TaskFinished(s.ctx, 0, err, true)
			}
		}
	}()

	var start time.Time
	if s.obs != nil {
		start = time.Now()
		s.obs.TaskStarted(s.ctx)
	}

	err := fn(s.ctx)
	if err != nil {
		s.fail(err)
	}
	if s.obs != nil {
		s.obs.TaskFinished(s.ctx, time.Since(start), err, false)
	}
}

// Cancel cancels the scope with err as the recorded cause. Calling it again
// is harmless.
func (s *Scope) Cancel(err error) {
	s.mu.Lock()
	wasCanceled := s.canceled
	s.canceled = true
	if s.firstErr == nil && err != nil {
		s.firstErr = err
	}
	cause := s.firstErr
	s.mu.Unlock()

	s.cancel(cause)
	if !wasCanceled && s.obs != nil {
		s.obs.ScopeCancelled(s.ctx, cause)
	}
}

// Wait joins the scope: it blocks until every task has returned, then
// reports the first error seen. Safe to call more than once.
func (s *Scope) Wait() error {
	var start time.Time
	if s.obs != nil {
		start = time.Now()
	}
	s.wg.Wait()
	if s.obs != nil {
		s.obs.ScopeJoined(s.ctx, time.Since(start))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}

func (s *Scope) fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.firstErr == nil {
		s.firstErr = err
	}
	shouldCancel := s.policy == FailFast
	cause := s.firstErr
	s.mu.Unlock()
	if shouldCancel {
		s.Cancel(cause)
	}
}

// Child creates a scope whose context descends from s, so cancelling the
// parent cancels the child. Options default to the parent's.
func (s *Scope) Child(policy Policy, optFns ...Option) *Scope {
	childOpts := s.opts
	for _, fn := range optFns {
		fn(&childOpts)
	}
	ctx, cancel := context.WithCancelCause(s.ctx)
	cs := &Scope{ctx: ctx, cancel: cancel, policy: policy, opts: childOpts, obs: childOpts.Observer}
	if childOpts.MaxConcurrency > 0 {
		cs.lim = newSemaphoreLimiter(childOpts.MaxConcurrency)
	}
	if cs.obs != nil {
		cs.obs.ScopeCreated(ctx)
	}
	return cs
}
