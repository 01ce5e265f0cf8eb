// Package errgroup provides an adapter that mimics golang.org/x/sync/errgroup
// semantics using the local scope implementation, with an Attach method for
// launching self-disposing resource holders alongside ordinary tasks.
package errgroup

import (
	"context"

	"github.com/NetPo4ki/go-attach/attach"
	"github.com/NetPo4ki/go-attach/scope"
)

// Group is an errgroup-like wrapper over scope.Scope (FailFast).
type Group struct {
	s   *scope.Scope
	ctx context.Context
}

// WithContext creates a Group bound to ctx. Returned context is canceled when
// any function passed to Go returns a non-nil error.
func WithContext(ctx context.Context) (*Group, context.Context) {
	s := scope.New(ctx, scope.FailFast)
	g := &Group{s: s, ctx: s.Context()}
	return g, g.ctx
}

// Go starts a function. It should return a non-nil error to signal failure.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	g.s.Go(func(context.Context) error {
		return f()
	})
}

// Attach launches a task that acquires a disposable resource and holds it
// until the group's context is cancelled, then releases it. The group does
// not finish Wait until the release has run.
func (g *Group) Attach(acquire attach.AcquireFunc, opts ...attach.Option) *attach.Handle {
	return attach.Launch(g.s, acquire, opts...)
}

// Wait blocks until all functions have returned. It returns the first non-nil
// error (FailFast semantics) or nil on success.
func (g *Group) Wait() error {
	return g.s.Wait()
}
