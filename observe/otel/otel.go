package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observer annotates the span found in each event's context with scope
// lifecycle events. Contexts without a recording span are ignored, so the
// observer is safe to install unconditionally.
type Observer struct{}

// New returns a span-event observer.
func New() *Observer { return &Observer{} }

func (*Observer) ScopeCreated(ctx context.Context) {
	trace.SpanFromContext(ctx).AddEvent("scope.created")
}

func (*Observer) ScopeCancelled(ctx context.Context, cause error) {
	span := trace.SpanFromContext(ctx)
	if cause != nil {
		span.AddEvent("scope.cancelled",
			trace.WithAttributes(attribute.String("cause", cause.Error())))
		return
	}
	span.AddEvent("scope.cancelled")
}

func (*Observer) ScopeJoined(ctx context.Context, wait time.Duration) {
	trace.SpanFromContext(ctx).AddEvent("scope.joined",
		trace.WithAttributes(attribute.Int64("wait_us", wait.Microseconds())))
}

func (*Observer) TaskStarted(ctx context.Context) {
	trace.SpanFromContext(ctx).AddEvent("task.started")
}

func (*Observer) TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool) {
	span := trace.SpanFromContext(ctx)
	attrs := []attribute.KeyValue{
		attribute.Int64("duration_us", dur.Microseconds()),
		attribute.Bool("panicked", panicked),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error", err.Error()))
	}
	span.AddEvent("task.finished", trace.WithAttributes(attrs...))
}

// Nop is an observer that drops every event. Useful as a default when
// tracing is disabled.
type Nop struct{}

// NewNop returns a no-op observer.
func NewNop() *Nop { return &Nop{} }

func (*Nop) ScopeCreated(context.Context)                             {}
func (*Nop) ScopeCancelled(context.Context, error)                    {}
func (*Nop) ScopeJoined(context.Context, time.Duration)               {}
func (*Nop) TaskStarted(context.Context)                              {}
func (*Nop) TaskFinished(context.Context, time.Duration, error, bool) {}
