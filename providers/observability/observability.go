// Package observability defines the engine's instrumentation surface:
// structured logging and lightweight spans around workflow and node
// execution. Implementations live in subpackages; a nil-safe noop provider
// keeps instrumentation zero-cost when disabled.
package observability

import (
	"context"
	"time"
)

// Provider combines tracing and structured logging for engine internals.
type Provider interface {
	// StartSpan opens a span around a unit of work.
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)

	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Span represents one unit of work between StartSpan and End.
type Span interface {
	// End completes the span.
	End()
	// SetAttributes attaches additional attributes to the span.
	SetAttributes(attrs ...Attribute)
	// RecordError marks the span as failed.
	RecordError(err error)
}

// Attribute is a key-value pair attached to spans and log records.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

// Int creates an integer attribute.
func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }

// Float64 creates a float attribute.
func Float64(key string, value float64) Attribute { return Attribute{Key: key, Value: value} }

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

// Duration creates a duration attribute.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Err creates an error attribute.
func Err(err error) Attribute { return Attribute{Key: "error", Value: err} }

// Noop returns a Provider that discards everything.
func Noop() Provider { return noopProvider{} }

type noopProvider struct{}

type noopSpan struct{}

func (noopProvider) StartSpan(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

func (noopProvider) Debug(context.Context, string, ...Attribute) {}
func (noopProvider) Info(context.Context, string, ...Attribute)  {}
func (noopProvider) Warn(context.Context, string, ...Attribute)  {}
func (noopProvider) Error(context.Context, string, ...Attribute) {}

func (noopSpan) End()                        {}
func (noopSpan) SetAttributes(...Attribute)  {}
func (noopSpan) RecordError(error)           {}
