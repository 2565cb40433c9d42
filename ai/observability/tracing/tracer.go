// Package tracing times request stages and logs them as spans.
package tracing

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/keypoints/ai/observability/logging"
)

// Span represents a single stage of a request.
type Span struct {
	ctx       context.Context
	name      string
	startTime time.Time
	parent    *Span
	attrs     []any
	err       error
}

type spanKey struct{}

// StartSpan begins a span whose parent is the span already stored in ctx, if any.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{
		name:      name,
		startTime: time.Now(),
		parent:    FromContext(ctx),
	}
	ctx = context.WithValue(ctx, spanKey{}, span)
	span.ctx = ctx
	return ctx, span
}

// FromContext returns the innermost span in ctx, or nil.
func FromContext(ctx context.Context) *Span {
	if s, ok := ctx.Value(spanKey{}).(*Span); ok {
		return s
	}
	return nil
}

// Name returns the slash-joined names from the root span down to s.
func (s *Span) Name() string {
	if s.parent == nil {
		return s.name
	}
	return s.parent.Name() + "/" + s.name
}

// SetAttr attaches a key/value pair that is logged when the span ends.
func (s *Span) SetAttr(key string, value any) {
	s.attrs = append(s.attrs, key, value)
}

// RecordError marks the span as failed.
func (s *Span) RecordError(err error) {
	if err != nil {
		s.err = err
	}
}

// End logs the span at debug level, or warn when an error was recorded.
func (s *Span) End() time.Duration {
	duration := time.Since(s.startTime)

	args := append([]any{"span", s.Name(), "duration_ms", duration.Milliseconds()}, s.attrs...)
	level := slog.LevelDebug
	if s.err != nil {
		level = slog.LevelWarn
		args = append(args, "error", s.err)
	}
	logging.FromContext(s.ctx).Log(s.ctx, level, "span completed", args...)

	return duration
}

// WithSpan runs fn inside a span named name.
func WithSpan(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, name)
	defer span.End()

	err := fn(ctx)
	span.RecordError(err)
	return err
}
