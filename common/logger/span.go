package logger

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "studiobot"

// Span is a started OTel span plus the context that carries it.
type Span struct {
	ctx  context.Context
	span trace.Span
	once sync.Once
}

// StartSpan opens a child of whatever span ctx already carries.
//
//	sp := logger.StartSpan(ctx, "worker.sweep")
//	defer sp.End()
//	ctx = sp.Context()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *Span {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &Span{ctx: ctx, span: span}
}

// ContinueTrace opens a span inside the trace identified by traceID, the hex ID a webhook
// request recorded on its queued task. An empty or malformed ID starts a fresh trace.
func ContinueTrace(ctx context.Context, traceID string, name string, opts ...trace.SpanStartOption) *Span {
	remote, ok := remoteSpanContext(traceID)
	if !ok {
		return StartSpan(ctx, name, opts...)
	}
	opts = append(opts, trace.WithLinks(trace.Link{SpanContext: remote}))
	return StartSpan(trace.ContextWithRemoteSpanContext(ctx, remote), name, opts...)
}

func remoteSpanContext(traceID string) (trace.SpanContext, bool) {
	if traceID == "" {
		return trace.SpanContext{}, false
	}
	id, err := trace.TraceIDFromHex(traceID)
	if err != nil {
		return trace.SpanContext{}, false
	}
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    id,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}), true
}

func (s *Span) Context() context.Context {
	return s.ctx
}

func (s *Span) SetAttributes(kv ...attribute.KeyValue) {
	s.span.SetAttributes(kv...)
}

// Fail records err on the span and marks it as errored.
func (s *Span) Fail(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End is idempotent.
func (s *Span) End() {
	s.once.Do(func() { s.span.End() })
}
