package reqctx

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// contextKey is an unexported type for keys stored in a context.Context by
// this package. The unexported type prevents collisions with keys defined
// in other packages.
type contextKey int

const (
	// requestContextKey stores the resolved [RequestContext].
	requestContextKey contextKey = iota
)

// NewContext returns a copy of ctx carrying rc. The server interceptors
// and middleware call this after resolving the inbound context; handlers
// and outbound propagation read it back with [FromContext].
func NewContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// FromContext returns the RequestContext stored in ctx, if any.
func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey).(RequestContext)
	return rc, ok
}

// MustFromContext returns the RequestContext stored in ctx, panicking when
// none is present. Use only downstream of the server interceptors or
// middleware, where a resolved context is guaranteed.
func MustFromContext(ctx context.Context) RequestContext {
	rc, ok := FromContext(ctx)
	if !ok {
		panic("reqctx: no request context in context; ensure the server interceptor or middleware is configured")
	}
	return rc
}

// TraceID returns the current OpenTelemetry trace ID from ctx, or the
// empty string when no recording span is present. Useful for correlating
// log lines with traces.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID returns the current OpenTelemetry span ID from ctx, or the empty
// string when no recording span is present.
func SpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}
