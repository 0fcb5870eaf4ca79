package module

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
	"github.com/StricklySoft/stricklysoft-modulekit/pkg/reqctx"
	"github.com/StricklySoft/stricklysoft-modulekit/pkg/response"
)

// Dispatch executes one tool call described by req and returns the response
// envelope. The method on the request selects the tool; the parameters are
// validated against the tool's argument rules before the handler runs.
//
// Dispatch never returns an un-enveloped value and never panics: every
// outcome, including a nil request, an unknown tool, rejected arguments,
// a handler error, or a handler panic, is reported as an envelope with
// "success" set accordingly. The returned map is freshly allocated on
// every call.
//
// The caller context is resolved once per dispatch and handed to the
// handler both through the [reqctx.ToolContext] argument and through the
// context (retrievable with [reqctx.FromContext]), so downstream clients
// built with this package's propagation helpers forward it automatically.
func (m *Module) Dispatch(ctx context.Context, req *reqctx.Request) map[string]any {
	ctx, span := m.tracer.Start(ctx, "module.Dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("module.name", m.name)),
	)
	defer span.End()

	if req == nil {
		err := sserr.Validation("module: request must not be nil")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return response.FromError(err)
	}
	if req.Method == "" {
		err := sserr.Validation("module: request method must not be empty")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return response.FromError(err)
	}
	span.SetAttributes(attribute.String("module.tool", req.Method))

	rc := m.resolveContext(ctx, req)
	span.SetAttributes(
		attribute.String("reqctx.user_id", rc.UserID),
		attribute.String("reqctx.request_id", rc.RequestID),
	)

	def, ok := m.tools[req.Method]
	if !ok {
		err := sserr.NotFound("Tool", req.Method)
		m.logger.WarnContext(ctx, "module: unknown tool requested",
			"module_name", m.name,
			"tool", req.Method,
			"request_id", rc.RequestID,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return response.FromError(err)
	}

	args := req.Params
	if def.Args != nil {
		parsed, err := def.Args.Parse(req.Params)
		if err != nil {
			m.logger.WarnContext(ctx, "module: tool arguments rejected",
				"module_name", m.name,
				"tool", def.Name,
				"request_id", rc.RequestID,
				"error", err,
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return response.FromError(err)
		}
		args = parsed
	}

	ctx = reqctx.NewContext(ctx, rc)

	start := time.Now()
	result, err := m.callTool(ctx, def, reqctx.NewToolContext(rc, m.env), args)
	if err != nil {
		m.logger.ErrorContext(ctx, "module: tool call failed",
			"module_name", m.name,
			"tool", def.Name,
			"request_id", rc.RequestID,
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return response.FromError(err)
	}

	m.logger.InfoContext(ctx, "module: tool call completed",
		"module_name", m.name,
		"tool", def.Name,
		"request_id", rc.RequestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	span.SetStatus(codes.Ok, "")
	return response.Success(result)
}

// resolveContext determines the caller context for one dispatch. An
// explicit context on the request envelope always wins: secrets travel
// only in the envelope, so a transport-resolved context must not shadow
// it. Without envelope context, a context placed on ctx by the module's
// interceptors or middleware is used. Failing both, the request resolves
// to anonymous defaults.
func (m *Module) resolveContext(ctx context.Context, req *reqctx.Request) reqctx.RequestContext {
	if req.Context != nil {
		return reqctx.Extract(req)
	}
	if rc, ok := reqctx.FromContext(ctx); ok {
		return rc
	}
	return reqctx.Extract(req)
}

// callTool invokes the tool handler with panic recovery. A panicking
// handler is logged with the recovered value and reported as an internal
// error; the dispatching goroutine keeps running.
func (m *Module) callTool(ctx context.Context, def ToolDef, tc reqctx.ToolContext, args map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "module: tool handler panicked",
				"module_name", m.name,
				"tool", def.Name,
				"panic", r,
			)
			result = nil
			err = sserr.Internalf("module: tool %q panicked", def.Name)
		}
	}()
	return def.Handler(ctx, tc, args)
}
