// Package module is the registration and dispatch boundary for platform
// modules. A module declares its tools once through the fluent [Builder],
// and the resulting [Module] turns every inbound request envelope into a
// response envelope: it resolves the caller context, validates arguments,
// invokes the tool handler with panic recovery, and wraps the outcome with
// the platform response convention. Handlers never see raw transports and
// never produce un-enveloped values.
//
// Example:
//
//	mod, err := module.New("notifier", "1.0.0").
//	    WithTool(module.ToolDef{
//	        Name:        "send_email",
//	        Description: "Send an email to one or more recipients",
//	        Args: validate.NewObject(map[string]validate.Rule{
//	            "to":      validate.EmailList(),
//	            "subject": validate.BoundedString(1, 200),
//	        }, "to", "subject"),
//	        Handler: sendEmail,
//	    }).
//	    WithEnv(bindings).
//	    Build()
//	if err != nil {
//	    return err
//	}
//
//	envelope := mod.Dispatch(ctx, req)
package module

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"

	"github.com/StricklySoft/stricklysoft-modulekit/pkg/reqctx"
	"github.com/StricklySoft/stricklysoft-modulekit/pkg/validate"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
// It follows the Go module path convention for OTel instrumentation libraries.
const tracerName = "github.com/StricklySoft/stricklysoft-modulekit/pkg/module"

// Handler is the function a tool registers for its invocations. It receives
// the dispatch context (carrying the resolved [reqctx.RequestContext] and
// any active trace span), the per-invocation [reqctx.ToolContext], and the
// validated argument map. It returns the success payload fields, or an
// error that the dispatcher converts into a failure envelope.
//
// Handlers run synchronously on the dispatching goroutine. A handler that
// panics does not crash the module; the panic is recovered, logged, and
// surfaced as an internal-error envelope.
type Handler func(ctx context.Context, tc reqctx.ToolContext, args map[string]any) (map[string]any, error)

// ToolDef describes one callable tool: its identity, the JSON Schema of its
// input, the optional argument rules applied before the handler runs, and
// the handler itself.
//
// ToolDefs are value types. Build validates each definition and stores its
// own copy; use [ToolDef.Clone] to obtain independent copies when sharing
// definitions between modules.
type ToolDef struct {
	// Name is the method name callers use to invoke the tool (e.g.,
	// "send_email"). Must not be empty and must be unique within a module.
	Name string

	// Title is an optional short display name for tool listings.
	Title string

	// Description is a human-readable summary of what the tool does,
	// surfaced to callers through tool discovery.
	Description string

	// InputSchema is the JSON Schema document describing the tool's
	// argument object. When nil, Build derives it from Args, or falls
	// back to an unconstrained object schema.
	InputSchema map[string]any

	// Args is the optional rule composition applied to the request
	// parameters before the handler runs. When nil, parameters are passed
	// to the handler unvalidated.
	Args *validate.Object

	// Handler is invoked for each dispatch of this tool. Must not be nil.
	Handler Handler
}

// Clone returns a deep copy of the ToolDef, including an independent copy
// of the InputSchema document. The Args composition and the Handler are
// shared: both are immutable after construction.
func (d ToolDef) Clone() ToolDef {
	d.InputSchema = cloneSchema(d.InputSchema)
	return d
}

// Module dispatches tool calls for one platform module. It is immutable
// after [Builder.Build] and safe for concurrent use by multiple goroutines:
// every field is set at construction and never modified, and every
// invocation works on per-request state only.
type Module struct {
	// Immutable identity, set at construction and never modified.
	name    string
	version string

	// Opaque environment bindings attached to every ToolContext.
	env any

	// Registered tools, keyed by name, plus registration order for
	// deterministic listings.
	tools map[string]ToolDef
	order []string

	// Optional verifier for signed context tokens, used by the transport
	// glue this module exposes.
	verifier *reqctx.TokenVerifier

	// Observability, set at construction and never modified.
	tracer trace.Tracer
	logger *slog.Logger
}

// Name returns the module name. This value is immutable after construction.
func (m *Module) Name() string {
	return m.name
}

// Version returns the module version. This value is immutable after
// construction.
func (m *Module) Version() string {
	return m.version
}

// Tools returns the registered tool definitions in registration order.
// The returned slice and the schemas it carries are copies; modifying
// them does not affect the module.
func (m *Module) Tools() []ToolDef {
	out := make([]ToolDef, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.tools[name].Clone())
	}
	return out
}

// MCPTools exports the registered tools as [mcp.Tool] declarations for
// hosting on an MCP server. Schemas are copied; the result is safe to
// modify.
func (m *Module) MCPTools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(m.order))
	for _, name := range m.order {
		def := m.tools[name]
		out = append(out, mcp.Tool{
			Name:        def.Name,
			Title:       def.Title,
			Description: def.Description,
			InputSchema: cloneSchema(def.InputSchema),
		})
	}
	return out
}

// UnaryServerInterceptor returns the gRPC unary interceptor that resolves
// the caller context for this module, verifying signed context tokens when
// the module was built with a token verifier. Mount it on the gRPC server
// hosting the module so [Module.Dispatch] sees transport-resolved contexts.
func (m *Module) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return reqctx.UnaryServerInterceptor(m.verifier)
}

// StreamServerInterceptor is the streaming counterpart of
// [Module.UnaryServerInterceptor].
func (m *Module) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return reqctx.StreamServerInterceptor(m.verifier)
}

// HTTPMiddleware returns the HTTP middleware that resolves the caller
// context for this module, verifying signed context tokens when the module
// was built with a token verifier.
func (m *Module) HTTPMiddleware() func(http.Handler) http.Handler {
	return reqctx.HTTPMiddleware(m.verifier)
}

// cloneSchema returns a deep copy of a JSON Schema document built from
// maps, slices, and scalars.
func cloneSchema(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = cloneSchemaValue(v)
	}
	return out
}

func cloneSchemaValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneSchema(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneSchemaValue(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
