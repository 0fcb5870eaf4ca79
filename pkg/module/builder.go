package module

import (
	"log/slog"

	"go.opentelemetry.io/otel"

	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
	"github.com/StricklySoft/stricklysoft-modulekit/pkg/reqctx"
)

// Builder constructs [Module] instances with a fluent interface. All
// configuration happens before Build; the resulting module is immutable.
//
// Builder is not safe for concurrent use. Configure it from a single
// goroutine, then share the built Module freely.
type Builder struct {
	name     string
	version  string
	env      any
	tools    []ToolDef
	verifier *reqctx.TokenVerifier
	logger   *slog.Logger
}

// New creates a Builder for a module with the given name and version.
// Both are validated at Build time.
func New(name, version string) *Builder {
	return &Builder{
		name:    name,
		version: version,
	}
}

// WithTool registers a tool definition. Definitions are validated at Build
// time; registering two tools with the same name is a Build error.
func (b *Builder) WithTool(def ToolDef) *Builder {
	b.tools = append(b.tools, def)
	return b
}

// WithTools registers multiple tool definitions at once.
func (b *Builder) WithTools(defs ...ToolDef) *Builder {
	b.tools = append(b.tools, defs...)
	return b
}

// WithEnv attaches opaque environment bindings to the module. The value is
// surfaced to every handler as [reqctx.ToolContext].Env. Modules typically
// pass their loaded configuration or client set here.
func (b *Builder) WithEnv(env any) *Builder {
	b.env = env
	return b
}

// WithLogger sets the structured logger used for dispatch logging. When
// not set, Build falls back to [slog.Default].
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithTokenVerifier sets the verifier used by the module's transport glue
// ([Module.UnaryServerInterceptor], [Module.HTTPMiddleware]) to validate
// signed context tokens. When not set, transport-carried contexts are
// accepted from plain headers without verification.
func (b *Builder) WithTokenVerifier(verifier *reqctx.TokenVerifier) *Builder {
	b.verifier = verifier
	return b
}

// Build validates the configuration and constructs the Module. It returns
// a validation error when the module name or version is empty, when a tool
// is missing its name or handler, or when two tools share a name.
func (b *Builder) Build() (*Module, error) {
	if b.name == "" {
		return nil, sserr.Validation("module: module name must not be empty")
	}
	if b.version == "" {
		return nil, sserr.Validation("module: module version must not be empty")
	}

	tools := make(map[string]ToolDef, len(b.tools))
	order := make([]string, 0, len(b.tools))
	for _, def := range b.tools {
		if def.Name == "" {
			return nil, sserr.Validation("module: tool name must not be empty")
		}
		if def.Handler == nil {
			return nil, sserr.Validationf("module: tool %q has no handler", def.Name)
		}
		if _, exists := tools[def.Name]; exists {
			return nil, sserr.Validationf("module: duplicate tool %q", def.Name)
		}

		def = def.Clone()
		if def.InputSchema == nil {
			if def.Args != nil {
				def.InputSchema = def.Args.Schema()
			} else {
				def.InputSchema = map[string]any{"type": "object"}
			}
		}

		tools[def.Name] = def
		order = append(order, def.Name)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Module{
		name:     b.name,
		version:  b.version,
		env:      b.env,
		tools:    tools,
		order:    order,
		verifier: b.verifier,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
	}, nil
}
