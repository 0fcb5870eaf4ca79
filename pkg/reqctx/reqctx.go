// Package reqctx resolves the caller context attached to inbound platform
// requests and carries it through handler execution and downstream calls.
//
// Inbound requests arrive as JSON-RPC envelopes ([Request]) whose optional
// "context" member is a partial [ContextParams]: any subset of the caller
// fields may be present. [Extract] resolves the partial parameters into a
// complete [RequestContext], defaulting each missing field independently
// (anonymous user, fresh request ID, current timestamp). Handlers receive
// the resolved context inside a [ToolContext] together with the opaque
// environment bindings supplied by the hosting runtime.
//
// Secret values travel inside the context as [Secret], a redacting string
// type that does not leak through logging or serialization. Handlers read
// them via [RequestContext.RequiredSecret] and [RequestContext.OptionalSecret].
//
// For module-to-module calls the package propagates the resolved context
// over gRPC metadata and HTTP headers (see [UnaryClientInterceptor] and
// [NewPropagatingRoundTripper]) and verifies gateway-signed context tokens
// ([TokenVerifier]). Secrets are confined to the process that resolved
// them; they are never propagated and never embedded in tokens.
package reqctx

import (
	"time"

	"github.com/google/uuid"

	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
)

// ---------------------------------------------------------------------------
// Secret — redacting string type for sensitive context values
// ---------------------------------------------------------------------------

// Secret is a string type that redacts its value in String(), GoString(),
// and MarshalText() to prevent accidental exposure in logs, JSON output, or
// fmt.Printf. The actual value is only accessible via the [Secret.Value]
// method, which should be called only where the raw value is truly needed
// (e.g., passing an API key to a provider client).
type Secret string

// secretRedacted is the placeholder text shown instead of the actual secret
// value when the secret is printed, formatted, or serialized.
const secretRedacted = "[REDACTED]"

// String returns the redacted placeholder, preventing the secret from being
// printed via fmt.Println, log.Printf, or similar functions.
func (s Secret) String() string { return secretRedacted }

// GoString returns the redacted placeholder, preventing the secret from
// being printed via fmt.Printf("%#v", secret).
func (s Secret) GoString() string { return secretRedacted }

// Value returns the actual secret string. This is the only way to access
// the underlying value.
func (s Secret) Value() string { return string(s) }

// MarshalText implements [encoding.TextMarshaler], returning the redacted
// placeholder. This prevents the secret from leaking into JSON, YAML, or
// any other text-based serialization format.
func (s Secret) MarshalText() ([]byte, error) { return []byte(secretRedacted), nil }

// ---------------------------------------------------------------------------
// Request — inbound JSON-RPC envelope
// ---------------------------------------------------------------------------

// Request is the inbound JSON-RPC 2.0 envelope the platform gateway
// delivers to a module. Params carries the raw tool arguments; Context
// carries the optional caller context. Both may be absent at the wire
// level.
type Request struct {
	// JSONRPC is the protocol version, "2.0" on all platform traffic.
	JSONRPC string `json:"jsonrpc"`

	// ID is the request identifier, echoed back in responses. Per
	// JSON-RPC 2.0 it may be a string, a number, or null.
	ID any `json:"id"`

	// Method names the tool to invoke.
	Method string `json:"method"`

	// Params carries the tool arguments prior to validation.
	Params map[string]any `json:"params,omitempty"`

	// Context is the partial caller context, if the gateway supplied
	// one. A nil Context resolves to all defaults.
	Context *ContextParams `json:"context,omitempty"`
}

// ContextParams is the partial caller context attached to an inbound
// [Request]. Every field is optional; pointer fields distinguish absent
// from present-but-zero, and [Extract] defaults each absent field
// independently.
type ContextParams struct {
	// UserID identifies the calling user.
	UserID *string `json:"userId,omitempty"`

	// ConversationID identifies the conversation the call belongs to.
	ConversationID *string `json:"conversationId,omitempty"`

	// DisplayName is the calling user's display name.
	DisplayName *string `json:"displayName,omitempty"`

	// Timestamp is the request time in Unix epoch milliseconds.
	Timestamp *int64 `json:"timestamp,omitempty"`

	// RequestID is the gateway-assigned request identifier.
	RequestID *string `json:"requestId,omitempty"`

	// Secrets carries the per-request secret material (API keys,
	// tokens) the platform resolved for this module.
	Secrets map[string]Secret `json:"secrets,omitempty"`
}

// ---------------------------------------------------------------------------
// RequestContext — fully resolved caller context
// ---------------------------------------------------------------------------

// Defaults applied by [Extract] when the corresponding field is absent
// from the inbound context.
const (
	// DefaultUserID is the user ID assigned to anonymous requests.
	DefaultUserID = "anonymous"

	// DefaultDisplayName is the display name assigned when the caller
	// did not supply one.
	DefaultDisplayName = "Anonymous"
)

// RequestContext is the fully resolved caller context for a single
// request. [Extract] fills every missing inbound field with its default,
// so consumers never see a partially populated context. A RequestContext
// is built once per request, treated as immutable afterwards, and never
// shared across requests.
type RequestContext struct {
	// UserID identifies the calling user, or [DefaultUserID] when the
	// request was anonymous.
	UserID string `json:"userId"`

	// ConversationID identifies the conversation the call belongs to.
	// Empty when the caller did not supply one; there is no default.
	ConversationID string `json:"conversationId,omitempty"`

	// DisplayName is the caller's display name, or [DefaultDisplayName].
	DisplayName string `json:"displayName"`

	// Timestamp is the request time in Unix epoch milliseconds.
	// Defaults to the extraction time.
	Timestamp int64 `json:"timestamp"`

	// RequestID identifies this request for correlation across
	// services. Defaults to a fresh UUID.
	RequestID string `json:"requestId"`

	// Secrets is the per-request secret material. Never nil after
	// extraction, and never serialized.
	Secrets map[string]Secret `json:"-"`
}

// Extract resolves the caller context of req into a complete
// [RequestContext]. Each field defaults independently: a request with no
// context at all yields an anonymous context with a fresh request ID and
// the current time, and a partial context keeps exactly the fields it
// carries. Fields that are present keep their value verbatim, including
// empty strings.
//
// The returned context owns its secrets map; mutating the request
// afterwards does not affect it.
func Extract(req *Request) RequestContext {
	rc := RequestContext{
		UserID:      DefaultUserID,
		DisplayName: DefaultDisplayName,
		Timestamp:   time.Now().UnixMilli(),
		RequestID:   uuid.NewString(),
		Secrets:     map[string]Secret{},
	}
	if req == nil || req.Context == nil {
		return rc
	}

	p := req.Context
	if p.UserID != nil {
		rc.UserID = *p.UserID
	}
	if p.ConversationID != nil {
		rc.ConversationID = *p.ConversationID
	}
	if p.DisplayName != nil {
		rc.DisplayName = *p.DisplayName
	}
	if p.Timestamp != nil {
		rc.Timestamp = *p.Timestamp
	}
	if p.RequestID != nil {
		rc.RequestID = *p.RequestID
	}
	for name, value := range p.Secrets {
		rc.Secrets[name] = value
	}
	return rc
}

// RequiredSecret returns the raw value of the named secret. It returns a
// *[sserr.Error] with code [sserr.CodeMissingSecret] when the secret is
// absent or present with an empty value: required lookups treat an empty
// string the same as a missing secret.
func (rc RequestContext) RequiredSecret(name string) (string, error) {
	v, ok := rc.Secrets[name]
	if !ok || v == "" {
		return "", sserr.MissingSecret(name)
	}
	return v.Value(), nil
}

// OptionalSecret returns the raw value of the named secret and whether the
// key was present. Unlike [RequestContext.RequiredSecret], a present empty
// string is reported as found and returned unchanged.
func (rc RequestContext) OptionalSecret(name string) (string, bool) {
	v, ok := rc.Secrets[name]
	if !ok {
		return "", false
	}
	return v.Value(), true
}

// ---------------------------------------------------------------------------
// ToolContext — per-invocation handler context
// ---------------------------------------------------------------------------

// ToolContext is everything a tool handler receives beyond its validated
// arguments: the resolved caller context and the opaque environment
// bindings the hosting runtime was built with. A ToolContext is built for
// a single handler invocation and is not reused.
type ToolContext struct {
	RequestContext

	// Env is the runtime-supplied environment (provider clients,
	// configuration, connection pools). This package never inspects it.
	Env any
}

// NewToolContext combines an already resolved context with the runtime
// environment. It performs no validation and no copying.
func NewToolContext(rc RequestContext, env any) ToolContext {
	return ToolContext{RequestContext: rc, Env: env}
}

// ExtractToolContext resolves req's caller context and pairs it with env
// in one step. Equivalent to NewToolContext(Extract(req), env).
func ExtractToolContext(req *Request, env any) ToolContext {
	return NewToolContext(Extract(req), env)
}
