package reqctx

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for spans
// created by this package.
const tracerName = "github.com/StricklySoft/stricklysoft-modulekit/pkg/reqctx"

// minSigningKeySize is the minimum accepted HMAC signing key length in
// bytes.
const minSigningKeySize = 32

// Claim names used in signed context tokens. Standard claims (iss, sub,
// iat, exp) carry the issuer, user ID, and token lifetime; the remaining
// context fields use the same names as the wire-level ContextParams.
const (
	claimConversationID = "conversationId"
	claimDisplayName    = "displayName"
	claimRequestID      = "requestId"
	claimTimestamp      = "timestamp"
)

// ---------------------------------------------------------------------------
// TokenConfig — shared configuration for issuing and verifying
// ---------------------------------------------------------------------------

// TokenConfig holds the configuration shared by [TokenVerifier] and
// [TokenIssuer]. Platform gateways sign context tokens with HS256 using a
// key shared with the modules they call; both sides load the same
// configuration.
type TokenConfig struct {
	// SigningKey is the shared HMAC key. Must be at least 32 bytes.
	// The Secret type prevents accidental logging of the key value.
	SigningKey Secret `json:"-" env:"CONTEXT_TOKEN_SIGNING_KEY" required:"true"`

	// Issuer is the expected "iss" claim on verified tokens and the
	// value stamped on issued ones. Defaults to "stricklysoft-gateway".
	Issuer string `json:"issuer" env:"CONTEXT_TOKEN_ISSUER" envDefault:"stricklysoft-gateway"`

	// Leeway is the clock skew tolerated when checking time claims.
	// Must be non-negative. Defaults to 30 seconds.
	Leeway time.Duration `json:"leeway" env:"CONTEXT_TOKEN_LEEWAY" envDefault:"30s"`

	// TTL is the lifetime stamped on issued tokens. Must be positive.
	// Defaults to 5 minutes.
	TTL time.Duration `json:"ttl" env:"CONTEXT_TOKEN_TTL" envDefault:"5m"`
}

// Validate checks the configuration for logical correctness. It returns a
// *[sserr.Error] with code [sserr.CodeConfiguration] describing the first
// invalid field, or nil.
func (c *TokenConfig) Validate() error {
	if len(c.SigningKey.Value()) < minSigningKeySize {
		return sserr.Configuration("reqctx: context token signing key must be at least 32 bytes")
	}
	if c.Issuer == "" {
		return sserr.Configuration("reqctx: context token issuer must not be empty")
	}
	if c.Leeway < 0 {
		return sserr.Configuration("reqctx: context token leeway must be non-negative")
	}
	if c.TTL <= 0 {
		return sserr.Configuration("reqctx: context token TTL must be positive")
	}
	return nil
}

// ---------------------------------------------------------------------------
// TokenVerifier — verifies gateway-signed context tokens
// ---------------------------------------------------------------------------

// TokenVerifier verifies HS256-signed context tokens and maps their claims
// back to a [RequestContext]. Tokens carry identity fields only; the
// secrets map of a verified context is always fresh and empty.
//
// TokenVerifier is safe for concurrent use by multiple goroutines.
type TokenVerifier struct {
	cfg    TokenConfig
	tracer trace.Tracer
}

// NewTokenVerifier creates a TokenVerifier with the given configuration.
// The configuration is validated before use.
func NewTokenVerifier(cfg TokenConfig) (*TokenVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenVerifier{
		cfg:    cfg,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// Verify parses and verifies tokenStr and returns the RequestContext its
// claims describe. Claims the token does not carry default exactly as in
// [Extract].
//
// jwt.WithValidMethods restricts accepted algorithms to HS256, so tokens
// signed with any other method (including "none") are rejected before the
// key is consulted. Verification failures return a *[sserr.Error] with
// code [sserr.CodeUnauthorized].
func (v *TokenVerifier) Verify(ctx context.Context, tokenStr string) (RequestContext, error) {
	_, span := v.tracer.Start(ctx, "reqctx.VerifyContextToken")
	defer span.End()

	if tokenStr == "" {
		err := sserr.Unauthorized("reqctx: context token must not be empty")
		finishSpan(span, err)
		return RequestContext{}, err
	}
	if len(tokenStr) > MaxHeaderValueSize {
		err := sserr.Unauthorized("reqctx: context token exceeds maximum size")
		finishSpan(span, err)
		return RequestContext{}, err
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		return []byte(v.cfg.SigningKey.Value()), nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithLeeway(v.cfg.Leeway),
	)
	if err != nil {
		classified := classifyTokenError(err)
		finishSpan(span, classified)
		return RequestContext{}, classified
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		err := sserr.Unauthorized("reqctx: invalid context token claims")
		finishSpan(span, err)
		return RequestContext{}, err
	}

	rc := RequestContext{
		UserID:      DefaultUserID,
		DisplayName: DefaultDisplayName,
		Timestamp:   time.Now().UnixMilli(),
		RequestID:   uuid.NewString(),
		Secrets:     map[string]Secret{},
	}
	if sub, _ := mc["sub"].(string); sub != "" {
		rc.UserID = sub
	}
	if cid, _ := mc[claimConversationID].(string); cid != "" {
		rc.ConversationID = cid
	}
	if dn, _ := mc[claimDisplayName].(string); dn != "" {
		rc.DisplayName = dn
	}
	if rid, _ := mc[claimRequestID].(string); rid != "" {
		rc.RequestID = rid
	}
	// JSON numbers decode into MapClaims as float64.
	if ts, ok := mc[claimTimestamp].(float64); ok {
		rc.Timestamp = int64(ts)
	}

	span.SetAttributes(
		attribute.String("reqctx.user_id", rc.UserID),
		attribute.String("reqctx.request_id", rc.RequestID),
	)
	return rc, nil
}

// ---------------------------------------------------------------------------
// TokenIssuer — signs context tokens for propagation
// ---------------------------------------------------------------------------

// TokenIssuer signs context tokens carrying a [RequestContext]'s identity
// fields. Platform gateways use it on the issuing side; module code uses
// it when the client interceptors are configured to forward a signed
// token, and tests use it to mint tokens for [TokenVerifier].
//
// TokenIssuer is safe for concurrent use by multiple goroutines.
type TokenIssuer struct {
	cfg TokenConfig
}

// NewTokenIssuer creates a TokenIssuer with the given configuration.
// The configuration is validated before use.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenIssuer{cfg: cfg}, nil
}

// Issue signs a context token for rc. The token carries the identity
// fields (user ID, conversation ID, display name, request ID, timestamp)
// plus issuer and lifetime claims. Secrets are never embedded.
func (i *TokenIssuer) Issue(rc RequestContext) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":            i.cfg.Issuer,
		"sub":            rc.UserID,
		"iat":            now.Unix(),
		"exp":            now.Add(i.cfg.TTL).Unix(),
		claimDisplayName: rc.DisplayName,
		claimRequestID:   rc.RequestID,
		claimTimestamp:   rc.Timestamp,
	}
	if rc.ConversationID != "" {
		claims[claimConversationID] = rc.ConversationID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(i.cfg.SigningKey.Value()))
	if err != nil {
		return "", sserr.Wrap(err, sserr.CodeInternal, "reqctx: failed to sign context token")
	}
	return signed, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// classifyTokenError converts a JWT library error to an appropriate
// *sserr.Error. If the error is already an *sserr.Error, it is returned
// as-is.
func classifyTokenError(err error) *sserr.Error {
	if err == nil {
		return nil
	}

	var ssError *sserr.Error
	if errors.As(err, &ssError) {
		return ssError
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return sserr.Wrap(err, sserr.CodeUnauthorized, "reqctx: context token has expired")
	}
	if errors.Is(err, jwt.ErrTokenMalformed) {
		return sserr.Wrap(err, sserr.CodeUnauthorized, "reqctx: context token is malformed")
	}
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return sserr.Wrap(err, sserr.CodeUnauthorized, "reqctx: context token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenNotValidYet) {
		return sserr.Wrap(err, sserr.CodeUnauthorized, "reqctx: context token is not yet valid")
	}
	if errors.Is(err, jwt.ErrTokenInvalidIssuer) {
		return sserr.Wrap(err, sserr.CodeUnauthorized, "reqctx: context token issuer is invalid")
	}
	if errors.Is(err, jwt.ErrTokenInvalidClaims) {
		return sserr.Wrap(err, sserr.CodeUnauthorized, "reqctx: context token claims are invalid")
	}

	return sserr.Wrap(err, sserr.CodeUnauthorized, "reqctx: context token verification failed")
}

// finishSpan records an error on the span if err is non-nil and sets the
// span status to Error.
func finishSpan(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
