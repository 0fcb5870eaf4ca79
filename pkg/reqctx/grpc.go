package reqctx

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ---------------------------------------------------------------------------
// Server interceptors — rebuild the RequestContext from inbound metadata
// ---------------------------------------------------------------------------

// UnaryServerInterceptor returns a gRPC unary server interceptor that
// rebuilds the caller RequestContext from inbound metadata and stores it
// on the handler context.
//
// When verifier is non-nil and the x-context-token metadata key is
// present, the token is verified and its claims take precedence over the
// plain metadata fields; a failed verification rejects the call with
// codes.Unauthenticated. Calls without metadata proceed with an anonymous
// context, since context resolution is not authentication.
func UnaryServerInterceptor(verifier *TokenVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		newCtx, err := contextFromIncoming(ctx, verifier)
		if err != nil {
			return nil, err
		}
		return handler(newCtx, req)
	}
}

// StreamServerInterceptor returns the streaming counterpart of
// [UnaryServerInterceptor]. The handler receives a wrapped stream whose
// Context() carries the resolved RequestContext.
func StreamServerInterceptor(verifier *TokenVerifier) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		newCtx, err := contextFromIncoming(ss.Context(), verifier)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: newCtx})
	}
}

// contextFromIncoming resolves the RequestContext carried by incoming gRPC
// metadata and returns a context holding it. A signed context token, when
// present and a verifier is configured, is authoritative.
func contextFromIncoming(ctx context.Context, verifier *TokenVerifier) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.MD{}
	}
	get := func(key string) string {
		values := md.Get(key)
		if len(values) == 0 {
			return ""
		}
		return values[0]
	}

	if verifier != nil {
		if token := get(HeaderContextToken); token != "" {
			rc, err := verifier.Verify(ctx, token)
			if err != nil {
				return nil, status.Error(codes.Unauthenticated, "context token verification failed")
			}
			return NewContext(ctx, rc), nil
		}
	}

	return NewContext(ctx, contextFromHeaders(ctx, get)), nil
}

// wrappedServerStream wraps a grpc.ServerStream and overrides its Context()
// method to return a context carrying the resolved RequestContext.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context containing the RequestContext.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// ---------------------------------------------------------------------------
// Client interceptors — propagate the RequestContext to outgoing metadata
// ---------------------------------------------------------------------------

// UnaryClientInterceptor returns a gRPC unary client interceptor that
// copies the RequestContext from ctx into outgoing metadata. When issuer
// is non-nil a signed context token is attached as well. A ctx without a
// resolved context passes through unchanged.
func UnaryClientInterceptor(issuer *TokenIssuer) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(contextToOutgoing(ctx, issuer), method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns the streaming counterpart of
// [UnaryClientInterceptor].
func StreamClientInterceptor(issuer *TokenIssuer) grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return streamer(contextToOutgoing(ctx, issuer), desc, cc, method, opts...)
	}
}

// contextToOutgoing copies the RequestContext from ctx into outgoing gRPC
// metadata, joining with any metadata already present. Token issue
// failures are logged and the plain metadata fields are propagated anyway.
func contextToOutgoing(ctx context.Context, issuer *TokenIssuer) context.Context {
	rc, ok := FromContext(ctx)
	if !ok {
		return ctx
	}

	pairs := metadata.MD{}
	set := func(key, value string) {
		pairs.Set(key, value)
	}
	contextToHeaders(ctx, rc, set)

	if issuer != nil {
		token, err := issuer.Issue(rc)
		if err != nil {
			slog.WarnContext(ctx, "reqctx: failed to issue context token for propagation",
				"error", err)
		} else {
			setHeaderValue(ctx, set, HeaderContextToken, token)
		}
	}

	if existing, ok := metadata.FromOutgoingContext(ctx); ok {
		pairs = metadata.Join(existing, pairs)
	}
	return metadata.NewOutgoingContext(ctx, pairs)
}
