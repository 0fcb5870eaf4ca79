package reqctx

import (
	"log/slog"
	"net/http"
)

// HTTPMiddleware returns an HTTP middleware that rebuilds the caller
// RequestContext from inbound headers and stores it on the request
// context.
//
// When verifier is non-nil and the x-context-token header is present, the
// token is verified and its claims take precedence over the plain header
// fields; a failed verification rejects the request with 401 Unauthorized.
// Requests without any propagation headers proceed with an anonymous
// context.
func HTTPMiddleware(verifier *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if verifier != nil {
				if token := r.Header.Get(HeaderContextToken); token != "" {
					rc, err := verifier.Verify(ctx, token)
					if err != nil {
						http.Error(w, "context token verification failed", http.StatusUnauthorized)
						return
					}
					next.ServeHTTP(w, r.WithContext(NewContext(ctx, rc)))
					return
				}
			}

			rc := contextFromHeaders(ctx, r.Header.Get)
			next.ServeHTTP(w, r.WithContext(NewContext(ctx, rc)))
		})
	}
}

// PropagatingRoundTripper is an http.RoundTripper that copies the
// RequestContext from the request context into outbound headers, so
// downstream platform services receive the caller context. Requests whose
// context carries no RequestContext pass through unchanged.
type PropagatingRoundTripper struct {
	issuer  *TokenIssuer
	wrapped http.RoundTripper
}

// NewPropagatingRoundTripper wraps transport with context propagation. A
// nil transport defaults to http.DefaultTransport. issuer may be nil, in
// which case no x-context-token header is attached.
func NewPropagatingRoundTripper(issuer *TokenIssuer, transport http.RoundTripper) *PropagatingRoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &PropagatingRoundTripper{issuer: issuer, wrapped: transport}
}

// RoundTrip implements http.RoundTripper. The request is cloned before
// headers are added; the caller's request is never modified. Token issue
// failures are logged and the plain header fields are propagated anyway.
func (t *PropagatingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	rc, ok := FromContext(r.Context())
	if !ok {
		return t.wrapped.RoundTrip(r)
	}

	clone := r.Clone(r.Context())
	contextToHeaders(clone.Context(), rc, clone.Header.Set)

	if t.issuer != nil {
		token, err := t.issuer.Issue(rc)
		if err != nil {
			slog.WarnContext(r.Context(), "reqctx: failed to issue context token for propagation",
				"error", err)
		} else {
			setHeaderValue(clone.Context(), clone.Header.Set, HeaderContextToken, token)
		}
	}

	return t.wrapped.RoundTrip(clone)
}
