// Package module_test contains end-to-end tests that mount a module's HTTP
// middleware in front of a dispatch handler and drive it over real HTTP
// connections, covering the full path from inbound headers and request
// envelopes to response envelopes.
package module_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StricklySoft/stricklysoft-modulekit/internal/testutil"
	"github.com/StricklySoft/stricklysoft-modulekit/internal/testutil/fixtures"
	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
	"github.com/StricklySoft/stricklysoft-modulekit/pkg/module"
	"github.com/StricklySoft/stricklysoft-modulekit/pkg/reqctx"
)

// testTokenConfig returns a token configuration shared by the issuing and
// verifying sides of these tests.
func testTokenConfig() reqctx.TokenConfig {
	return reqctx.TokenConfig{
		SigningKey: reqctx.Secret(fixtures.TokenSigningKey),
		Issuer:     fixtures.TokenIssuer,
		Leeway:     time.Second,
		TTL:        5 * time.Minute,
	}
}

// newTestModule builds the notifier module used by the end-to-end tests: a
// whoami tool echoing the resolved caller identity and a send_email tool
// reporting whether its API key secret was delivered. A nil verifier
// leaves transport contexts unverified.
func newTestModule(t *testing.T, verifier *reqctx.TokenVerifier) *module.Module {
	t.Helper()
	mod, err := module.New(fixtures.ModuleName, fixtures.ModuleVersion).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithTokenVerifier(verifier).
		WithTool(module.ToolDef{
			Name: "whoami",
			Handler: func(_ context.Context, tc reqctx.ToolContext, _ map[string]any) (map[string]any, error) {
				return map[string]any{
					"userId":         tc.UserID,
					"displayName":    tc.DisplayName,
					"conversationId": tc.ConversationID,
					"requestId":      tc.RequestID,
				}, nil
			},
		}).
		WithTool(module.ToolDef{
			Name: fixtures.ToolSendEmail,
			Handler: func(_ context.Context, tc reqctx.ToolContext, _ map[string]any) (map[string]any, error) {
				key, err := tc.RequiredSecret(fixtures.SecretName)
				if err != nil {
					return nil, err
				}
				return map[string]any{"hasSecret": key != ""}, nil
			},
		}).
		Build()
	testutil.RequireNoError(t, err)
	return mod
}

// newDispatchServer mounts mod's HTTP middleware in front of a JSON
// dispatch handler and returns the running test server.
func newDispatchServer(t *testing.T, mod *module.Module) *httptest.Server {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req reqctx.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mod.Dispatch(r.Context(), &req))
	})
	srv := httptest.NewServer(mod.HTTPMiddleware()(handler))
	t.Cleanup(srv.Close)
	return srv
}

// postDispatch sends one dispatch request built from body (marshaled to
// JSON) with the given headers, and returns the HTTP status plus the
// decoded response body when the call succeeded.
func postDispatch(t *testing.T, ctx context.Context, client *http.Client, url string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	testutil.RequireNoError(t, err)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	testutil.RequireNoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	testutil.RequireNoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	var env map[string]any
	testutil.RequireNoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// TestEndToEnd_AnonymousRequest verifies that a request with no caller
// context anywhere resolves to the anonymous defaults.
func TestEndToEnd_AnonymousRequest(t *testing.T) {
	t.Parallel()
	srv := newDispatchServer(t, newTestModule(t, nil))

	status, env := postDispatch(t, context.Background(), srv.Client(), srv.URL,
		reqctx.Request{JSONRPC: "2.0", ID: 1, Method: "whoami"}, nil)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, reqctx.DefaultUserID, env["userId"])
	assert.Equal(t, reqctx.DefaultDisplayName, env["displayName"])
	assert.NotEmpty(t, env["requestId"])
}

// TestEndToEnd_PlainHeaderPropagation verifies that identity headers set
// by an upstream service reach the tool handler.
func TestEndToEnd_PlainHeaderPropagation(t *testing.T) {
	t.Parallel()
	srv := newDispatchServer(t, newTestModule(t, nil))

	status, env := postDispatch(t, context.Background(), srv.Client(), srv.URL,
		reqctx.Request{JSONRPC: "2.0", ID: 1, Method: "whoami"},
		map[string]string{
			reqctx.HeaderUserID:      fixtures.UserID,
			reqctx.HeaderDisplayName: fixtures.DisplayName,
			reqctx.HeaderRequestID:   fixtures.RequestID,
		})

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, fixtures.UserID, env["userId"])
	assert.Equal(t, fixtures.DisplayName, env["displayName"])
	assert.Equal(t, fixtures.RequestID, env["requestId"])
}

// TestEndToEnd_EnvelopeContextWins verifies that context parameters inside
// the request envelope take precedence over identity headers.
func TestEndToEnd_EnvelopeContextWins(t *testing.T) {
	t.Parallel()
	srv := newDispatchServer(t, newTestModule(t, nil))

	body := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "whoami",
		"context": map[string]any{"userId": fixtures.UserID},
	}
	status, env := postDispatch(t, context.Background(), srv.Client(), srv.URL, body,
		map[string]string{reqctx.HeaderUserID: "transport-user"})

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, fixtures.UserID, env["userId"])
}

// TestEndToEnd_SignedTokenRoundTrip verifies the full propagation loop: a
// client whose transport issues signed context tokens calls a module whose
// middleware verifies them, and the tool sees the original identity.
func TestEndToEnd_SignedTokenRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := testTokenConfig()
	verifier, err := reqctx.NewTokenVerifier(cfg)
	require.NoError(t, err)
	issuer, err := reqctx.NewTokenIssuer(cfg)
	require.NoError(t, err)

	srv := newDispatchServer(t, newTestModule(t, verifier))
	client := &http.Client{Transport: reqctx.NewPropagatingRoundTripper(issuer, nil)}

	ctx := reqctx.NewContext(context.Background(), reqctx.RequestContext{
		UserID:         fixtures.UserID,
		ConversationID: fixtures.ConversationID,
		DisplayName:    fixtures.DisplayName,
		Timestamp:      time.Now().UnixMilli(),
		RequestID:      fixtures.RequestID,
	})
	status, env := postDispatch(t, ctx, client, srv.URL,
		reqctx.Request{JSONRPC: "2.0", ID: 1, Method: "whoami"}, nil)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, fixtures.UserID, env["userId"])
	assert.Equal(t, fixtures.ConversationID, env["conversationId"])
	assert.Equal(t, fixtures.DisplayName, env["displayName"])
	assert.Equal(t, fixtures.RequestID, env["requestId"])
}

// TestEndToEnd_InvalidTokenRejected verifies that a bad context token is
// rejected at the middleware with 401 before any tool runs.
func TestEndToEnd_InvalidTokenRejected(t *testing.T) {
	t.Parallel()
	verifier, err := reqctx.NewTokenVerifier(testTokenConfig())
	require.NoError(t, err)

	srv := newDispatchServer(t, newTestModule(t, verifier))

	status, env := postDispatch(t, context.Background(), srv.Client(), srv.URL,
		reqctx.Request{JSONRPC: "2.0", ID: 1, Method: "whoami"},
		map[string]string{reqctx.HeaderContextToken: "not-a-token"})

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Nil(t, env)
}

// TestEndToEnd_SecretDelivery verifies that secrets sent in the request
// envelope reach the handler, and that their raw values never appear in
// the response.
func TestEndToEnd_SecretDelivery(t *testing.T) {
	t.Parallel()
	srv := newDispatchServer(t, newTestModule(t, nil))

	// Raw JSON body: marshaling a reqctx.Request would redact the secret
	// before it left the client.
	body := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  fixtures.ToolSendEmail,
		"context": map[string]any{
			"userId":  fixtures.UserID,
			"secrets": map[string]string{fixtures.SecretName: fixtures.SecretValue},
		},
	}
	status, env := postDispatch(t, context.Background(), srv.Client(), srv.URL, body, nil)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, true, env["hasSecret"])
	testutil.AssertJSONNotContains(t, env, fixtures.SecretValue)
}

// TestEndToEnd_MissingSecret verifies that a tool requiring an undelivered
// secret produces the missing-secret failure envelope over the wire.
func TestEndToEnd_MissingSecret(t *testing.T) {
	t.Parallel()
	srv := newDispatchServer(t, newTestModule(t, nil))

	status, env := postDispatch(t, context.Background(), srv.Client(), srv.URL,
		reqctx.Request{JSONRPC: "2.0", ID: 1, Method: fixtures.ToolSendEmail}, nil)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, env["success"])
	assert.Equal(t, float64(sserr.CodeMissingSecret), env["code"])
}

// TestEndToEnd_UnknownTool verifies the not-found envelope over the wire,
// including the JSON number representation of the code.
func TestEndToEnd_UnknownTool(t *testing.T) {
	t.Parallel()
	srv := newDispatchServer(t, newTestModule(t, nil))

	status, env := postDispatch(t, context.Background(), srv.Client(), srv.URL,
		reqctx.Request{JSONRPC: "2.0", ID: 1, Method: "nope"}, nil)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, env["success"])
	assert.Equal(t, float64(sserr.CodeNotFound), env["code"])
	assert.Equal(t, `Tool "nope" not found`, env["error"])
}
