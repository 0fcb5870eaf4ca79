package reqctx

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		SigningKey: Secret(strings.Repeat("k", 32)),
		Issuer:     "stricklysoft-gateway",
		Leeway:     time.Second,
		TTL:        5 * time.Minute,
	}
}

func testContext() RequestContext {
	return RequestContext{
		UserID:         "user-7",
		ConversationID: "conv-3",
		DisplayName:    "Dana",
		Timestamp:      1700000000000,
		RequestID:      "req-9",
		Secrets:        map[string]Secret{"SENDGRID_API_KEY": "sk-live-4242"},
	}
}

func TestTokenConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*TokenConfig)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *TokenConfig) {},
		},
		{
			name:    "short signing key",
			mutate:  func(c *TokenConfig) { c.SigningKey = "too-short" },
			wantErr: "at least 32 bytes",
		},
		{
			name:    "empty issuer",
			mutate:  func(c *TokenConfig) { c.Issuer = "" },
			wantErr: "issuer must not be empty",
		},
		{
			name:    "negative leeway",
			mutate:  func(c *TokenConfig) { c.Leeway = -time.Second },
			wantErr: "leeway must be non-negative",
		},
		{
			name:    "zero ttl",
			mutate:  func(c *TokenConfig) { c.TTL = 0 },
			wantErr: "TTL must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testTokenConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, sserr.HasCode(err, sserr.CodeConfiguration))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewTokenVerifier_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testTokenConfig()
	cfg.SigningKey = "too-short"

	_, err := NewTokenVerifier(cfg)
	require.Error(t, err)
	assert.True(t, sserr.HasCode(err, sserr.CodeConfiguration))

	_, err = NewTokenIssuer(cfg)
	require.Error(t, err)
}

func TestToken_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer(testTokenConfig())
	require.NoError(t, err)
	verifier, err := NewTokenVerifier(testTokenConfig())
	require.NoError(t, err)

	token, err := issuer.Issue(testContext())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "user-7", got.UserID)
	assert.Equal(t, "conv-3", got.ConversationID)
	assert.Equal(t, "Dana", got.DisplayName)
	assert.Equal(t, int64(1700000000000), got.Timestamp)
	assert.Equal(t, "req-9", got.RequestID)

	// Tokens carry identity fields only; the verified context starts with
	// a fresh empty secrets map.
	require.NotNil(t, got.Secrets)
	assert.Empty(t, got.Secrets)
}

func TestToken_RoundTripWithoutConversation(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer(testTokenConfig())
	require.NoError(t, err)
	verifier, err := NewTokenVerifier(testTokenConfig())
	require.NoError(t, err)

	rc := testContext()
	rc.ConversationID = ""

	token, err := issuer.Issue(rc)
	require.NoError(t, err)

	got, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Empty(t, got.ConversationID)
}

func TestIssue_NeverEmbedsSecrets(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer(testTokenConfig())
	require.NoError(t, err)

	token, err := issuer.Issue(testContext())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	assert.NotContains(t, string(payload), "sk-live-4242")
	assert.NotContains(t, string(payload), "secrets")
	assert.NotContains(t, string(payload), "SENDGRID_API_KEY")
}

func TestVerify_WrongKey(t *testing.T) {
	t.Parallel()

	otherCfg := testTokenConfig()
	otherCfg.SigningKey = Secret(strings.Repeat("x", 32))
	otherIssuer, err := NewTokenIssuer(otherCfg)
	require.NoError(t, err)

	verifier, err := NewTokenVerifier(testTokenConfig())
	require.NoError(t, err)

	token, err := otherIssuer.Issue(testContext())
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, sserr.HasCode(err, sserr.CodeUnauthorized))
	assert.Contains(t, err.Error(), "signature")
}

func TestVerify_WrongIssuer(t *testing.T) {
	t.Parallel()

	otherCfg := testTokenConfig()
	otherCfg.Issuer = "unknown-gateway"
	otherIssuer, err := NewTokenIssuer(otherCfg)
	require.NoError(t, err)

	verifier, err := NewTokenVerifier(testTokenConfig())
	require.NoError(t, err)

	token, err := otherIssuer.Issue(testContext())
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, sserr.HasCode(err, sserr.CodeUnauthorized))
	assert.Contains(t, err.Error(), "issuer")
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	cfg := testTokenConfig()
	now := time.Now()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": cfg.Issuer,
		"sub": "user-7",
		"iat": now.Add(-2 * time.Hour).Unix(),
		"exp": now.Add(-time.Hour).Unix(),
	})
	token, err := expired.SignedString([]byte(cfg.SigningKey.Value()))
	require.NoError(t, err)

	verifier, err := NewTokenVerifier(cfg)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, sserr.HasCode(err, sserr.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestVerify_AlgNoneRejected(t *testing.T) {
	t.Parallel()

	cfg := testTokenConfig()
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"iss": cfg.Issuer,
		"sub": "user-7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	verifier, err := NewTokenVerifier(cfg)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, sserr.HasCode(err, sserr.CodeUnauthorized))
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	verifier, err := NewTokenVerifier(testTokenConfig())
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, sserr.HasCode(err, sserr.CodeUnauthorized))
	assert.Contains(t, err.Error(), "malformed")
}

func TestVerify_Empty(t *testing.T) {
	t.Parallel()

	verifier, err := NewTokenVerifier(testTokenConfig())
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), "")
	require.Error(t, err)
	assert.True(t, sserr.HasCode(err, sserr.CodeUnauthorized))
	assert.Contains(t, err.Error(), "must not be empty")
}

func TestVerify_Oversized(t *testing.T) {
	t.Parallel()

	verifier, err := NewTokenVerifier(testTokenConfig())
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), strings.Repeat("a", MaxHeaderValueSize+1))
	require.Error(t, err)
	assert.True(t, sserr.HasCode(err, sserr.CodeUnauthorized))
	assert.Contains(t, err.Error(), "maximum size")
}

// A sparse token (identity claims only) verifies into a context whose
// unclaimed fields take the same defaults Extract applies.
func TestVerify_SparseClaims(t *testing.T) {
	t.Parallel()

	cfg := testTokenConfig()
	now := time.Now()
	sparse := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": cfg.Issuer,
		"sub": "user-7",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	token, err := sparse.SignedString([]byte(cfg.SigningKey.Value()))
	require.NoError(t, err)

	verifier, err := NewTokenVerifier(cfg)
	require.NoError(t, err)

	got, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "user-7", got.UserID)
	assert.Equal(t, DefaultDisplayName, got.DisplayName)
	assert.Empty(t, got.ConversationID)
	assert.NotEmpty(t, got.RequestID)
	assert.InDelta(t, time.Now().UnixMilli(), got.Timestamp, 5000)
}
