package response

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
)

func TestSuccess(t *testing.T) {
	t.Parallel()
	payload := map[string]any{
		"messageId": "msg-123",
		"queued":    true,
	}

	env := Success(payload)

	assert.Equal(t, map[string]any{
		"success":   true,
		"messageId": "msg-123",
		"queued":    true,
	}, env)
}

func TestSuccess_DoesNotModifyPayload(t *testing.T) {
	t.Parallel()
	payload := map[string]any{"messageId": "msg-123"}

	env := Success(payload)
	env["messageId"] = "mutated"

	assert.Equal(t, "msg-123", payload["messageId"], "Success should copy, not alias, the payload")
	assert.NotContains(t, payload, "success")
}

func TestSuccess_DiscriminatorNotCallerControlled(t *testing.T) {
	t.Parallel()
	env := Success(map[string]any{"success": false, "data": 1})

	assert.Equal(t, true, env["success"], "a payload cannot forge the discriminator")
}

func TestSuccess_NilPayload(t *testing.T) {
	t.Parallel()
	assert.Equal(t, SimpleSuccess(), Success(nil))
}

func TestSimpleSuccess(t *testing.T) {
	t.Parallel()
	assert.Equal(t, map[string]any{"success": true}, SimpleSuccess())
}

func TestFromError_TaxonomyError(t *testing.T) {
	t.Parallel()
	env := FromError(sserr.MissingSecret("API_KEY"))

	assert.Equal(t, false, env["success"])
	assert.Equal(t, `Required secret "API_KEY" is not configured`, env["error"])
	assert.Equal(t, 2002, env["code"])
	assert.Equal(t, map[string]any{"secretName": "API_KEY"}, env["metadata"])
}

func TestFromError_ForeignError(t *testing.T) {
	t.Parallel()
	env := FromError(errors.New("database exploded"))

	assert.Equal(t, false, env["success"])
	assert.Equal(t, "an unexpected error occurred", env["error"],
		"foreign error details must not leak into the envelope")
	assert.Equal(t, 5001, env["code"])
	assert.NotContains(t, env, "metadata")
}

func TestFromError_Nil(t *testing.T) {
	t.Parallel()
	env := FromError(nil)

	assert.Equal(t, false, env["success"])
	assert.Equal(t, 5001, env["code"])
}

func TestEnvelope_WireShape(t *testing.T) {
	t.Parallel()
	raw, err := json.Marshal(FromError(sserr.RateLimit(30)))
	require.NoError(t, err)

	var decoded struct {
		Success  bool           `json:"success"`
		Error    string         `json:"error"`
		Code     int            `json:"code"`
		Metadata map[string]any `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.False(t, decoded.Success)
	assert.Equal(t, "Rate limit exceeded", decoded.Error)
	assert.Equal(t, 4001, decoded.Code)
	assert.Equal(t, float64(30), decoded.Metadata["retryAfter"])
}
