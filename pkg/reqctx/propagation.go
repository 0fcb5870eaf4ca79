package reqctx

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Header and metadata keys used to propagate the caller context on
// module-to-module calls. The same keys are used for HTTP headers and gRPC
// metadata; they are lowercase because gRPC metadata keys are normalized
// to lowercase.
const (
	// HeaderUserID carries RequestContext.UserID.
	HeaderUserID = "x-user-id"

	// HeaderConversationID carries RequestContext.ConversationID. Absent
	// when the context has no conversation.
	HeaderConversationID = "x-conversation-id"

	// HeaderDisplayName carries RequestContext.DisplayName.
	HeaderDisplayName = "x-display-name"

	// HeaderRequestID carries RequestContext.RequestID.
	HeaderRequestID = "x-request-id"

	// HeaderTimestamp carries RequestContext.Timestamp as a decimal
	// string of Unix epoch milliseconds.
	HeaderTimestamp = "x-timestamp"

	// HeaderContextToken carries a signed context token when the
	// propagating side is configured with a [TokenIssuer].
	HeaderContextToken = "x-context-token"
)

// MaxHeaderValueSize is the maximum size in bytes of a single propagated
// header value (8 KB). HTTP/2 implementations commonly limit total header
// size to 16 KB; individual values above this cap are dropped with a
// warning instead of failing the call.
const MaxHeaderValueSize = 8192

// headerGetter abstracts reading a propagation value from HTTP headers or
// gRPC metadata. It returns the empty string for absent keys.
type headerGetter func(key string) string

// headerSetter abstracts writing a propagation value to HTTP headers or
// gRPC metadata.
type headerSetter func(key, value string)

// contextToHeaders writes rc's identity fields through set. Empty fields
// are not written. Secrets are never written: they stay within the process
// that resolved them.
func contextToHeaders(ctx context.Context, rc RequestContext, set headerSetter) {
	setHeaderValue(ctx, set, HeaderUserID, rc.UserID)
	setHeaderValue(ctx, set, HeaderConversationID, rc.ConversationID)
	setHeaderValue(ctx, set, HeaderDisplayName, rc.DisplayName)
	setHeaderValue(ctx, set, HeaderRequestID, rc.RequestID)
	setHeaderValue(ctx, set, HeaderTimestamp, strconv.FormatInt(rc.Timestamp, 10))
}

// setHeaderValue writes a single propagation value, skipping empty values
// and dropping values that exceed [MaxHeaderValueSize] with a warning.
func setHeaderValue(ctx context.Context, set headerSetter, key, value string) {
	if value == "" {
		return
	}
	if len(value) > MaxHeaderValueSize {
		slog.WarnContext(ctx, "reqctx: dropping oversized propagation value",
			"key", key,
			"size", len(value))
		return
	}
	set(key, value)
}

// contextFromHeaders rebuilds a RequestContext from propagated values.
// Missing fields default exactly as in [Extract]. The secrets map is
// always fresh and empty because secrets are never propagated.
func contextFromHeaders(ctx context.Context, get headerGetter) RequestContext {
	rc := RequestContext{
		UserID:      DefaultUserID,
		DisplayName: DefaultDisplayName,
		Timestamp:   time.Now().UnixMilli(),
		RequestID:   uuid.NewString(),
		Secrets:     map[string]Secret{},
	}

	if v := get(HeaderUserID); v != "" {
		rc.UserID = v
	}
	if v := get(HeaderConversationID); v != "" {
		rc.ConversationID = v
	}
	if v := get(HeaderDisplayName); v != "" {
		rc.DisplayName = v
	}
	if v := get(HeaderRequestID); v != "" {
		rc.RequestID = v
	}
	if v := get(HeaderTimestamp); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			slog.WarnContext(ctx, "reqctx: invalid x-timestamp value, using current time",
				"value", v)
		} else {
			rc.Timestamp = ts
		}
	}
	return rc
}
