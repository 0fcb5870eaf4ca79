package errors

import (
	"errors"
	"fmt"
)

// New creates a new Error with the specified code and message.
// Use this for creating errors without an underlying cause.
//
// Example:
//
//	err := errors.New(errors.CodeInvalidInput, "recipient list is empty")
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with the specified code and formatted message.
// Use this for creating errors with dynamic content in the message.
//
// Example:
//
//	err := errors.Newf(errors.CodeAPIError, "provider returned status %d", status)
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
// The wrapped error becomes the Cause of the new error.
// If err is nil, Wrap returns nil.
//
// Example:
//
//	resp, err := client.Do(req)
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeNetworkError, "failed to reach delivery provider")
//	}
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with a formatted message.
// The wrapped error becomes the Cause of the new error.
// If err is nil, Wrapf returns nil.
//
// Example:
//
//	err := errors.Wrapf(err, errors.CodeAPIError, "failed to deliver to %q", recipient)
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// Validation creates a new general validation error. The message is used
// verbatim. Attach field-level context with [Error.WithMetadata].
//
// Example:
//
//	err := errors.Validation("recipient list is empty")
func Validation(message string) *Error {
	return New(CodeInvalidInput, message)
}

// Validationf creates a new validation error with a formatted message.
//
// Example:
//
//	err := errors.Validationf("subject must be at most %d characters", maxLen)
func Validationf(format string, args ...any) *Error {
	return Newf(CodeInvalidInput, format, args...)
}

// InvalidFormat creates a new format validation error. Use this when a
// value fails a grammar check (email, URL, UUID, date-time, JSON).
//
// Example:
//
//	err := errors.InvalidFormat("Invalid email address")
func InvalidFormat(message string) *Error {
	return New(CodeInvalidFormat, message)
}

// MissingField creates an error for a required field that was not supplied.
// The message format is fixed; the field name is recorded in metadata.
//
// Example:
//
//	err := errors.MissingField("recipient")
//	// err.Message == `Required field "recipient" is missing`
func MissingField(name string) *Error {
	return &Error{
		Code:     CodeMissingRequiredField,
		Message:  fmt.Sprintf("Required field %q is missing", name),
		Metadata: map[string]any{"field": name},
	}
}

// Unauthorized creates a new authentication error.
// Use this when a caller cannot be authenticated (missing, expired, or
// malformed credentials).
//
// Example:
//
//	err := errors.Unauthorized("context token signature is invalid")
func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, message)
}

// MissingSecret creates an error for a required secret that is absent from
// the request context. The message format is fixed; the secret name is
// recorded in metadata.
//
// Example:
//
//	err := errors.MissingSecret("SENDGRID_API_KEY")
//	// err.Message == `Required secret "SENDGRID_API_KEY" is not configured`
func MissingSecret(name string) *Error {
	return &Error{
		Code:     CodeMissingSecret,
		Message:  fmt.Sprintf("Required secret %q is not configured", name),
		Metadata: map[string]any{"secretName": name},
	}
}

// InvalidSecret creates an error for a secret that is present but unusable.
// At most one reason may be given; when present it is appended to the
// message. The secret name is always recorded in metadata.
//
// Example:
//
//	errors.InvalidSecret("API_KEY")                  // `Secret "API_KEY" is invalid`
//	errors.InvalidSecret("API_KEY", "wrong prefix")  // `Secret "API_KEY" is invalid: wrong prefix`
func InvalidSecret(name string, reason ...string) *Error {
	message := fmt.Sprintf("Secret %q is invalid", name)
	if len(reason) > 0 {
		message = fmt.Sprintf("Secret %q is invalid: %s", name, reason[0])
	}
	return &Error{
		Code:     CodeInvalidSecret,
		Message:  message,
		Metadata: map[string]any{"secretName": name},
	}
}

// APIError creates a new upstream API error. The message is used verbatim.
//
// Example:
//
//	err := errors.APIError("provider rejected the message")
func APIError(message string) *Error {
	return New(CodeAPIError, message)
}

// NetworkError creates a new network failure error. The message is used
// verbatim.
//
// Example:
//
//	err := errors.NetworkError("connection reset by provider")
func NetworkError(message string) *Error {
	return New(CodeNetworkError, message)
}

// Timeout creates an error for an operation that exceeded its time limit.
// At most one timeout (in milliseconds) may be given; when present it is
// recorded in metadata as timeoutMs. The metadata key is omitted otherwise.
//
// Example:
//
//	errors.Timeout("send_email")        // no metadata
//	errors.Timeout("send_email", 30000) // metadata {"timeoutMs": 30000}
func Timeout(operation string, timeoutMs ...int64) *Error {
	e := &Error{
		Code:    CodeTimeout,
		Message: fmt.Sprintf("Operation %q timed out", operation),
	}
	if len(timeoutMs) > 0 {
		e.Metadata = map[string]any{"timeoutMs": timeoutMs[0]}
	}
	return e
}

// NotFound creates an error for a resource that does not exist. At most one
// identifier may be given; when present it appears in the message and is
// recorded in metadata. The metadata key is omitted otherwise.
//
// Example:
//
//	errors.NotFound("Template")          // `Template not found`
//	errors.NotFound("Template", "tp-42") // `Template "tp-42" not found`
func NotFound(resource string, identifier ...string) *Error {
	if len(identifier) > 0 {
		return &Error{
			Code:     CodeNotFound,
			Message:  fmt.Sprintf("%s %q not found", resource, identifier[0]),
			Metadata: map[string]any{"identifier": identifier[0]},
		}
	}
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// RateLimit creates an error for an exceeded rate limit. The message is
// fixed. At most one retry-after hint (in seconds) may be given; when
// present it is recorded in metadata as retryAfter.
//
// Example:
//
//	errors.RateLimit()   // no metadata
//	errors.RateLimit(30) // metadata {"retryAfter": 30}
func RateLimit(retryAfter ...int64) *Error {
	e := &Error{
		Code:    CodeRateLimitExceeded,
		Message: "Rate limit exceeded",
	}
	if len(retryAfter) > 0 {
		e.Metadata = map[string]any{"retryAfter": retryAfter[0]}
	}
	return e
}

// QuotaExceeded creates an error for an exhausted usage quota. At most one
// quota type may be given; when present it prefixes the message and is
// recorded in metadata.
//
// Example:
//
//	errors.QuotaExceeded()          // `Quota exceeded`
//	errors.QuotaExceeded("Monthly") // `Monthly quota exceeded`
func QuotaExceeded(quotaType ...string) *Error {
	if len(quotaType) > 0 {
		return &Error{
			Code:     CodeQuotaExceeded,
			Message:  fmt.Sprintf("%s quota exceeded", quotaType[0]),
			Metadata: map[string]any{"quotaType": quotaType[0]},
		}
	}
	return &Error{
		Code:    CodeQuotaExceeded,
		Message: "Quota exceeded",
	}
}

// Internal creates a new internal error.
// Use this for unexpected failures that should not expose details to users.
//
// Example:
//
//	err := errors.Internal("an unexpected error occurred")
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Internalf creates a new internal error with a formatted message.
// Use this for logging detailed internal errors.
//
// Example:
//
//	err := errors.Internalf("failed to process request: %v", underlyingErr)
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// NotImplemented creates an error for a feature that is not implemented.
// The message format is fixed; the feature name is recorded in metadata.
//
// Example:
//
//	err := errors.NotImplemented("attachments")
//	// err.Message == `Feature "attachments" is not implemented`
func NotImplemented(feature string) *Error {
	return &Error{
		Code:     CodeNotImplemented,
		Message:  fmt.Sprintf("Feature %q is not implemented", feature),
		Metadata: map[string]any{"feature": feature},
	}
}

// Configuration creates a new configuration error. The message is used
// verbatim.
//
// Example:
//
//	err := errors.Configuration("token issuer is not set")
func Configuration(message string) *Error {
	return New(CodeConfiguration, message)
}

// Configurationf creates a new configuration error with a formatted message.
//
// Example:
//
//	err := errors.Configurationf("unsupported config extension %q", ext)
func Configurationf(format string, args ...any) *Error {
	return Newf(CodeConfiguration, format, args...)
}

// FromError converts a standard error to an Error.
// If the error is already an *Error (anywhere in its chain), that value is
// returned as-is. Otherwise it is wrapped as an internal error.
//
// Example:
//
//	platformErr := errors.FromError(err)
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Wrap(err, CodeInternal, "an unexpected error occurred")
}
