package errors

import (
	"fmt"
	"net/http"
)

// Error represents a structured error with a code, message, and optional
// metadata. It implements the standard error interface and provides
// additional context for error handling, logging, and envelope
// serialization at the handler boundary.
//
// Error is designed to be:
//   - Immutable: fields are never modified after creation
//   - Chainable: supports error wrapping via the Cause field
//   - Structured: provides a machine-readable code and HTTP status
//   - Serializable: converts to the platform error envelope via Envelope
type Error struct {
	// Code is the machine-readable error code (e.g. CodeMissingSecret).
	Code Code

	// Message is the human-readable error message.
	// This message may be shown to end users and should not contain
	// sensitive information such as internal paths or secret values.
	Message string

	// Cause is the underlying error that caused this error, if any.
	// Use Unwrap() to access the cause for error chain inspection.
	Cause error

	// Metadata contains additional structured data about the error, such
	// as the offending field name or a retry-after hint. A nil map means
	// no metadata was supplied; the envelope omits the metadata key in
	// that case. A non-nil empty map is serialized as an empty object.
	Metadata map[string]any
}

// Error implements the error interface, returning the symbolic code name
// and the message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of this error, supporting
// errors.Unwrap() and errors.Is() from the standard library.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error
// based on its code band.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNotImplemented:
		return http.StatusNotImplemented
	}
	switch e.Code.Category() {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryAuthentication:
		return http.StatusUnauthorized
	case CategoryExternal:
		return http.StatusBadGateway
	case CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Envelope serializes the error into the platform error envelope:
//
//	{"success": false, "error": <message>, "code": <integer>}
//
// The "metadata" key is included only when metadata was supplied at
// construction time. Absence is distinguished from an empty mapping: a nil
// Metadata map omits the key entirely, while a non-nil empty map yields
// "metadata": {}. The returned metadata is a copy; mutating it does not
// affect the error.
func (e *Error) Envelope() map[string]any {
	env := map[string]any{
		"success": false,
		"error":   e.Message,
		"code":    int(e.Code),
	}
	if e.Metadata != nil {
		md := make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			md[k] = v
		}
		env["metadata"] = md
	}
	return env
}

// WithMetadata returns a new Error with the specified metadata entries
// added. The original error is not modified.
func (e *Error) WithMetadata(metadata map[string]any) *Error {
	merged := make(map[string]any, len(e.Metadata)+len(metadata))
	for k, v := range e.Metadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	return &Error{
		Code:     e.Code,
		Message:  e.Message,
		Cause:    e.Cause,
		Metadata: merged,
	}
}

// WithMeta returns a new Error with a single metadata key-value pair added.
// The original error is not modified.
func (e *Error) WithMeta(key string, value any) *Error {
	merged := make(map[string]any, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		merged[k] = v
	}
	merged[key] = value
	return &Error{
		Code:     e.Code,
		Message:  e.Message,
		Cause:    e.Cause,
		Metadata: merged,
	}
}

// Format implements fmt.Formatter for detailed error output.
// Use %v for standard output, %+v for detailed output including the cause chain.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "Error{Code: %d (%s), Message: %q", int(e.Code), e.Code, e.Message)
			if len(e.Metadata) > 0 {
				fmt.Fprintf(s, ", Metadata: %v", e.Metadata)
			}
			if e.Cause != nil {
				fmt.Fprintf(s, ", Cause: %+v", e.Cause)
			}
			fmt.Fprint(s, "}")
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
