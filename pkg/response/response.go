// Package response builds the JSON envelopes every tool handler returns.
//
// The platform convention is a single success discriminator: handlers
// produce either
//
//	{"success": true, ...payload}
//
// or
//
//	{"success": false, "error": "...", "code": <integer>, "metadata": {...}}
//
// [Success] and [SimpleSuccess] build the first shape, [FromError] converts
// any error (taxonomy or foreign) into the second. [SuccessSchema] emits the
// JSON Schema union describing both shapes for a tool declaration, and
// [CompileSchema] turns such a document into a validator.
package response

import (
	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
)

// Success wraps a payload in a success envelope. The payload fields are
// copied onto the envelope next to the literal "success": true; a "success"
// key in the payload is overwritten, the discriminator is never
// caller-controlled. A nil payload yields the same result as
// [SimpleSuccess].
func Success(payload map[string]any) map[string]any {
	env := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		env[k] = v
	}
	env["success"] = true
	return env
}

// SimpleSuccess returns the minimal success envelope with no payload.
func SimpleSuccess() map[string]any {
	return map[string]any{"success": true}
}

// FromError converts an error into a failure envelope. Taxonomy errors keep
// their code and metadata; foreign errors are first normalized through
// [sserr.FromError] and surface as internal errors. A nil error still
// produces a failure envelope: reaching for a failure envelope without an
// error is itself an internal error.
func FromError(err error) map[string]any {
	e := sserr.FromError(err)
	if e == nil {
		e = sserr.Internal("an unexpected error occurred")
	}
	return e.Envelope()
}
