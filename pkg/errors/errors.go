// Package errors provides the structured error taxonomy shared by every
// module built on the StricklySoft Module Kit. It defines stable integer
// error codes grouped into numeric bands, a structured error type with
// optional metadata, named factory functions for common failure scenarios,
// and helpers for creating, wrapping, and inspecting errors.
//
// # Error Bands
//
// Error codes are integers partitioned into five bands, one per category:
//
//   - 1xxx Validation: invalid input, missing fields, malformed values
//   - 2xxx Authentication: failed auth, missing or invalid secrets
//   - 3xxx External: upstream API, network, timeout, and lookup failures
//   - 4xxx Rate/Quota: rate limits and quota exhaustion
//   - 5xxx Internal: unexpected failures, unimplemented features, bad config
//
// Each symbolic name maps to exactly one integer for the lifetime of the
// API. Clients may switch on the integer value or on the band.
//
// # Usage
//
// Create a new error with a factory:
//
//	err := errors.MissingSecret("SENDGRID_API_KEY")
//
// Wrap an existing error:
//
//	err := errors.Wrap(err, errors.CodeAPIError, "delivery provider rejected the request")
//
// Check error category:
//
//	if errors.IsValidation(err) {
//	    // reject the request without retrying
//	}
//
// Serialize at the handler boundary:
//
//	if e, ok := errors.AsError(err); ok {
//	    return e.Envelope()
//	}
package errors
