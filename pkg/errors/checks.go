package errors

import "errors"

// AsError extracts an *Error from an error chain.
// Returns the extracted error and true if successful, nil and false otherwise.
//
// Example:
//
//	if e, ok := errors.AsError(err); ok {
//	    log.Printf("code: %d", e.Code)
//	}
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetCode extracts the error code from an error.
// Returns CodeUnknown if the error is not an *Error or is nil.
//
// Example:
//
//	if errors.GetCode(err) == errors.CodeNotFound {
//	    // handle missing resource
//	}
func GetCode(err error) Code {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return CodeUnknown
}

// HasCode checks if an error has a specific error code.
//
// Example:
//
//	if errors.HasCode(err, errors.CodeMissingSecret) {
//	    // prompt for configuration
//	}
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

// IsValidation checks if an error is a validation error (1xxx band).
func IsValidation(err error) bool {
	return GetCode(err).Category() == CategoryValidation
}

// IsAuthentication checks if an error is an authentication error (2xxx band).
func IsAuthentication(err error) bool {
	return GetCode(err).Category() == CategoryAuthentication
}

// IsExternal checks if an error is an external service error (3xxx band).
func IsExternal(err error) bool {
	return GetCode(err).Category() == CategoryExternal
}

// IsRateLimit checks if an error is a rate limiting error (4xxx band).
func IsRateLimit(err error) bool {
	return GetCode(err).Category() == CategoryRateLimit
}

// IsInternal checks if an error is an internal error (5xxx band).
func IsInternal(err error) bool {
	return GetCode(err).Category() == CategoryInternal
}

// IsRetryable reports whether the operation that produced err is safe to
// retry. Timeouts, network failures, and rate limits are retryable;
// validation, authentication, and internal errors are not.
//
// Example:
//
//	if errors.IsRetryable(err) {
//	    backoff.Retry(operation)
//	}
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case CodeTimeout, CodeNetworkError, CodeRateLimitExceeded:
		return true
	default:
		return false
	}
}

// IsNotFound checks if an error indicates a missing resource.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
