package errors

// Code is a stable, machine-readable error code. Codes are integers
// partitioned into numeric bands of one thousand, one band per category
// (see [Code.Category]).
//
// Error codes are designed to be:
//   - Stable: each symbolic name maps to one integer, forever
//   - Unique: bands never overlap and values are never reused
//   - Machine-readable: suitable for automated error handling and alerting
//
// A Code marshals to JSON as its integer value.
type Code int

// CodeUnknown is the zero value. It is not a member of any band and is
// returned by [GetCode] when an error does not carry a platform code.
const CodeUnknown Code = 0

// Error code bands and their members:
//
//	1xxx - Validation (HTTP 400)
//	2xxx - Authentication and secrets (HTTP 401)
//	3xxx - External call failures (HTTP 502/504/404)
//	4xxx - Rate limits and quotas (HTTP 429)
//	5xxx - Internal failures (HTTP 500/501)
const (
	// Validation errors (1xxx).
	// Used when request input fails validation rules.

	// CodeInvalidInput indicates a general validation failure.
	CodeInvalidInput Code = 1001

	// CodeMissingRequiredField indicates a required field is missing.
	CodeMissingRequiredField Code = 1002

	// CodeInvalidFormat indicates a value does not match its expected
	// grammar (email, URL, UUID, date-time, JSON, ...).
	CodeInvalidFormat Code = 1003

	// Authentication errors (2xxx).
	// Used when a caller cannot be authenticated or a secret is unusable.

	// CodeUnauthorized indicates a general authentication failure.
	CodeUnauthorized Code = 2001

	// CodeMissingSecret indicates a required secret is not configured.
	CodeMissingSecret Code = 2002

	// CodeInvalidSecret indicates a configured secret is unusable.
	CodeInvalidSecret Code = 2003

	// External call errors (3xxx).
	// Used when a call to an upstream system fails.

	// CodeAPIError indicates an upstream API returned a failure.
	CodeAPIError Code = 3001

	// CodeNetworkError indicates a network-level failure reaching an
	// upstream system.
	CodeNetworkError Code = 3002

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout Code = 3003

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound Code = 3004

	// Rate and quota errors (4xxx).
	// Used when usage limits are exhausted.

	// CodeRateLimitExceeded indicates the caller exceeded a rate limit.
	CodeRateLimitExceeded Code = 4001

	// CodeQuotaExceeded indicates a usage quota is exhausted.
	CodeQuotaExceeded Code = 4002

	// Internal errors (5xxx).
	// Used for unexpected failures inside the module.

	// CodeInternal indicates a general internal error.
	CodeInternal Code = 5001

	// CodeNotImplemented indicates a requested feature is not implemented.
	CodeNotImplemented Code = 5002

	// CodeConfiguration indicates the module is misconfigured.
	CodeConfiguration Code = 5003
)

// Category identifies the band an error code belongs to.
type Category string

// Categories, one per thousand-value band.
const (
	CategoryValidation     Category = "validation"
	CategoryAuthentication Category = "authentication"
	CategoryExternal       Category = "external"
	CategoryRateLimit      Category = "rate_limit"
	CategoryInternal       Category = "internal"

	// CategoryUnknown is returned for values outside every band.
	CategoryUnknown Category = "unknown"
)

// String returns the symbolic name of the error code (e.g. "MISSING_SECRET").
// Unknown values format as "UNKNOWN_CODE".
func (c Code) String() string {
	switch c {
	case CodeInvalidInput:
		return "INVALID_INPUT"
	case CodeMissingRequiredField:
		return "MISSING_REQUIRED_FIELD"
	case CodeInvalidFormat:
		return "INVALID_FORMAT"
	case CodeUnauthorized:
		return "UNAUTHORIZED"
	case CodeMissingSecret:
		return "MISSING_SECRET"
	case CodeInvalidSecret:
		return "INVALID_SECRET"
	case CodeAPIError:
		return "API_ERROR"
	case CodeNetworkError:
		return "NETWORK_ERROR"
	case CodeTimeout:
		return "TIMEOUT"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeRateLimitExceeded:
		return "RATE_LIMIT_EXCEEDED"
	case CodeQuotaExceeded:
		return "QUOTA_EXCEEDED"
	case CodeInternal:
		return "INTERNAL_ERROR"
	case CodeNotImplemented:
		return "NOT_IMPLEMENTED"
	case CodeConfiguration:
		return "CONFIGURATION_ERROR"
	default:
		return "UNKNOWN_CODE"
	}
}

// Category returns the band category of the error code.
func (c Code) Category() Category {
	switch {
	case c >= 1000 && c < 2000:
		return CategoryValidation
	case c >= 2000 && c < 3000:
		return CategoryAuthentication
	case c >= 3000 && c < 4000:
		return CategoryExternal
	case c >= 4000 && c < 5000:
		return CategoryRateLimit
	case c >= 5000 && c < 6000:
		return CategoryInternal
	default:
		return CategoryUnknown
	}
}

// Valid reports whether the code is one of the defined taxonomy members.
// CodeUnknown and values outside the declared set are not valid.
func (c Code) Valid() bool {
	switch c {
	case CodeInvalidInput, CodeMissingRequiredField, CodeInvalidFormat,
		CodeUnauthorized, CodeMissingSecret, CodeInvalidSecret,
		CodeAPIError, CodeNetworkError, CodeTimeout, CodeNotFound,
		CodeRateLimitExceeded, CodeQuotaExceeded,
		CodeInternal, CodeNotImplemented, CodeConfiguration:
		return true
	default:
		return false
	}
}
