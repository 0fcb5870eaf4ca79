package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
)

// Email accepts a syntactically valid email address and normalizes nothing.
// Display-name forms ("Bob <bob@example.com>") are rejected; only the bare
// address form is accepted.
func Email() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.InvalidFormat("Invalid email address")
			}
			if err := checkEmail(s); err != nil {
				return nil, err
			}
			return s, nil
		},
		schema: map[string]any{"type": "string", "format": "email"},
	}
}

// EmailList accepts either a sequence of email addresses or a single string
// of comma-separated addresses (each segment trimmed of surrounding
// whitespace), and normalizes both shapes to a []string of validated
// addresses. Any failing segment rejects the whole value.
//
// Example:
//
//	rule := validate.EmailList()
//	v, _ := rule.Parse("a@example.com, b@example.com")
//	// v == []string{"a@example.com", "b@example.com"}
func EmailList() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			switch t := v.(type) {
			case string:
				parts := strings.Split(t, ",")
				out := make([]string, 0, len(parts))
				for _, p := range parts {
					p = strings.TrimSpace(p)
					if err := checkEmail(p); err != nil {
						return nil, err
					}
					out = append(out, p)
				}
				return out, nil
			case []string:
				out := make([]string, 0, len(t))
				for _, p := range t {
					if err := checkEmail(p); err != nil {
						return nil, err
					}
					out = append(out, p)
				}
				return out, nil
			case []any:
				out := make([]string, 0, len(t))
				for _, e := range t {
					p, ok := e.(string)
					if !ok {
						return nil, sserr.InvalidFormat("Invalid email address")
					}
					if err := checkEmail(p); err != nil {
						return nil, err
					}
					out = append(out, p)
				}
				return out, nil
			default:
				return nil, sserr.InvalidFormat("Invalid email address")
			}
		},
		schema: map[string]any{
			"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string", "format": "email"},
				},
			},
		},
	}
}

// checkEmail validates a single bare email address. The parsed address must
// round-trip to the input, which rejects display-name and angle-bracket
// forms that net/mail would otherwise accept.
func checkEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return sserr.InvalidFormat(fmt.Sprintf("Invalid email address: %q", s))
	}
	return nil
}

// URL accepts any syntactically valid absolute URL, regardless of scheme.
func URL() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.InvalidFormat("Invalid URL")
			}
			u, err := url.Parse(s)
			if err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "" && u.Path == "") {
				return nil, sserr.InvalidFormat("Invalid URL")
			}
			return s, nil
		},
		schema: map[string]any{"type": "string", "format": "uri"},
	}
}

// HTTPSURL accepts only absolute URLs with the https scheme. Plain-http and
// other schemes are rejected with a reason naming HTTPS so callers can
// distinguish "not a URL" from "not secure enough".
func HTTPSURL() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.InvalidFormat("Invalid URL")
			}
			u, err := url.Parse(s)
			if err != nil || u.Scheme == "" {
				return nil, sserr.InvalidFormat("Invalid URL")
			}
			if u.Scheme != "https" {
				return nil, sserr.InvalidFormat("URL must use HTTPS")
			}
			if u.Host == "" {
				return nil, sserr.InvalidFormat("Invalid URL")
			}
			return s, nil
		},
		schema: map[string]any{
			"type":    "string",
			"format":  "uri",
			"pattern": "^https://",
		},
	}
}

// APIKey accepts strings of at least 10 characters. An optional prefix
// (only the first value is used) additionally requires the key to start
// with that exact prefix; the rejection reason names the required prefix.
//
// Example:
//
//	rule := validate.APIKey("sk-")
//	_, err := rule.Parse("wrong-prefix-key")
//	// err.Message == `API key must start with "sk-"`
func APIKey(prefix ...string) Rule {
	var want string
	if len(prefix) > 0 {
		want = prefix[0]
	}

	schema := map[string]any{"type": "string", "minLength": 10}
	if want != "" {
		schema["pattern"] = "^" + regexp.QuoteMeta(want)
	}

	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.Validationf("expected a string, got %T", v)
			}
			if utf8.RuneCountInString(s) < 10 {
				return nil, sserr.Validation("API key must be at least 10 characters")
			}
			if want != "" && !strings.HasPrefix(s, want) {
				return nil, sserr.Validationf("API key must start with %q", want)
			}
			return s, nil
		},
		schema: schema,
	}
}

// JSON accepts a string and parses it as a JSON document into T. Parse
// failures reject with reason "Invalid JSON". The type parameter is a
// compile-time convenience; the normalized value is returned as any.
//
// Example:
//
//	rule := validate.JSON[map[string]any]()
//	v, _ := rule.Parse(`{"a": 1}`)
func JSON[T any]() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.InvalidFormat("Invalid JSON")
			}
			var out T
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, sserr.InvalidFormat("Invalid JSON")
			}
			return out, nil
		},
		schema: map[string]any{
			"type":             "string",
			"contentMediaType": "application/json",
		},
	}
}

// NonEmptyString accepts any string except the empty string.
func NonEmptyString() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.Validationf("expected a string, got %T", v)
			}
			if s == "" {
				return nil, sserr.Validation("value cannot be empty")
			}
			return s, nil
		},
		schema: map[string]any{"type": "string", "minLength": 1},
	}
}

// PositiveInt accepts integers greater than zero. Floats are accepted only
// when integral (a decoded JSON number arrives as float64); fractional
// values reject. The normalized value is an int.
func PositiveInt() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			n, ok := toInt(v)
			if !ok {
				return nil, sserr.Validation("value must be an integer")
			}
			if n <= 0 {
				return nil, sserr.Validation("value must be a positive integer")
			}
			return n, nil
		},
		schema: map[string]any{"type": "integer", "minimum": 1},
	}
}

// NonNegativeInt accepts integers greater than or equal to zero. Fractional
// floats reject. The normalized value is an int.
func NonNegativeInt() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			n, ok := toInt(v)
			if !ok {
				return nil, sserr.Validation("value must be an integer")
			}
			if n < 0 {
				return nil, sserr.Validation("value must not be negative")
			}
			return n, nil
		},
		schema: map[string]any{"type": "integer", "minimum": 0},
	}
}

// Port accepts integers in [1, 65535] inclusive.
func Port() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			n, ok := toInt(v)
			if !ok {
				return nil, sserr.Validation("port must be an integer")
			}
			if n < 1 || n > 65535 {
				return nil, sserr.Validation("port must be between 1 and 65535")
			}
			return n, nil
		},
		schema: map[string]any{"type": "integer", "minimum": 1, "maximum": 65535},
	}
}

// ISODate accepts RFC 3339 date-time strings. A bare date such as
// "2024-01-15" rejects; only the full date-time form is accepted. The
// original string is returned unchanged.
func ISODate() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.InvalidFormat("Invalid ISO 8601 date-time")
			}
			if _, err := time.Parse(time.RFC3339, s); err != nil {
				return nil, sserr.InvalidFormat("Invalid ISO 8601 date-time")
			}
			return s, nil
		},
		schema: map[string]any{"type": "string", "format": "date-time"},
	}
}

// UUID accepts the canonical 36-character UUID form
// (8-4-4-4-12 hex digits). Braced, URN, and compact forms reject even
// though the underlying parser would accept them.
func UUID() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.InvalidFormat("Invalid UUID")
			}
			if len(s) != 36 {
				return nil, sserr.InvalidFormat("Invalid UUID")
			}
			if _, err := uuid.Parse(s); err != nil {
				return nil, sserr.InvalidFormat("Invalid UUID")
			}
			return s, nil
		},
		schema: map[string]any{"type": "string", "format": "uuid"},
	}
}

// EnumOf accepts only one of the supplied literal values. It panics when
// called with no values: an empty enum is a programming error, not an
// input error.
func EnumOf(values ...string) Rule {
	if len(values) == 0 {
		panic("validate: EnumOf requires at least one value")
	}

	members := make([]string, len(values))
	copy(members, values)

	enum := make([]any, len(members))
	for i, m := range members {
		enum[i] = m
	}

	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.Validationf("expected a string, got %T", v)
			}
			for _, m := range members {
				if s == m {
					return s, nil
				}
			}
			return nil, sserr.Validationf("value must be one of: %s", strings.Join(members, ", "))
		},
		schema: map[string]any{"type": "string", "enum": enum},
	}
}

// OptionalString passes non-empty strings and absent values through
// unchanged, and converts the empty string specifically to the absent
// value (nil). Inside [Object.Parse] an absent result removes the key
// from the normalized map.
func OptionalString() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			if v == nil {
				return nil, nil
			}
			s, ok := v.(string)
			if !ok {
				return nil, sserr.Validationf("expected a string, got %T", v)
			}
			if s == "" {
				return nil, nil
			}
			return s, nil
		},
		schema: map[string]any{"type": "string"},
	}
}

// TrimmedString trims leading and trailing whitespace and rejects when the
// trimmed result is empty, so whitespace-only input is an error rather
// than a silent empty string. The normalized value is the trimmed string.
func TrimmedString() Rule {
	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.Validationf("expected a string, got %T", v)
			}
			trimmed := strings.TrimSpace(s)
			if trimmed == "" {
				return nil, sserr.Validation("value cannot be empty")
			}
			return trimmed, nil
		},
		schema: map[string]any{"type": "string", "minLength": 1},
	}
}

// BoundedString accepts strings whose length in runes lies in [min, max]
// inclusive. It panics when max < min.
func BoundedString(min, max int) Rule {
	if max < min {
		panic("validate: BoundedString bounds are inverted")
	}

	return Rule{
		parse: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, sserr.Validationf("expected a string, got %T", v)
			}
			n := utf8.RuneCountInString(s)
			if n < min || n > max {
				return nil, sserr.Validationf("value must be between %d and %d characters", min, max)
			}
			return s, nil
		},
		schema: map[string]any{"type": "string", "minLength": min, "maxLength": max},
	}
}

// maxSafeInt is the largest float64 that still represents integers exactly.
// Larger values cannot round-trip and are rejected rather than silently
// truncated.
const maxSafeInt = 1 << 53

// toInt coerces the numeric kinds a decoded JSON document or a Go caller
// may supply into an int. Fractional floats and non-numeric values report
// false.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if math.Trunc(n) != n || math.Abs(n) > maxSafeInt {
			return 0, false
		}
		return int(n), true
	case float32:
		f := float64(n)
		if math.Trunc(f) != f || math.Abs(f) > maxSafeInt {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}
