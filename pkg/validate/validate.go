// Package validate provides the rule catalogue modules use to check and
// normalize tool arguments before their handlers run.
//
// Each constructor returns a stateless [Rule]: parameterization happens at
// construction time, and the returned value can be used concurrently and
// reused across requests. A Rule does two things:
//
//   - Parse checks a raw decoded value (typically fresh out of
//     encoding/json) and returns the normalized form, or a taxonomy error
//     from pkg/errors. Grammar failures (email, URL, UUID, date-time, JSON)
//     reject with CodeInvalidFormat; emptiness and range failures reject
//     with CodeInvalidInput.
//   - Schema reports the JSON Schema fragment describing the accepted
//     input, so rules compose directly into tool input schemas.
//
// Rules compose into structural schemas with [NewObject]:
//
//	args := validate.NewObject(map[string]validate.Rule{
//	    "recipient": validate.Email(),
//	    "subject":   validate.BoundedString(1, 200),
//	    "body":      validate.NonEmptyString(),
//	    "replyTo":   validate.OptionalString(),
//	}, "recipient", "subject", "body")
//
//	parsed, err := args.Parse(rawArgs)
package validate

// Rule is a single validation and normalization unit. The zero value is not
// usable; construct Rules with the package-level constructors.
type Rule struct {
	parse  func(v any) (any, error)
	schema map[string]any
}

// Parse validates v and returns its normalized form. The returned error is
// always a *errors.Error carrying a validation-band code.
func (r Rule) Parse(v any) (any, error) {
	return r.parse(v)
}

// Schema returns the JSON Schema fragment describing the values this rule
// accepts. The result is a copy; callers may modify it freely.
func (r Rule) Schema() map[string]any {
	return copySchema(r.schema)
}

// copySchema deep-copies a schema document so shared fragments cannot be
// mutated through returned values. Only the shapes that appear in schema
// documents (maps, slices, scalars) are handled.
func copySchema(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = copySchemaValue(v)
	}
	return out
}

func copySchemaValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copySchema(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copySchemaValue(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
