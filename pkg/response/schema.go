package response

import (
	"encoding/json"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
)

// SuccessSchema composes the two-branch union schema for a tool response.
// Branch one requires "success" to be literally true plus every field of
// payload (name to JSON Schema fragment); branch two requires "success"
// literally false plus a string "error". Because the branches carry
// mutually exclusive const discriminators, a validator applies exactly one
// branch's requirements to any given envelope, never both.
//
// Example:
//
//	doc := response.SuccessSchema(map[string]any{
//	    "messageId": map[string]any{"type": "string"},
//	})
func SuccessSchema(payload map[string]any) map[string]any {
	successProps := map[string]any{
		"success": map[string]any{"const": true},
	}
	required := []string{"success"}
	for name, fragment := range payload {
		successProps[name] = fragment
		required = append(required, name)
	}
	sort.Strings(required)

	requiredAny := make([]any, len(required))
	for i, name := range required {
		requiredAny[i] = name
	}

	return map[string]any{
		"oneOf": []any{
			map[string]any{
				"type":       "object",
				"properties": successProps,
				"required":   requiredAny,
			},
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"success": map[string]any{"const": false},
					"error":   map[string]any{"type": "string"},
				},
				"required": []any{"error", "success"},
			},
		},
	}
}

// SimpleSuccessSchema is the degenerate [SuccessSchema] with no payload
// fields.
func SimpleSuccessSchema() map[string]any {
	return SuccessSchema(nil)
}

// CompileSchema compiles a raw JSON Schema document into a resolved
// validator. Use it to check envelopes against a declared response schema:
//
//	resolved, err := response.CompileSchema(response.SimpleSuccessSchema())
//	if err != nil { ... }
//	err = resolved.Validate(envelope)
//
// Compilation failures are configuration errors: the document was authored
// by the module, not by a caller.
func CompileSchema(doc map[string]any) (*jsonschema.Resolved, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, sserr.Wrap(err, sserr.CodeConfiguration, "response: schema document does not marshal")
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, sserr.Wrap(err, sserr.CodeConfiguration, "response: invalid schema document")
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, sserr.Wrap(err, sserr.CodeConfiguration, "response: schema does not resolve")
	}
	return resolved, nil
}
