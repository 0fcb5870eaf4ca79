package validate

import (
	"fmt"
	"sort"

	sserr "github.com/StricklySoft/stricklysoft-modulekit/pkg/errors"
)

// Object composes named rules into a structural schema for a JSON object,
// typically the argument payload of a tool call. Construct with [NewObject];
// the zero value is not usable.
//
// Object is stateless after construction and safe for concurrent use.
type Object struct {
	fields   map[string]Rule
	required []string
}

// NewObject builds an object schema from a field-name-to-rule mapping and
// the names of the required fields. Every required name must be declared in
// fields; an unknown required name is a programming error and panics.
func NewObject(fields map[string]Rule, required ...string) *Object {
	copied := make(map[string]Rule, len(fields))
	for name, rule := range fields {
		copied[name] = rule
	}

	req := make([]string, len(required))
	copy(req, required)
	sort.Strings(req)

	for _, name := range req {
		if _, ok := copied[name]; !ok {
			panic(fmt.Sprintf("validate: required field %q has no rule", name))
		}
	}

	return &Object{fields: copied, required: req}
}

// Parse validates and normalizes an argument map. Required fields must be
// present as keys; a missing required field rejects with the
// missing-required-field taxonomy error. Present fields are parsed by
// their rules in name order, and the first failure is returned with the
// field name attached as metadata.
//
// The normalized result contains only declared fields; undeclared keys are
// dropped. A field whose rule normalizes to the absent value (see
// [OptionalString]) is omitted from the result. The input map is never
// modified.
func (o *Object) Parse(input map[string]any) (map[string]any, error) {
	for _, name := range o.required {
		if _, ok := input[name]; !ok {
			return nil, sserr.MissingField(name)
		}
	}

	names := make([]string, 0, len(o.fields))
	for name := range o.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(input))
	for _, name := range names {
		raw, ok := input[name]
		if !ok {
			continue
		}
		parsed, err := o.fields[name].Parse(raw)
		if err != nil {
			if e, ok := sserr.AsError(err); ok {
				return nil, e.WithMeta("field", name)
			}
			return nil, err
		}
		if parsed == nil {
			continue
		}
		out[name] = parsed
	}

	return out, nil
}

// Schema emits the JSON Schema object document for this composition,
// suitable for a tool declaration. The result is a copy; callers may
// modify it freely.
func (o *Object) Schema() map[string]any {
	properties := make(map[string]any, len(o.fields))
	for name, rule := range o.fields {
		properties[name] = rule.Schema()
	}

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(o.required) > 0 {
		req := make([]any, len(o.required))
		for i, name := range o.required {
			req[i] = name
		}
		doc["required"] = req
	}
	return doc
}

// Required returns the names of the required fields in sorted order.
func (o *Object) Required() []string {
	out := make([]string, len(o.required))
	copy(out, o.required)
	return out
}
