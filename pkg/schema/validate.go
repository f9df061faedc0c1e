package schema

import (
	"fmt"
	"maps"
	"slices"
)

// Schema is a map of field names to their expected types.
// Example: {"value": String(), "checked": Bool()}
type Schema map[string]Type

// Args lists the expected types of an event's positional data, in order.
// Example: Args{Int(), Object(Schema{"value": String()})}
type Args []Type

// Names returns the type name of every argument. This is how Args are published to views.
func (a Args) Names() []string {
	names := make([]string, len(a))
	for i, t := range a {
		names[i] = t.Name()
	}
	return names
}

// Validate checks that every field of schema is present in data with the right type.
// Extra fields are allowed. Failures are reported in field name order.
func Validate(schema Schema, data map[string]any) error {
	var errs Errors
	for _, field := range slices.Sorted(maps.Keys(schema)) {
		value, ok := data[field]
		if !ok {
			errs = append(errs, &FieldError{Field: field, Reason: "required"})
			continue
		}
		if err := schema[field].Validate(value); err != nil {
			errs = append(errs, &FieldError{Field: field, Reason: err.Error()})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateArgs checks event data against args. Data must have exactly one element per
// declared argument; a nil Args accepts anything.
func ValidateArgs(args Args, data []any) error {
	if args == nil {
		return nil
	}
	if len(data) != len(args) {
		return Errors{&FieldError{
			Field:  "data",
			Reason: fmt.Sprintf("expected %d arguments, got %d", len(args), len(data)),
		}}
	}

	var errs Errors
	for i, typ := range args {
		if err := typ.Validate(data[i]); err != nil {
			errs = append(errs, &FieldError{Field: fmt.Sprintf("argument %d", i), Reason: err.Error()})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
