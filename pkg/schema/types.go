package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Type validates one value. Name is the form ParseType accepts back, except for
// Custom types.
type Type interface {
	Name() string
	Validate(value any) error
}

type basicType struct {
	name  string
	check func(any) bool
}

func (t basicType) Name() string { return t.name }

func (t basicType) Validate(value any) error {
	if !t.check(value) {
		return fmt.Errorf("expected %s, got %T", t.name, value)
	}
	return nil
}

var (
	stringType = basicType{"string", func(v any) bool {
		_, ok := v.(string)
		return ok
	}}
	boolType = basicType{"bool", func(v any) bool {
		_, ok := v.(bool)
		return ok
	}}
	floatType = basicType{"float", func(v any) bool {
		switch v.(type) {
		case float32, float64, int, int8, int16, int32, int64:
			return true
		}
		return false
	}}
	anyType = basicType{"any", func(any) bool { return true }}
)

type intType struct{}

func (intType) Name() string { return "int" }

// Validate accepts whole floats, since that is how JSON numbers decode.
func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got %v", v)
	}
	return fmt.Errorf("expected int, got %T", value)
}

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected %s, got %T", t.Name(), value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type objectType struct {
	fields Schema
}

func (objectType) Name() string { return "object" }

func (t objectType) Validate(value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("expected object, got %T", value)
	}
	return Validate(t.fields, m)
}

type customType struct {
	name     string
	validate func(any) error
}

func (t customType) Name() string { return t.name }

func (t customType) Validate(value any) error { return t.validate(value) }

// String accepts strings.
func String() Type { return stringType }

// Int accepts integers and whole floats.
func Int() Type { return intType{} }

// Float accepts any number.
func Float() Type { return floatType }

// Bool accepts booleans.
func Bool() Type { return boolType }

// Any accepts every value. It keeps a position in Args without constraining it.
func Any() Type { return anyType }

// Slice accepts slices whose elements all match elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// Object accepts JSON objects carrying the fields of schema, such as the event objects
// browsers send. A nil schema accepts any object.
func Object(fields Schema) Type { return objectType{fields: fields} }

// Custom wraps a validation function under a name of its own. Views see only the name,
// so ParseType cannot rebuild it.
func Custom(name string, validate func(any) error) Type {
	return customType{name: name, validate: validate}
}

// ParseType converts a published type name back to a Type: "string", "int", "float",
// "bool", "any", "object" or a slice such as "[int]". A parsed "object" checks only that
// the value is an object.
func ParseType(name string) (Type, error) {
	if inner, ok := strings.CutPrefix(name, "["); ok {
		if elem, ok := strings.CutSuffix(inner, "]"); ok && elem != "" {
			t, err := ParseType(elem)
			if err != nil {
				return nil, err
			}
			return Slice(t), nil
		}
	}

	switch name {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "any":
		return Any(), nil
	case "object":
		return Object(nil), nil
	}
	return nil, fmt.Errorf("unsupported type %q", name)
}

// ParseArgs parses the published argument names of a handler, as in
// ParseArgs("int", "[string]").
func ParseArgs(names ...string) (Args, error) {
	args := make(Args, len(names))
	for i, name := range names {
		t, err := ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = t
	}
	return args, nil
}
