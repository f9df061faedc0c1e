package schema

import "strings"

// FieldError reports one value that failed validation. Field is an object key, or
// "argument N" for the Nth event argument.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// Errors holds every failure found in one validation pass.
// Use errors.As to recover it from a wrapped error.
type Errors []error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) Unwrap() []error { return e }
