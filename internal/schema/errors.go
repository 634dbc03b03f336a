package schema

import "fmt"

// DuplicateTypeError is returned by Registry.Register when the name is taken.
type DuplicateTypeError struct {
	Name string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("type '%s' is already registered", e.Name)
}

// UnknownTypeError is returned when a type name is not registered.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("Unknown type: %s", e.Name)
}

// UnknownFieldError is returned when a type declares no field with the name.
type UnknownFieldError struct {
	Type  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("Cannot query field '%s' on type '%s'", e.Field, e.Type)
}
