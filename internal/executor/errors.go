package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanpama/refgraph/internal/resolver"
	"github.com/hanpama/refgraph/internal/schema"
)

// Error codes reported under the "code" extension of located errors.
const (
	CodeUnknownType         = "UNKNOWN_TYPE"
	CodeUnknownField        = "UNKNOWN_FIELD"
	CodeMissingArgument     = "MISSING_ARGUMENT"
	CodeArgumentCoercion    = "ARGUMENT_COERCION"
	CodeSelectionShape      = "SELECTION_SHAPE"
	CodeNonNullViolation    = "NON_NULL_VIOLATION"
	CodeResolverError       = "RESOLVER_ERROR"
	CodeUnresolvedReference = "UNRESOLVED_REFERENCE"
	CodeMissingResolver     = "MISSING_RESOLVER"
	CodeRequestCancelled    = "REQUEST_CANCELLED"
	CodeInternal            = "INTERNAL"
)

// MissingArgumentError reports a non-null argument that was absent or null.
type MissingArgumentError struct {
	Type     string
	Field    string
	Argument string
	ArgType  string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("argument '%s' of required type %s was not provided to %s.%s", e.Argument, e.ArgType, e.Type, e.Field)
}

// ArgumentCoercionError reports a supplied argument of the wrong shape.
type ArgumentCoercionError struct {
	Type     string
	Field    string
	Argument string
	Err      error
}

func (e *ArgumentCoercionError) Error() string {
	return fmt.Sprintf("argument '%s' cannot be coerced: %v", e.Argument, e.Err)
}

func (e *ArgumentCoercionError) Unwrap() error { return e.Err }

// SelectionShapeError reports sub-selections on a leaf or a missing
// sub-selection on an object.
type SelectionShapeError struct {
	Type      string
	Field     string
	FieldType string
	Leaf      bool
}

func (e *SelectionShapeError) Error() string {
	if e.Leaf {
		return fmt.Sprintf("Field '%s' must not have a selection since type '%s' has no subfields", e.Field, e.FieldType)
	}
	return fmt.Sprintf("Field '%s' of type '%s' must have a selection of subfields", e.Field, e.FieldType)
}

// NonNullViolationError reports a null produced for a non-null position.
type NonNullViolationError struct {
	Type  string
	Field string
}

func (e *NonNullViolationError) Error() string {
	return fmt.Sprintf("Cannot return null for non-nullable field %s.%s", e.Type, e.Field)
}

// ResolverExecutionError wraps a failure reported by a field resolver. Its
// message is the resolver's own.
type ResolverExecutionError struct {
	Type  string
	Field string
	Err   error
}

func (e *ResolverExecutionError) Error() string { return e.Err.Error() }

func (e *ResolverExecutionError) Unwrap() error { return e.Err }

// UnresolvedReferenceError reports an identifier in object position that
// could not be turned into an entity.
type UnresolvedReferenceError struct {
	Type string
	ID   any
	Err  error
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot resolve reference %v: no loader registered for type %s", e.ID, e.Type)
	}
	return fmt.Sprintf("cannot resolve reference %v to %s: %v", e.ID, e.Type, e.Err)
}

func (e *UnresolvedReferenceError) Unwrap() error { return e.Err }

// ErrorCode classifies err for the "code" extension.
func ErrorCode(err error) string {
	var (
		unknownType  *schema.UnknownTypeError
		unknownField *schema.UnknownFieldError
		missingArg   *MissingArgumentError
		coercion     *ArgumentCoercionError
		shape        *SelectionShapeError
		nonNull      *NonNullViolationError
		reference    *UnresolvedReferenceError
		resolverErr  *ResolverExecutionError
		missingRoot  *resolver.MissingResolverError
	)
	switch {
	case errors.As(err, &resolverErr):
		if errors.As(resolverErr.Err, &reference) {
			return CodeUnresolvedReference
		}
		return CodeResolverError
	case errors.As(err, &reference):
		return CodeUnresolvedReference
	case errors.As(err, &unknownField):
		return CodeUnknownField
	case errors.As(err, &unknownType):
		return CodeUnknownType
	case errors.As(err, &missingArg):
		return CodeMissingArgument
	case errors.As(err, &coercion):
		return CodeArgumentCoercion
	case errors.As(err, &shape):
		return CodeSelectionShape
	case errors.As(err, &nonNull):
		return CodeNonNullViolation
	case errors.As(err, &missingRoot):
		return CodeMissingResolver
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeRequestCancelled
	}
	return CodeInternal
}

func locate(err error, path Path) GraphQLError {
	return GraphQLError{
		Message:    err.Error(),
		Path:       path,
		Extensions: map[string]any{"code": ErrorCode(err)},
	}
}
