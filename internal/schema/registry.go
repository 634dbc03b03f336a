package schema

import (
	"errors"
	"fmt"
)

// Registry holds every named type of a schema together with the root
// operation type names. Types are registered once at startup and the registry
// is read-only afterwards; concurrent reads need no locking.
type Registry struct {
	Description string

	types        []*Type // indexed by TypeID
	byName       map[string]*Type
	queryType    string
	mutationType string
}

// NewRegistry returns a registry with the builtin scalars registered and the
// root type names defaulting to "Query" and "Mutation".
func NewRegistry() *Registry {
	r := &Registry{
		byName:       make(map[string]*Type),
		queryType:    "Query",
		mutationType: "Mutation",
	}
	for _, t := range newBuiltinScalars() {
		_ = r.Register(t)
	}
	return r
}

// Register adds t to the registry and interns its identifiers.
func (r *Registry) Register(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("cannot register unnamed type")
	}
	if _, exists := r.byName[t.Name]; exists {
		return &DuplicateTypeError{Name: t.Name}
	}
	t.ID = TypeID(len(r.types))
	t.indexFields()
	r.types = append(r.types, t)
	r.byName[t.Name] = t
	return nil
}

// RegisterAll registers types in order and stops at the first failure.
func (r *Registry) RegisterAll(types ...*Type) error {
	for _, t := range types {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*Type, error) {
	if t, ok := r.byName[name]; ok {
		return t, nil
	}
	return nil, &UnknownTypeError{Name: name}
}

// Type returns the type registered under name or nil.
func (r *Registry) Type(name string) *Type { return r.byName[name] }

// TypeByID returns the type with the interned id or nil.
func (r *Registry) TypeByID(id TypeID) *Type {
	if id < 0 || int(id) >= len(r.types) {
		return nil
	}
	return r.types[id]
}

// Types returns all types in registration order.
func (r *Registry) Types() []*Type {
	out := make([]*Type, len(r.types))
	copy(out, r.types)
	return out
}

// Len reports the number of registered types.
func (r *Registry) Len() int { return len(r.types) }

// ResolveFieldType returns the definition of fieldName on typeName.
func (r *Registry) ResolveFieldType(typeName, fieldName string) (*Field, error) {
	t, err := r.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	f := t.Field(fieldName)
	if f == nil {
		return nil, &UnknownFieldError{Type: typeName, Field: fieldName}
	}
	return f, nil
}

func (r *Registry) SetQueryType(name string) *Registry    { r.queryType = name; return r }
func (r *Registry) SetMutationType(name string) *Registry { r.mutationType = name; return r }

func (r *Registry) QueryTypeName() string    { return r.queryType }
func (r *Registry) MutationTypeName() string { return r.mutationType }

// QueryType returns the root query type (may be nil if absent)
func (r *Registry) QueryType() *Type { return r.byName[r.queryType] }

// MutationType returns the root mutation type (may be nil if absent)
func (r *Registry) MutationType() *Type { return r.byName[r.mutationType] }

// IsRootType reports whether name is the query or mutation root.
func (r *Registry) IsRootType(name string) bool {
	return name != "" && (name == r.queryType || name == r.mutationType)
}

// Validate checks that every type reference resolves to a registered type of
// a kind legal in its position. All problems are reported together.
func (r *Registry) Validate() error {
	var errs []error
	if q := r.QueryType(); q == nil {
		errs = append(errs, fmt.Errorf("query root type %q is not registered", r.queryType))
	} else if q.Kind != TypeKindObject {
		errs = append(errs, fmt.Errorf("query root type %q must be an object type", r.queryType))
	}
	if m := r.MutationType(); m != nil && m.Kind != TypeKindObject {
		errs = append(errs, fmt.Errorf("mutation root type %q must be an object type", r.mutationType))
	}
	for _, t := range r.types {
		switch t.Kind {
		case TypeKindObject:
			for _, f := range t.Fields {
				if err := r.checkOutputRef(f.Type); err != nil {
					errs = append(errs, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err))
				}
				for _, a := range f.Arguments {
					if err := r.checkInputRef(a.Type); err != nil {
						errs = append(errs, fmt.Errorf("%s.%s(%s): %w", t.Name, f.Name, a.Name, err))
					}
				}
			}
		case TypeKindInputObject:
			for _, v := range t.InputFields {
				if err := r.checkInputRef(v.Type); err != nil {
					errs = append(errs, fmt.Errorf("%s.%s: %w", t.Name, v.Name, err))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) checkOutputRef(ref *TypeRef) error {
	named, err := r.Lookup(GetNamedType(ref))
	if err != nil {
		return err
	}
	if named.Kind == TypeKindInputObject {
		return fmt.Errorf("input type %s cannot be used as a field type", named.Name)
	}
	return nil
}

func (r *Registry) checkInputRef(ref *TypeRef) error {
	named, err := r.Lookup(GetNamedType(ref))
	if err != nil {
		return err
	}
	if named.Kind == TypeKindObject {
		return fmt.Errorf("object type %s cannot be used as an input type", named.Name)
	}
	return nil
}
