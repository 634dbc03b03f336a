package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// BuildFromSDL parses SDL and returns a registry holding its object, input
// and scalar definitions. Type extensions are merged into their base
// definitions. The result is validated before it is returned.
func BuildFromSDL(sdl string) (*Registry, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if err != nil {
		return nil, err
	}
	return BuildFromDocument(doc)
}

// BuildFromDocument builds a registry from an already parsed schema document.
func BuildFromDocument(doc *ast.SchemaDocument) (*Registry, error) {
	r := NewRegistry()

	for _, sd := range doc.Schema {
		r.Description = sd.Description
		for _, op := range sd.OperationTypes {
			switch op.Operation {
			case ast.Query:
				r.SetQueryType(op.Type)
			case ast.Mutation:
				r.SetMutationType(op.Type)
			default:
				return nil, fmt.Errorf("unsupported root operation %q", op.Operation)
			}
		}
	}

	for _, def := range doc.Definitions {
		t, err := buildDefinition(def)
		if err != nil {
			return nil, err
		}
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}

	for _, ext := range doc.Extensions {
		base := r.Type(ext.Name)
		if base == nil {
			return nil, &UnknownTypeError{Name: ext.Name}
		}
		if err := extendType(base, ext); err != nil {
			return nil, err
		}
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func buildDefinition(def *ast.Definition) (*Type, error) {
	switch def.Kind {
	case ast.Object:
		t := NewType(def.Name, TypeKindObject, def.Description)
		for _, fd := range def.Fields {
			t.AddField(buildField(fd))
		}
		return t, nil
	case ast.InputObject:
		t := NewType(def.Name, TypeKindInputObject, def.Description)
		for _, fd := range def.Fields {
			t.AddInputField(buildInputField(fd))
		}
		return t, nil
	case ast.Scalar:
		return NewType(def.Name, TypeKindScalar, def.Description), nil
	default:
		return nil, fmt.Errorf("%s: unsupported definition kind %s", def.Name, def.Kind)
	}
}

func extendType(base *Type, ext *ast.Definition) error {
	if string(ext.Kind) != kindOfDefinition(base.Kind) {
		return fmt.Errorf("cannot extend %s %s with %s", base.Kind, base.Name, ext.Kind)
	}
	for _, fd := range ext.Fields {
		switch base.Kind {
		case TypeKindObject:
			if base.Field(fd.Name) != nil {
				return fmt.Errorf("%s.%s is already defined", base.Name, fd.Name)
			}
			base.AddField(buildField(fd))
		case TypeKindInputObject:
			if base.InputField(fd.Name) != nil {
				return fmt.Errorf("%s.%s is already defined", base.Name, fd.Name)
			}
			base.AddInputField(buildInputField(fd))
		}
	}
	return nil
}

func kindOfDefinition(k TypeKind) string {
	switch k {
	case TypeKindObject:
		return string(ast.Object)
	case TypeKindInputObject:
		return string(ast.InputObject)
	default:
		return string(ast.Scalar)
	}
}

func buildField(fd *ast.FieldDefinition) *Field {
	f := NewField(fd.Name, fd.Description, BuildTypeRef(fd.Type))
	for _, arg := range fd.Arguments {
		in := NewInputValue(arg.Name, arg.Description, BuildTypeRef(arg.Type))
		if arg.DefaultValue != nil {
			in.SetDefault(literalValue(arg.DefaultValue))
		}
		f.AddArgument(in)
	}
	return f
}

func buildInputField(fd *ast.FieldDefinition) *InputValue {
	in := NewInputValue(fd.Name, fd.Description, BuildTypeRef(fd.Type))
	if fd.DefaultValue != nil {
		in.SetDefault(literalValue(fd.DefaultValue))
	}
	return in
}

// BuildTypeRef converts a parsed type expression into a TypeRef.
func BuildTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(BuildTypeRef(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	return ListType(BuildTypeRef(t.Elem))
}

// literalValue converts a constant literal; integers become int.
func literalValue(v *ast.Value) any {
	raw, err := v.Value(nil)
	if err != nil {
		return nil
	}
	return normalizeLiteral(raw)
}

func normalizeLiteral(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case []any:
		for i := range x {
			x[i] = normalizeLiteral(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalizeLiteral(x[k])
		}
		return x
	default:
		return v
	}
}
