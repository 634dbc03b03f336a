// Package introspection adds the __schema and __type query fields to a
// registry and registers the resolvers that answer them from the registry
// itself.
package introspection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hanpama/refgraph/internal/resolver"
	"github.com/hanpama/refgraph/internal/schema"
)

// Install registers the introspection types in r, adds __schema and
// __type(name:) to its query type and registers their resolvers in t. It
// must run before the table is bound.
func Install(r *schema.Registry, t *resolver.Table) error {
	query := r.QueryType()
	if query == nil {
		return fmt.Errorf("introspection: query type %q is not registered", r.QueryTypeName())
	}
	if query.Field("__schema") != nil {
		return fmt.Errorf("introspection: already installed on %s", query.Name)
	}
	if err := r.RegisterAll(types()...); err != nil {
		return fmt.Errorf("introspection: %w", err)
	}

	query.AddField(schema.NewField("__schema", "Access the current type schema of this server.",
		nonNull(named(schemaTypeName))))
	query.AddField(schema.NewField("__type", "Request the type information of a single type.", named(typeTypeName)).
		AddArgument(schema.NewInputValue("name", "The name of the type to look up.", nonNull(named("String")))))

	t.Register(query.Name, "__schema", func(ctx context.Context, _ any, _ map[string]any) (any, error) {
		return r, nil
	})
	t.Register(query.Name, "__type", func(ctx context.Context, _ any, args map[string]any) (any, error) {
		name, _ := args["name"].(string)
		return r.Type(name), nil
	})

	register := func(typ *schema.Type, resolve func(source any, field string) (any, error)) {
		for _, f := range typ.Fields {
			field := f.Name
			t.Register(typ.Name, field, func(ctx context.Context, source any, _ map[string]any) (any, error) {
				return resolve(source, field)
			})
		}
	}
	register(r.Type(schemaTypeName), func(source any, field string) (any, error) {
		sch, ok := source.(*schema.Registry)
		if !ok {
			return nil, unexpectedSource(schemaTypeName, source)
		}
		return resolveSchemaField(sch, field), nil
	})
	register(r.Type(typeTypeName), func(source any, field string) (any, error) {
		switch src := source.(type) {
		case *schema.Type:
			return resolveTypeField(r, src, field), nil
		case *schema.TypeRef:
			return resolveTypeRefField(r, src, field), nil
		}
		return nil, unexpectedSource(typeTypeName, source)
	})
	register(r.Type(fieldTypeName), func(source any, field string) (any, error) {
		f, ok := source.(*schema.Field)
		if !ok {
			return nil, unexpectedSource(fieldTypeName, source)
		}
		return resolveFieldField(f, field), nil
	})
	register(r.Type(inputValueTypeName), func(source any, field string) (any, error) {
		v, ok := source.(*schema.InputValue)
		if !ok {
			return nil, unexpectedSource(inputValueTypeName, source)
		}
		return resolveInputValueField(v, field), nil
	})
	return nil
}

func unexpectedSource(typeName string, source any) error {
	return fmt.Errorf("cannot introspect %T as %s", source, typeName)
}

func resolveSchemaField(sch *schema.Registry, field string) any {
	switch field {
	case "types":
		out := sch.Types()
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out
	case "queryType":
		return sch.QueryType()
	case "mutationType":
		return sch.MutationType()
	case "description":
		return optional(sch.Description)
	}
	return nil
}

func resolveTypeField(sch *schema.Registry, t *schema.Type, field string) any {
	switch field {
	case "kind":
		return string(t.Kind)
	case "name":
		return t.Name
	case "description":
		return optional(t.Description)
	case "fields":
		if t.Kind != schema.TypeKindObject {
			return nil
		}
		out := make([]*schema.Field, 0, len(t.Fields))
		for _, f := range t.Fields {
			if sch.IsRootType(t.Name) && strings.HasPrefix(f.Name, "__") {
				continue
			}
			out = append(out, f)
		}
		return out
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil
		}
		return t.InputFields
	case "ofType":
		// Wrapper types are TypeRef nodes, so named types never expose ofType.
		return nil
	}
	return nil
}

func resolveTypeRefField(sch *schema.Registry, tr *schema.TypeRef, field string) any {
	switch field {
	case "kind":
		if tr.IsNonNull() || tr.IsList() {
			return string(tr.Kind)
		}
	case "name":
		if tr.IsNonNull() || tr.IsList() {
			return nil
		}
		return tr.Named
	case "ofType":
		if tr.IsNonNull() || tr.IsList() {
			return tr.OfType
		}
		return nil
	}
	if def := sch.Type(tr.GetNamedType()); def != nil && !tr.IsNonNull() && !tr.IsList() {
		return resolveTypeField(sch, def, field)
	}
	return nil
}

func resolveFieldField(f *schema.Field, field string) any {
	switch field {
	case "name":
		return f.Name
	case "description":
		return optional(f.Description)
	case "args":
		if f.Arguments == nil {
			return []*schema.InputValue{}
		}
		return f.Arguments
	case "type":
		return f.Type
	}
	return nil
}

func resolveInputValueField(v *schema.InputValue, field string) any {
	switch field {
	case "name":
		return v.Name
	case "description":
		return optional(v.Description)
	case "type":
		return v.Type
	case "defaultValue":
		if v.DefaultValue == nil {
			return nil
		}
		return schema.RenderValue(v.DefaultValue)
	}
	return nil
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
