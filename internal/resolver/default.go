package resolver

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// FieldTagName is the struct tag consulted first when reading a field.
const FieldTagName = "graphql"

// Default reads fieldName from source. Maps are indexed by key; structs are
// matched by graphql tag, json tag, then case-insensitive field name, with
// embedded structs searched after the outer one. A missing key or field reads
// as null. A func(context.Context) (any, error) value is called.
func Default(ctx context.Context, source any, fieldName string) (any, error) {
	value := reflect.ValueOf(source)
	for value.IsValid() && (value.Kind() == reflect.Ptr || value.Kind() == reflect.Interface) {
		if value.IsNil() {
			return nil, nil
		}
		value = value.Elem()
	}
	if !value.IsValid() {
		return nil, nil
	}

	switch value.Kind() {
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			break
		}
		v := value.MapIndex(reflect.ValueOf(fieldName).Convert(value.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return call(ctx, v.Interface())
	case reflect.Struct:
		v, ok := structField(value, fieldName)
		if !ok {
			return nil, nil
		}
		return call(ctx, v.Interface())
	}
	return nil, fmt.Errorf("cannot read field %q from %T", fieldName, source)
}

// Property returns a Func reading fieldName with Default.
func Property(fieldName string) Func {
	return func(ctx context.Context, source any, _ map[string]any) (any, error) {
		return Default(ctx, source, fieldName)
	}
}

func call(ctx context.Context, v any) (any, error) {
	if f, ok := v.(func(context.Context) (any, error)); ok {
		return f(ctx)
	}
	return v, nil
}

func structField(source reflect.Value, name string) (reflect.Value, bool) {
	queue := []reflect.Value{source}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		typ := s.Type()
		var byName reflect.Value
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				queue = append(queue, s.Field(i))
				continue
			}
			if !f.IsExported() {
				continue
			}
			if tagName(f.Tag.Get(FieldTagName)) == name || tagName(f.Tag.Get("json")) == name {
				return s.Field(i), true
			}
			if !byName.IsValid() && strings.EqualFold(f.Name, name) {
				byName = s.Field(i)
			}
		}
		if byName.IsValid() {
			return byName, true
		}
	}
	return reflect.Value{}, false
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}
