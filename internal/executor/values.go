package executor

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/hanpama/refgraph/internal/entity"
	"github.com/hanpama/refgraph/internal/schema"
)

// bindArguments prepares the argument map handed to a resolver. Supplied
// names the field does not declare are dropped. Absent arguments take their
// declared default or are omitted; a null or absent non-null argument fails.
// Input object values are stricter: a field their type does not declare is
// a coercion error rather than being dropped.
func bindArguments(registry *schema.Registry, parent *schema.Type, field *schema.Field, supplied map[string]any, variables map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(field.Arguments))
	for _, def := range field.Arguments {
		raw, ok := supplied[def.Name]
		if ok {
			raw, ok = substituteVariables(raw, variables)
		}
		if !ok && def.DefaultValue != nil {
			args[def.Name] = def.DefaultValue
			continue
		}
		if !ok || entity.IsNull(raw) {
			if def.Type.IsNonNull() {
				return nil, &MissingArgumentError{
					Type:     parent.Name,
					Field:    field.Name,
					Argument: def.Name,
					ArgType:  def.Type.String(),
				}
			}
			if ok {
				args[def.Name] = nil
			}
			continue
		}
		v, err := coerceInputValue(registry, raw, def.Type)
		if err != nil {
			return nil, &ArgumentCoercionError{Type: parent.Name, Field: field.Name, Argument: def.Name, Err: err}
		}
		args[def.Name] = v
	}
	return args, nil
}

// substituteVariables replaces Variable references in v. A top-level
// reference to an unset variable reports ok=false; nested ones become null.
func substituteVariables(v any, variables map[string]any) (any, bool) {
	switch x := v.(type) {
	case Variable:
		val, ok := variables[x.Name]
		return val, ok
	case *Variable:
		val, ok := variables[x.Name]
		return val, ok
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i], _ = substituteVariables(item, variables)
		}
		return out, true
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			if sub, ok := substituteVariables(item, variables); ok {
				out[k] = sub
			}
		}
		return out, true
	}
	return v, true
}

// coerceValue coerces an input value to the given type without a registry:
// input objects and custom scalars pass through unchanged.
func coerceValue(value any, targetType *schema.TypeRef) (any, error) {
	return coerceInputValue(nil, value, targetType)
}

// coerceInputValue coerces value to targetType. Input object fields are
// checked against their declarations in registry.
func coerceInputValue(registry *schema.Registry, value any, targetType *schema.TypeRef) (any, error) {
	if targetType.IsNonNull() {
		if entity.IsNull(value) {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", targetType)
		}
		return coerceInputValue(registry, value, targetType.Unwrap())
	}

	if entity.IsNull(value) {
		return nil, nil
	}

	if targetType.IsList() {
		return coerceListValue(registry, value, targetType)
	}

	if registry != nil {
		if t := registry.Type(targetType.GetNamedType()); t != nil && t.Kind == schema.TypeKindInputObject {
			return coerceInputObject(registry, value, t)
		}
	}

	switch targetType.GetNamedType() {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	default:
		return value, nil
	}
}

func coerceListValue(registry *schema.Registry, value any, listType *schema.TypeRef) (any, error) {
	innerType := listType.Unwrap()
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		// A single value stands for a list of one.
		item, err := coerceInputValue(registry, value, innerType)
		if err != nil {
			return nil, err
		}
		return []any{item}, nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		item, err := coerceInputValue(registry, rv.Index(i).Interface(), innerType)
		if err != nil {
			return nil, fmt.Errorf("at index %d: %w", i, err)
		}
		out[i] = item
	}
	return out, nil
}

// coerceInputObject checks fields against the input type. Absent fields take
// their default or stay absent; undeclared fields are rejected.
func coerceInputObject(registry *schema.Registry, value any, t *schema.Type) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to %s", value, value, t.Name)
	}
	for name := range fields {
		if t.InputField(name) == nil {
			return nil, fmt.Errorf("field '%s' is not defined by type %s", name, t.Name)
		}
	}
	out := make(map[string]any, len(t.InputFields))
	for _, def := range t.InputFields {
		raw, present := fields[def.Name]
		if !present {
			if def.DefaultValue != nil {
				out[def.Name] = def.DefaultValue
			} else if def.Type.IsNonNull() {
				return nil, fmt.Errorf("field '%s' of required type %s was not provided", def.Name, def.Type)
			}
			continue
		}
		v, err := coerceInputValue(registry, raw, def.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", def.Name, err)
		}
		out[def.Name] = v
	}
	return out, nil
}

// coerceToInt accepts integers and integral floats within the signed 32-bit
// range of GraphQL Int.
func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return v, nil
		}
	case int32:
		return int(v), nil
	case int64:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	case float64:
		if isIntegral(v, math.MinInt32, math.MaxInt32) {
			return int(v), nil
		}
	case float32:
		if f := float64(v); isIntegral(f, math.MinInt32, math.MaxInt32) {
			return int(f), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

// maxExactFloat is the largest magnitude below which every integer has an
// exact float64 representation.
const maxExactFloat = 1 << 53

func isIntegral(f float64, lo, hi float64) bool {
	return f == math.Trunc(f) && f >= lo && f <= hi
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

// coerceToID keeps strings as strings and integers as integers. Floats must
// be integral and exactly representable.
func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if isIntegral(v, -maxExactFloat, maxExactFloat) {
			return int(v), nil
		}
	case float32:
		if f := float64(v); isIntegral(f, -maxExactFloat, maxExactFloat) {
			return int(f), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}

// serializeLeaf converts a resolved scalar into its response form.
func serializeLeaf(typeName string, value any) (any, error) {
	switch entity.Classify(value) {
	case entity.KindNull:
		return nil, nil
	case entity.KindList, entity.KindEntity:
		return nil, fmt.Errorf("cannot serialize %T as %s", value, typeName)
	}
	switch typeName {
	case "ID":
		if id, ok := entity.AsID(value); ok {
			if s, isString := value.(string); isString {
				return s, nil
			}
			return id, nil
		}
		if s, ok := value.(string); ok {
			return s, nil
		}
		if s, ok := value.(fmt.Stringer); ok {
			return s.String(), nil
		}
	case "String":
		switch v := value.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		case fmt.Stringer:
			return v.String(), nil
		case bool:
			return strconv.FormatBool(v), nil
		case int, int32, int64, float32, float64:
			return fmt.Sprint(v), nil
		}
	case "Int":
		if n, err := coerceToInt(value); err == nil {
			return n, nil
		}
	case "Float":
		if f, err := coerceToFloat(value); err == nil {
			return f, nil
		}
	case "Boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
	default:
		return value, nil
	}
	return nil, fmt.Errorf("cannot serialize %v (%T) as %s", value, value, typeName)
}
