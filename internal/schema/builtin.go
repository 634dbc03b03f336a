package schema

var builtinScalars = []struct {
	name        string
	description string
}{
	{"String", "The `String` scalar type represents textual data, represented as UTF-8 character sequences."},
	{"Int", "The `Int` scalar type represents non-fractional signed whole numeric values."},
	{"Float", "The `Float` scalar type represents signed double-precision fractional values."},
	{"Boolean", "The `Boolean` scalar type represents `true` or `false`."},
	{"ID", "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching."},
}

// IsBuiltinScalar reports whether name is one of the scalars every registry starts with.
func IsBuiltinScalar(name string) bool {
	for _, s := range builtinScalars {
		if s.name == name {
			return true
		}
	}
	return false
}

func newBuiltinScalars() []*Type {
	out := make([]*Type, len(builtinScalars))
	for i, s := range builtinScalars {
		out[i] = NewType(s.name, TypeKindScalar, s.description)
	}
	return out
}
