package schema

// Type is a named type definition (object, input object or scalar).
type Type struct {
	ID          TypeID
	Name        string
	Kind        TypeKind
	Description string
	Fields      []*Field      // For OBJECT
	InputFields []*InputValue // For INPUT_OBJECT

	fieldsByName map[string]*Field
}

// TypeID is the dense identifier a Registry assigns to a type on registration.
type TypeID int

// Field represents a field on an object type.
type Field struct {
	Name        string
	Description string
	Type        *TypeRef
	Arguments   []*InputValue
	// Index is the position of the field within its declaring type.
	Index int
}

// TypeKind represents the kind of a named type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[Person!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	default:
		return t.Named
	}
}

type InputValue struct {
	Name         string
	Description  string
	Type         *TypeRef
	DefaultValue any
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type {
	f.Index = len(t.Fields)
	t.Fields = append(t.Fields, f)
	if t.fieldsByName != nil {
		t.fieldsByName[f.Name] = f
	}
	return t
}

func (t *Type) AddInputField(v *InputValue) *Type {
	t.InputFields = append(t.InputFields, v)
	return t
}

// Field returns the field with the given name or nil.
func (t *Type) Field(name string) *Field {
	if t.fieldsByName != nil {
		return t.fieldsByName[name]
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InputField returns the input field with the given name or nil.
func (t *Type) InputField(name string) *InputValue {
	for _, v := range t.InputFields {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Clone returns a copy of t that shares no fields, arguments or input values
// with it. Type references are shared; they are never mutated.
func (t *Type) Clone() *Type {
	c := &Type{Name: t.Name, Kind: t.Kind, Description: t.Description}
	for _, f := range t.Fields {
		nf := *f
		nf.Arguments = cloneInputValues(f.Arguments)
		c.Fields = append(c.Fields, &nf)
	}
	c.InputFields = cloneInputValues(t.InputFields)
	return c
}

func cloneInputValues(in []*InputValue) []*InputValue {
	if in == nil {
		return nil
	}
	out := make([]*InputValue, len(in))
	for i, v := range in {
		nv := *v
		out[i] = &nv
	}
	return out
}

func (t *Type) indexFields() {
	t.fieldsByName = make(map[string]*Field, len(t.Fields))
	for i, f := range t.Fields {
		f.Index = i
		t.fieldsByName[f.Name] = f
	}
}

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

func (f *Field) AddArgument(arg *InputValue) *Field {
	f.Arguments = append(f.Arguments, arg)
	return f
}

// Argument returns the argument definition with the given name or nil.
func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

func (v *InputValue) SetDefault(value any) *InputValue {
	v.DefaultValue = value
	return v
}
